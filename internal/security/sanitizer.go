package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はユーザー入力のプロフィールテキストを無害化する。
// 緊急連絡先プロフィールは第三者（救助者）のブラウザに表示されるため、
// 保存前にHTMLをすべて除去する。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer はタグを一切許可しないSanitizerを生成する。
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeText はHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
func (s *Sanitizer) SanitizeText(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// SanitizeOptional はnil許容のテキストを無害化する。
// nilはnilのまま返す（未設定の意味を保つ）。
func (s *Sanitizer) SanitizeOptional(text *string) *string {
	if text == nil {
		return nil
	}
	cleaned := s.SanitizeText(*text)
	return &cleaned
}
