// Package security は入力の無害化と遷移先パスの検証を提供する。
package security

import "strings"

// SafeContinuation はログイン後の遷移先パスを検証する。
// 同一オリジンの絶対パス（"/"始まり）のみを許可し、
// それ以外（外部URL、スキーム付き、プロトコル相対"//"、空文字）は
// フォールバック先に置き換える。オープンリダイレクトを防ぐ。
func SafeContinuation(next, fallback string) string {
	if next == "" {
		return fallback
	}
	// "//evil.example" はスキーム相対URLとして外部に飛ぶ
	if strings.HasPrefix(next, "//") {
		return fallback
	}
	if !strings.HasPrefix(next, "/") {
		return fallback
	}
	// "/\evil.example" をプロトコル相対と解釈するブラウザがある
	if strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if strings.ContainsAny(next, "\r\n") {
		return fallback
	}
	return next
}
