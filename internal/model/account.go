// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Account は登録済みユーザーのアカウントを表す。
// CredentialHash はbcryptハッシュであり、平文を復元することはできない。
// プロフィール属性（表示名、血液型など）はすべて任意項目で、
// 未設定の場合はnilとなる。
type Account struct {
	ID              int64
	Email           string
	CredentialHash  string
	DisplayName     *string
	BloodType       *string
	HasAllergies    *bool
	Phone1          *string
	Phone2          *string
	InstructionsURL *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfileAttributes は緊急連絡先プロフィールの更新可能な属性をまとめたもの。
// nilのフィールドは「未設定」を意味する。
type ProfileAttributes struct {
	DisplayName     *string
	BloodType       *string
	HasAllergies    *bool
	Phone1          *string
	Phone2          *string
	InstructionsURL *string
}

// NormalizeEmail はメールアドレスを正規化する（前後の空白除去と小文字化）。
// ログイン・アカウント検索の前に必ず適用すること。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
