// Package model はドメインモデルを定義する。
package model

import "time"

// Session はログイン済みアカウントと不透明なセッションハンドルの
// 一時的な紐付けを表す。有効期限は発行時刻からの固定値
// （スライディングではない）。
type Session struct {
	ID        string
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PasswordResetToken はパスワード再設定用のワンタイムトークンを表す。
// 発行から一定時間で失効し、一度使用すると削除される。
// トークンの配送（メール等）はこのコアの責務外。
type PasswordResetToken struct {
	ID        string
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
