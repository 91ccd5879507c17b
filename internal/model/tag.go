// Package model はドメインモデルを定義する。
package model

import "time"

// Tag は物理ラベル1枚と印字された公開コードの対応を表す。
// OwnerAccountID と ClaimedAt は常に同時に設定される
// （どちらか一方だけがnilの状態は存在しない）。
// 一度所有者が設定されたタグが未所有に戻ることはない。
type Tag struct {
	ID             int64
	PublicCode     string
	OwnerAccountID *int64
	ClaimedAt      *time.Time
	CreatedAt      time.Time
}

// IsOwned はタグが既にアクティベート済みかどうかを返す。
func (t *Tag) IsOwned() bool {
	return t.OwnerAccountID != nil
}

// IsOwnedBy は指定アカウントがこのタグの所有者かどうかを返す。
func (t *Tag) IsOwnedBy(accountID int64) bool {
	return t.OwnerAccountID != nil && *t.OwnerAccountID == accountID
}

// ClaimResult はクレーム操作の結果種別を表す。
type ClaimResult string

const (
	// ClaimResultClaimed は条件付き書き込みが成功し、タグが呼び出し元に紐付いたことを示す。
	ClaimResultClaimed ClaimResult = "claimed"
	// ClaimResultAlreadyOwnedBySelf は呼び出し元が既に所有者である場合（再送・戻るボタン等）。
	// エラーではなく成功扱いのno-op。
	ClaimResultAlreadyOwnedBySelf ClaimResult = "already_owned_by_self"
	// ClaimResultAlreadyOwnedByOther は別アカウントが所有者である場合。再試行不可の終端結果。
	ClaimResultAlreadyOwnedByOther ClaimResult = "already_owned_by_other"
	// ClaimResultNotFound は公開コードに対応するタグが存在しない場合。
	ClaimResultNotFound ClaimResult = "not_found"
)
