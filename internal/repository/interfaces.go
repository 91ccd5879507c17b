// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/qrtag/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Account, error)

	// FindByEmail は正規化済みメールアドレスでアカウントを検索する。
	// 見つからない場合はnilを返す。呼び出し側でNormalizeEmailを適用すること。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// Create はアカウントを作成し、生成されたIDをaccount.IDに設定する。
	// メールアドレスが重複している場合はエラーを返す。
	Create(ctx context.Context, account *model.Account) error

	// UpdateCredentialHash はパスワード変更時にハッシュのみを更新する。
	UpdateCredentialHash(ctx context.Context, id int64, credentialHash string) error

	// UpdateProfile は緊急連絡先プロフィール属性を更新する。
	UpdateProfile(ctx context.Context, id int64, attrs model.ProfileAttributes) error
}

// TagRepository はタグデータの永続化インターフェース。
// 読み取りは常に最新のコミット済み状態を返す（キャッシュ禁止）。
// 所有状態が解決・クレームの状態機械を決めるため。
type TagRepository interface {
	// FindByID は指定IDのタグを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Tag, error)

	// FindByPublicCode は公開コードの完全一致でタグを検索する。
	// コードは大文字小文字を区別する。見つからない場合はnilを返す。
	FindByPublicCode(ctx context.Context, code string) (*model.Tag, error)

	// Create は未所有状態のタグを作成する。
	// 公開コードが既に存在する場合は model.APIError（DUPLICATE_CODE）を返す。
	Create(ctx context.Context, code string) (*model.Tag, error)

	// ClaimIfUnowned は条件付き単一勝者のクレーム書き込みを実行する。
	// ストアのアトミックな条件付きUPDATEにより、書き込み時点で owner が
	// まだ NULL の場合にのみ owner と claimed_at を設定する。
	// 同一タグに対する複数の条件付き書き込みが両方成功することはない。
	// 書き込みが適用された場合はtrueを返す。
	ClaimIfUnowned(ctx context.Context, tagID, accountID int64, claimedAt time.Time) (bool, error)

	// ListByOwner は指定アカウントが所有するタグをID昇順で返す。
	ListByOwner(ctx context.Context, accountID int64) ([]*model.Tag, error)
}

// SessionStore はセッションハンドルの永続化インターフェース。
// 外部ストアへの差し替えを想定し、呼び出し側はこの抽象のみに依存する。
type SessionStore interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。
	// 期限切れまたは存在しない場合はnilを返す（エラーにはしない）。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない（冪等）。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByAccountID は指定アカウントの全セッションを削除する。
	DeleteByAccountID(ctx context.Context, accountID int64) error
}

// ResetTokenRepository はパスワード再設定トークンの永続化インターフェース。
type ResetTokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.PasswordResetToken) error

	// Consume はトークンを1回限りで消費する。
	// 未失効のトークンが存在すれば削除して返し、
	// 存在しないか期限切れの場合はnilを返す。
	Consume(ctx context.Context, id string, now time.Time) (*model.PasswordResetToken, error)
}
