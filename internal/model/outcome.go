// Package model はドメインモデルを定義する。
package model

// OutcomeKind はスキャン解決の結果種別を表す。
type OutcomeKind string

const (
	// OutcomeNotFound は公開コードに対応するタグが存在しないことを示す。
	OutcomeNotFound OutcomeKind = "not_found"
	// OutcomeRequireAuthThenClaim はタグが未所有で呼び出し元が匿名の場合。
	// ログイン後にクレームへ戻るための継続パスを伴う。
	OutcomeRequireAuthThenClaim OutcomeKind = "require_auth_then_claim"
	// OutcomeOfferClaim はタグが未所有で呼び出し元が認証済みの場合。
	OutcomeOfferClaim OutcomeKind = "offer_claim"
	// OutcomeShowProfile はタグが所有済みの場合。
	// 以降は公開コードではなく内部IDでプロフィールを参照する。
	OutcomeShowProfile OutcomeKind = "show_profile"
)

// Outcome はスキャン解決の結果を表す。
// Kindに応じて有効なフィールドが決まる:
//   - OutcomeRequireAuthThenClaim: Continuation（同一オリジンの相対パスのみ）
//   - OutcomeOfferClaim: Code
//   - OutcomeShowProfile: TagID
type Outcome struct {
	Kind         OutcomeKind
	Code         string
	TagID        int64
	Continuation string
}
