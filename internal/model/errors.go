// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, tag, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeTagNotFound        = "TAG_NOT_FOUND"
	ErrCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTagAlreadyClaimed  = "TAG_ALREADY_CLAIMED"
	ErrCodeDuplicateCode      = "DUPLICATE_CODE"
	ErrCodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewTagNotFoundError はタグ未検出エラーを生成する。
func NewTagNotFoundError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeTagNotFound,
		Message:  fmt.Sprintf("指定されたコードが見つかりません: %s", code),
		Category: "tag",
		Action:   "ラベルに印字されたコードを確認してください。",
	}
}

// NewProfileNotFoundError はプロフィール未検出エラーを生成する。
// タグが存在しない場合と未アクティベートの場合の両方で使用する
// （外部には区別を見せない）。
func NewProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  "緊急連絡先プロフィールが見つかりません。",
		Category: "tag",
		Action:   "URLを確認してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// アカウントが存在しない場合とパスワードが一致しない場合とで
// 完全に同一のエラーを返す（登録有無の推測を防ぐ）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewTagAlreadyClaimedError はクレーム競合エラーを生成する。
// 再試行しても結果は変わらない終端エラー。
func NewTagAlreadyClaimedError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeTagAlreadyClaimed,
		Message:  fmt.Sprintf("このコードは既に別のアカウントに登録されています: %s", code),
		Category: "tag",
		Action:   "心当たりがない場合はラベルの提供元に連絡してください。",
	}
}

// NewDuplicateCodeError は公開コード重複エラーを生成する。
func NewDuplicateCodeError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateCode,
		Message:  fmt.Sprintf("この公開コードは既に登録されています: %s", code),
		Category: "validation",
		Action:   "別のコードを指定してください。",
	}
}

// NewInvalidResetTokenError は無効なパスワード再設定トークンのエラーを生成する。
func NewInvalidResetTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidResetToken,
		Message:  "パスワード再設定トークンが無効か、有効期限が切れています。",
		Category: "auth",
		Action:   "再設定を最初からやり直してください。",
	}
}

// NewStoreUnavailableError はストア障害による一時的エラーを生成する。
// コアは自動再試行しない。呼び出し側の再送は安全。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "一時的な障害が発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}
