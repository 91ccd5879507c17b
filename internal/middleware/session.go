// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/qrtag/internal/model"
)

// SessionCookieName はセッションハンドルを格納するCookie名。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// accountContextKey はリクエストコンテキストにアカウントを格納するためのキー。
var accountContextKey = contextKey("account")

// SessionResolver はセッションハンドルから呼び出し元アカウントを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionResolver interface {
	Resolve(ctx context.Context, handle string) (*model.Account, error)
}

// NewOptionalSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効であれば呼び出し元アカウントをリクエストコンテキストに注入するミドルウェアを返す。
// Cookieがない・無効・期限切れの場合は匿名のままリクエストを通す（拒否しない）。
// スキャン解決のように匿名アクセスが正当なルートで使用する。
func NewOptionalSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			account, err := resolver.Resolve(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if account == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequiredSessionMiddleware は認証済みの呼び出し元のみを通すミドルウェアを返す。
// NewOptionalSessionMiddlewareの後段に配置し、匿名リクエストには
// 401 Unauthorizedの統一エラーレスポンスを返す。
func NewRequiredSessionMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if AccountFromContext(r.Context()) == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccountFromContext はリクエストコンテキストから呼び出し元アカウントを取得する。
// 匿名の場合はnilを返す。
func AccountFromContext(ctx context.Context) *model.Account {
	account, ok := ctx.Value(accountContextKey).(*model.Account)
	if !ok {
		return nil
	}
	return account
}

// ContextWithAccount はコンテキストにアカウントを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}
