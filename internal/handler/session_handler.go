// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/qrtag/internal/metrics"
	"github.com/hitoshi/qrtag/internal/middleware"
	"github.com/hitoshi/qrtag/internal/model"
	"github.com/hitoshi/qrtag/internal/security"
)

// AuthServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, secret string) (*model.Session, error)
	Logout(ctx context.Context, handle string) error
	IssueResetToken(ctx context.Context, email string) (*model.PasswordResetToken, error)
	ResetPassword(ctx context.Context, tokenID, newSecret string) error
}

// SessionHandlerConfig はセッションハンドラーの設定。
type SessionHandlerConfig struct {
	CookieDomain   string
	CookieSecure   bool
	SessionMaxAge  int    // セッションCookieの有効期間（秒）
	DefaultLanding string // ログイン後のデフォルト遷移先
}

// SessionHandler はログイン・ログアウト・パスワード再設定のHTTPハンドラー。
type SessionHandler struct {
	service   AuthServiceInterface
	config    SessionHandlerConfig
	collector metrics.MetricsCollector
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service AuthServiceInterface, config SessionHandlerConfig, collector metrics.MetricsCollector) *SessionHandler {
	return &SessionHandler{
		service:   service,
		config:    config,
		collector: collector,
	}
}

// Login は資格情報を検証してセッションCookieを発行する。
// POST /login（フォーム: email, password, next）
//
// 成功時はnextパラメータの検証済み遷移先（既定は/panel）に303でリダイレクトする。
// nextは同一オリジンの相対パスのみ許可し、外部URLはデフォルトに置き換える。
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	session, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		h.collector.RecordLogin(false)

		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
			return
		}
		slog.Error("login failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	h.collector.RecordLogin(true)

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	next := security.SafeContinuation(r.PostFormValue("next"), h.config.DefaultLanding)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout はセッションを破棄してCookieをクリアする。
// POST /logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RequestPasswordReset はパスワード再設定トークンの発行を受け付ける。
// POST /api/password-reset（フォーム: email）
//
// アカウントの存在有無にかかわらず常に202を返す（登録有無を漏らさない）。
// トークンの配送はこのサービスの責務外。
func (h *SessionHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	if _, err := h.service.IssueResetToken(r.Context(), email); err != nil {
		slog.Error("failed to issue reset token", slog.String("error", err.Error()))
		// 失敗しても外部には同じ応答を返す
	}

	w.WriteHeader(http.StatusAccepted)
}

// ConfirmPasswordReset はトークンを消費してパスワードを変更する。
// POST /api/password-reset/confirm（フォーム: token, password）
func (h *SessionHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	tokenID := r.PostFormValue("token")
	password := r.PostFormValue("password")
	if tokenID == "" || password == "" {
		http.Error(w, "token and password are required", http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), tokenID, password); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
			return
		}
		slog.Error("failed to reset password", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
