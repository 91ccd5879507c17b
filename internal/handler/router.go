package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/qrtag/internal/emergency"
	"github.com/hitoshi/qrtag/internal/metrics"
	"github.com/hitoshi/qrtag/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionResolver middleware.SessionResolver
	RateLimiter     *middleware.RateLimiter
	Logger          *slog.Logger

	// サービス
	AuthService    AuthServiceInterface
	SessionConfig  SessionHandlerConfig
	TagService     TagServiceInterface
	ProfileService ProfileServiceInterface
	Directory      *emergency.Directory

	// 可観測性
	Collector metrics.MetricsCollector

	// ヘルスチェック
	DB Pinger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → OptionalSession
//
// OptionalSessionは全ルートに適用する。スキャン解決とプロフィール表示は
// 匿名アクセスが正当なため、認証必須のルートのみRequiredSessionを重ねる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionResolver))

	sessionHandler := NewSessionHandler(deps.AuthService, deps.SessionConfig, deps.Collector)
	tagHandler := NewTagHandler(deps.TagService, deps.Collector)
	profileHandler := NewProfileHandler(deps.ProfileService)
	accountHandler := NewAccountHandler()
	emergencyHandler := NewEmergencyHandler(deps.Directory)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", healthHandler.Health)
	r.Get("/db_ping", healthHandler.DBPing)

	// スキャン解決（救助者・未登録ユーザーもアクセスする）
	r.Get("/v/{code}", tagHandler.ResolveScan)

	// プロフィール表示（救助者向け公開エンドポイント）
	r.Get("/emergencia/{id}", profileHandler.ShowProfile)

	// 緊急通報番号
	r.Get("/api/emergency-numbers", emergencyHandler.LookupNumbers)

	// ログイン（IP単位のレート制限付き）
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", sessionHandler.Login)
	r.Post("/logout", sessionHandler.Logout)

	// パスワード再設定（認証前のためIP単位のレート制限を共有）
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/password-reset", sessionHandler.RequestPasswordReset)
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/password-reset/confirm", sessionHandler.ConfirmPasswordReset)

	// クレーム確認（匿名はログインへの誘導をハンドラー内で行う）
	r.Get("/claim/{code}", tagHandler.ClaimInfo)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: RequiredSession → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequiredSessionMiddleware())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// クレーム実行
		r.Post("/claim/{code}", tagHandler.Claim)

		// アカウント・タグ管理
		r.Get("/api/me", accountHandler.Me)
		r.Get("/api/tags", tagHandler.ListTags)
		r.Put("/api/profile", profileHandler.UpdateProfile)
	})

	return r
}
