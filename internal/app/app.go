package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/qrtag/internal/auth"
	"github.com/hitoshi/qrtag/internal/config"
	"github.com/hitoshi/qrtag/internal/database"
	"github.com/hitoshi/qrtag/internal/emergency"
	"github.com/hitoshi/qrtag/internal/handler"
	"github.com/hitoshi/qrtag/internal/logger"
	"github.com/hitoshi/qrtag/internal/metrics"
	"github.com/hitoshi/qrtag/internal/middleware"
	"github.com/hitoshi/qrtag/internal/profile"
	"github.com/hitoshi/qrtag/internal/repository"
	"github.com/hitoshi/qrtag/internal/security"
	"github.com/hitoshi/qrtag/internal/tag"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateAccount:
		return runCreateAccount(cfg, args[1:])
	case CommandLinkTag:
		return runLinkTag(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	accountRepo := repository.NewPostgresAccountRepo(db)
	tagRepo := repository.NewPostgresTagRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	resetTokenRepo := repository.NewPostgresResetTokenRepo(db)

	// 3. ドメインサービスの初期化
	authService := auth.NewService(accountRepo, sessionRepo, resetTokenRepo, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		ResetTokenTTL: cfg.ResetTokenTTL,
	})
	tagService := tag.NewService(tagRepo)
	sanitizer := security.NewSanitizer()
	profileService := profile.NewService(tagRepo, accountRepo, sanitizer)

	directory, err := emergency.NewDirectory()
	if err != nil {
		return fmt.Errorf("failed to load emergency numbers: %w", err)
	}

	// 4. 可観測性の初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. レート制限の初期化（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		SessionResolver: authService,
		RateLimiter:     rateLimiter,
		Logger:          slog.Default(),

		AuthService: authService,
		SessionConfig: handler.SessionHandlerConfig{
			CookieDomain:   cfg.CookieDomain,
			CookieSecure:   cfg.CookieSecure,
			SessionMaxAge:  cfg.SessionMaxAge,
			DefaultLanding: cfg.DefaultLanding,
		},
		TagService:     tagService,
		ProfileService: profileService,
		Directory:      directory,

		Collector: collector,
		DB:        db,
	})

	// /metrics はアプリのミドルウェアチェーンの外に置く
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.Handle("/", router)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// runCreateAccount はコンソールからアカウントを作成する。
// qrtag createaccount <email> <password>
func runCreateAccount(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: createaccount <email> <password>")
	}
	email, password := args[0], args[1]

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	accountRepo := repository.NewPostgresAccountRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	resetTokenRepo := repository.NewPostgresResetTokenRepo(db)
	authService := auth.NewService(accountRepo, sessionRepo, resetTokenRepo, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		ResetTokenTTL: cfg.ResetTokenTTL,
	})

	account, err := authService.Register(context.Background(), email, password)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account created via console",
		slog.Int64("account_id", account.ID),
	)
	return nil
}

// runLinkTag は未所有状態のタグを新規登録する。
// メールアドレスを指定した場合は、登録後にそのアカウントへ紐付ける。
// qrtag linktag <public_code> [email]
func runLinkTag(cfg *config.Config, args []string) error {
	if len(args) != 1 && len(args) != 2 {
		return fmt.Errorf("usage: linktag <public_code> [email]")
	}
	code := args[0]

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tagService := tag.NewService(repository.NewPostgresTagRepo(db))

	created, err := tagService.Register(context.Background(), code)
	if err != nil {
		return fmt.Errorf("failed to register tag: %w", err)
	}

	slog.Info("tag registered via console",
		slog.Int64("tag_id", created.ID),
		slog.String("public_code", created.PublicCode),
	)

	if len(args) == 2 {
		email := strings.ToLower(strings.TrimSpace(args[1]))
		account, err := repository.NewPostgresAccountRepo(db).FindByEmail(context.Background(), email)
		if err != nil {
			return fmt.Errorf("failed to find account: %w", err)
		}
		if account == nil {
			return fmt.Errorf("account not found: %s", email)
		}

		result, _, err := tagService.Claim(context.Background(), created.PublicCode, account.ID)
		if err != nil {
			return fmt.Errorf("failed to link tag to account: %w", err)
		}

		slog.Info("tag linked to account via console",
			slog.Int64("tag_id", created.ID),
			slog.Int64("account_id", account.ID),
			slog.String("result", string(result)),
		)
	}
	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
