// Package auth は資格情報の検証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/qrtag/internal/model"
	"github.com/hitoshi/qrtag/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// SessionMaxAge はセッション有効期間（秒）。
	// 発行時刻からの固定期限であり、アクセスによる延長（スライディング）は行わない。
	SessionMaxAge int
	// ResetTokenTTL はパスワード再設定トークンの有効期間。
	ResetTokenTTL time.Duration
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	sessions    repository.SessionStore
	resetTokens repository.ResetTokenRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	sessions repository.SessionStore,
	resetTokens repository.ResetTokenRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		sessions:    sessions,
		resetTokens: resetTokens,
		config:      config,
	}
}

// Login は資格情報を検証し、成功時に新しいセッションを発行する。
// アカウントが存在しない場合とパスワードが一致しない場合とで
// 同一のINVALID_CREDENTIALSを返す（登録有無の推測を防ぐ）。
func (s *Service) Login(ctx context.Context, email, secret string) (*model.Session, error) {
	email = model.NormalizeEmail(email)

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	if account == nil || !CheckPasswordHash(secret, account.CredentialHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("account logged in",
		slog.Int64("account_id", account.ID),
	)
	return session, nil
}

// Resolve はセッションハンドルから呼び出し元アカウントを取得する。
// ハンドルが空・無効・期限切れの場合は(nil, nil)を返す（匿名扱い、エラーにしない）。
func (s *Service) Resolve(ctx context.Context, handle string) (*model.Account, error) {
	if handle == "" {
		return nil, nil
	}

	session, err := s.sessions.FindByID(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	account, err := s.accountRepo.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// Logout はセッションを即時無効化する。
// 既に存在しないハンドルに対しても成功する（冪等）。
func (s *Service) Logout(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}

	if err := s.sessions.DeleteByID(ctx, handle); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("session invalidated")
	return nil
}

// Register はアカウントを新規作成する。コンソール（createaccountサブコマンド）専用。
func (s *Service) Register(ctx context.Context, email, secret string) (*model.Account, error) {
	email = model.NormalizeEmail(email)

	hash, err := HashPassword(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		Email:          email,
		CredentialHash: hash,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account created",
		slog.Int64("account_id", account.ID),
	)
	return account, nil
}

// IssueResetToken はパスワード再設定トークンを発行する。
// 指定メールアドレスのアカウントが存在しない場合は(nil, nil)を返し、
// 呼び出し側は存在有無を外部に漏らしてはならない。
// トークンの配送（メール等）はこのコアの責務外。
func (s *Service) IssueResetToken(ctx context.Context, email string) (*model.PasswordResetToken, error) {
	email = model.NormalizeEmail(email)

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	if account == nil {
		return nil, nil
	}

	now := time.Now()
	token := &model.PasswordResetToken{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		ExpiresAt: now.Add(s.config.ResetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resetTokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	slog.Info("password reset token issued",
		slog.Int64("account_id", account.ID),
		slog.String("token_id", token.ID),
		slog.Time("expires_at", token.ExpiresAt),
	)
	return token, nil
}

// ResetPassword はトークンを消費してパスワードを変更する。
// トークンが無効・期限切れ・使用済みの場合はINVALID_RESET_TOKENを返す。
// 成功時は該当アカウントの全セッションを無効化する。
func (s *Service) ResetPassword(ctx context.Context, tokenID, newSecret string) error {
	token, err := s.resetTokens.Consume(ctx, tokenID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if token == nil {
		return model.NewInvalidResetTokenError()
	}

	hash, err := HashPassword(newSecret)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdateCredentialHash(ctx, token.AccountID, hash); err != nil {
		return fmt.Errorf("failed to update credential hash: %w", err)
	}

	if err := s.sessions.DeleteByAccountID(ctx, token.AccountID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	slog.Info("password reset completed",
		slog.Int64("account_id", token.AccountID),
	)
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, accountID int64) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		AccountID: accountID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
