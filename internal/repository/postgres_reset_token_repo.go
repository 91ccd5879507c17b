package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/qrtag/internal/model"
)

// PostgresResetTokenRepo はPostgreSQLを使用したパスワード再設定トークンリポジトリ。
type PostgresResetTokenRepo struct {
	db *sql.DB
}

// NewPostgresResetTokenRepo はPostgresResetTokenRepoを生成する。
func NewPostgresResetTokenRepo(db *sql.DB) *PostgresResetTokenRepo {
	return &PostgresResetTokenRepo{db: db}
}

// Create はトークンを作成する。
func (r *PostgresResetTokenRepo) Create(ctx context.Context, token *model.PasswordResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (id, account_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.ID, token.AccountID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// Consume はトークンを1回限りで消費する。
// DELETE ... RETURNING により取得と無効化を単一文で行うため、
// 同一トークンの二重使用は片方しか成功しない。
func (r *PostgresResetTokenRepo) Consume(ctx context.Context, id string, now time.Time) (*model.PasswordResetToken, error) {
	token := &model.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM password_reset_tokens
		 WHERE id = $1 AND expires_at > $2
		 RETURNING id, account_id, expires_at, created_at`,
		id, now,
	).Scan(&token.ID, &token.AccountID, &token.ExpiresAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	return token, nil
}

// compile-time interface check
var _ ResetTokenRepository = (*PostgresResetTokenRepo)(nil)
