package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/qrtag/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `id, email, credential_hash, display_name, blood_type,
	has_allergies, phone1, phone2, instructions_url, created_at, updated_at`

func scanAccount(row *sql.Row) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(
		&account.ID, &account.Email, &account.CredentialHash,
		&account.DisplayName, &account.BloodType, &account.HasAllergies,
		&account.Phone1, &account.Phone2, &account.InstructionsURL,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return account, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`,
		id,
	)
	return scanAccount(row)
}

// FindByEmail は正規化済みメールアドレスでアカウントを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`,
		email,
	)
	return scanAccount(row)
}

// Create はアカウントを作成し、生成されたIDをaccount.IDに設定する。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	now := time.Now()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (email, credential_hash, display_name, blood_type,
		     has_allergies, phone1, phone2, instructions_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING id`,
		account.Email, account.CredentialHash, account.DisplayName,
		account.BloodType, account.HasAllergies, account.Phone1,
		account.Phone2, account.InstructionsURL, now,
	).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// UpdateCredentialHash はパスワード変更時にハッシュのみを更新する。
func (r *PostgresAccountRepo) UpdateCredentialHash(ctx context.Context, id int64, credentialHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET credential_hash = $1, updated_at = now() WHERE id = $2`,
		credentialHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update credential hash: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %d", id)
	}
	return nil
}

// UpdateProfile は緊急連絡先プロフィール属性を更新する。
func (r *PostgresAccountRepo) UpdateProfile(ctx context.Context, id int64, attrs model.ProfileAttributes) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET display_name = $1, blood_type = $2, has_allergies = $3,
		     phone1 = $4, phone2 = $5, instructions_url = $6, updated_at = now()
		 WHERE id = $7`,
		attrs.DisplayName, attrs.BloodType, attrs.HasAllergies,
		attrs.Phone1, attrs.Phone2, attrs.InstructionsURL, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %d", id)
	}
	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
