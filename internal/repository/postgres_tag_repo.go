package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/qrtag/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
// キャッシュ層を持たず、常に最新のコミット済み状態を読む。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

func scanTag(row *sql.Row) (*model.Tag, error) {
	tag := &model.Tag{}
	err := row.Scan(
		&tag.ID, &tag.PublicCode, &tag.OwnerAccountID, &tag.ClaimedAt, &tag.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag: %w", err)
	}
	return tag, nil
}

// FindByID は指定IDのタグを取得する。見つからない場合はnilを返す。
func (r *PostgresTagRepo) FindByID(ctx context.Context, id int64) (*model.Tag, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, public_code, owner_account_id, claimed_at, created_at
		 FROM tags WHERE id = $1`,
		id,
	)
	return scanTag(row)
}

// FindByPublicCode は公開コードの完全一致でタグを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresTagRepo) FindByPublicCode(ctx context.Context, code string) (*model.Tag, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, public_code, owner_account_id, claimed_at, created_at
		 FROM tags WHERE public_code = $1`,
		code,
	)
	return scanTag(row)
}

// Create は未所有状態のタグを作成する。
// 公開コードが既に存在する場合は DUPLICATE_CODE のAPIErrorを返す。
func (r *PostgresTagRepo) Create(ctx context.Context, code string) (*model.Tag, error) {
	tag := &model.Tag{PublicCode: code}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tags (public_code) VALUES ($1) RETURNING id, created_at`,
		code,
	).Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, model.NewDuplicateCodeError(code)
		}
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}
	return tag, nil
}

// ClaimIfUnowned は条件付き単一勝者のクレーム書き込みを実行する。
// WHERE句の owner_account_id IS NULL がストア側の比較集合条件であり、
// 同一タグへ競合する書き込みのうち1件だけがRowsAffected=1となる。
// 読んでから書くペアではないため、アプリケーション側のロックは不要。
func (r *PostgresTagRepo) ClaimIfUnowned(ctx context.Context, tagID, accountID int64, claimedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tags SET owner_account_id = $1, claimed_at = $2
		 WHERE id = $3 AND owner_account_id IS NULL`,
		accountID, claimedAt, tagID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim tag: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// ListByOwner は指定アカウントが所有するタグをID昇順で返す。
func (r *PostgresTagRepo) ListByOwner(ctx context.Context, accountID int64) ([]*model.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, public_code, owner_account_id, claimed_at, created_at
		 FROM tags WHERE owner_account_id = $1 ORDER BY id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags by owner: %w", err)
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		tag := &model.Tag{}
		if err := rows.Scan(&tag.ID, &tag.PublicCode, &tag.OwnerAccountID, &tag.ClaimedAt, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tag rows: %w", err)
	}

	return tags, nil
}

// compile-time interface check
var _ TagRepository = (*PostgresTagRepo)(nil)
