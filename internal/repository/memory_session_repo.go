package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/qrtag/internal/model"
)

// MemorySessionRepo はガード付きマップによるインメモリのセッションストア。
// 単一プロセス構成およびテストで使用する。
// SessionStoreインターフェースを満たすため、Postgres実装と差し替え可能。
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemorySessionRepo はMemorySessionRepoを生成する。
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]*model.Session),
	}
}

// Create はセッションを作成する。
func (r *MemorySessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *MemorySessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || !session.ExpiresAt.After(time.Now()) {
		return nil, nil
	}

	copied := *session
	return &copied, nil
}

// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
func (r *MemorySessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// DeleteByAccountID は指定アカウントの全セッションを削除する。
func (r *MemorySessionRepo) DeleteByAccountID(ctx context.Context, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		if session.AccountID == accountID {
			delete(r.sessions, id)
		}
	}
	return nil
}

// compile-time interface check
var _ SessionStore = (*MemorySessionRepo)(nil)
