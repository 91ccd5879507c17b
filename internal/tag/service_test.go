package tag

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/qrtag/internal/model"
	"github.com/hitoshi/qrtag/internal/repository"
)

// --- モック定義 ---

type mockTagRepo struct {
	findByIDFn         func(ctx context.Context, id int64) (*model.Tag, error)
	findByPublicCodeFn func(ctx context.Context, code string) (*model.Tag, error)
	createFn           func(ctx context.Context, code string) (*model.Tag, error)
	claimIfUnownedFn   func(ctx context.Context, tagID, accountID int64, claimedAt time.Time) (bool, error)
	listByOwnerFn      func(ctx context.Context, accountID int64) ([]*model.Tag, error)
}

func (m *mockTagRepo) FindByID(ctx context.Context, id int64) (*model.Tag, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTagRepo) FindByPublicCode(ctx context.Context, code string) (*model.Tag, error) {
	if m.findByPublicCodeFn != nil {
		return m.findByPublicCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockTagRepo) Create(ctx context.Context, code string) (*model.Tag, error) {
	if m.createFn != nil {
		return m.createFn(ctx, code)
	}
	return &model.Tag{ID: 1, PublicCode: code}, nil
}

func (m *mockTagRepo) ClaimIfUnowned(ctx context.Context, tagID, accountID int64, claimedAt time.Time) (bool, error) {
	if m.claimIfUnownedFn != nil {
		return m.claimIfUnownedFn(ctx, tagID, accountID, claimedAt)
	}
	return false, nil
}

func (m *mockTagRepo) ListByOwner(ctx context.Context, accountID int64) ([]*model.Tag, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, accountID)
	}
	return nil, nil
}

var _ repository.TagRepository = (*mockTagRepo)(nil)

func unownedTag(id int64, code string) *model.Tag {
	return &model.Tag{ID: id, PublicCode: code, CreatedAt: time.Now()}
}

func ownedTag(id int64, code string, ownerID int64) *model.Tag {
	claimedAt := time.Now()
	return &model.Tag{
		ID:             id,
		PublicCode:     code,
		OwnerAccountID: &ownerID,
		ClaimedAt:      &claimedAt,
		CreatedAt:      time.Now().Add(-time.Hour),
	}
}

// --- 解決（Resolve）のテスト ---

func TestResolve_UnknownCode_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockTagRepo{})

	outcome, err := svc.Resolve(ctx, "NO-SUCH-CODE", nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != model.OutcomeNotFound {
		t.Errorf("Kind = %q, want %q", outcome.Kind, model.OutcomeNotFound)
	}
	if outcome.Code != "NO-SUCH-CODE" {
		t.Errorf("Code = %q, want %q", outcome.Code, "NO-SUCH-CODE")
	}
}

// 公開コードは完全一致（大文字小文字を区別）
func TestResolve_CodeIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			if code == "AbC123" {
				return unownedTag(1, "AbC123"), nil
			}
			return nil, nil
		},
	}
	svc := NewService(repo)

	outcome, err := svc.Resolve(ctx, "abc123", nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != model.OutcomeNotFound {
		t.Errorf("case-mismatched code should be NotFound, got %q", outcome.Kind)
	}
}

func TestResolve_UnownedAnonymous_RequiresAuthWithContinuation(t *testing.T) {
	ctx := context.Background()
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return unownedTag(7, code), nil
		},
	}
	svc := NewService(repo)

	outcome, err := svc.Resolve(ctx, "FRESH-1", nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != model.OutcomeRequireAuthThenClaim {
		t.Errorf("Kind = %q, want %q", outcome.Kind, model.OutcomeRequireAuthThenClaim)
	}
	if outcome.Continuation != "/claim/FRESH-1" {
		t.Errorf("Continuation = %q, want %q", outcome.Continuation, "/claim/FRESH-1")
	}
}

func TestResolve_UnownedAuthenticated_OffersClaim(t *testing.T) {
	ctx := context.Background()
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return unownedTag(7, code), nil
		},
	}
	svc := NewService(repo)
	caller := &model.Account{ID: 42, Email: "user@example.com"}

	outcome, err := svc.Resolve(ctx, "FRESH-1", caller)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if outcome.Kind != model.OutcomeOfferClaim {
		t.Errorf("Kind = %q, want %q", outcome.Kind, model.OutcomeOfferClaim)
	}
	if outcome.Code != "FRESH-1" {
		t.Errorf("Code = %q, want %q", outcome.Code, "FRESH-1")
	}
}

// 所有済みタグは呼び出し元が匿名でも所有者でも第三者でも同じ結果になる
func TestResolve_OwnedTag_ShowsProfileRegardlessOfCaller(t *testing.T) {
	ctx := context.Background()
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return ownedTag(7, code, 42), nil
		},
	}
	svc := NewService(repo)

	callers := map[string]*model.Account{
		"anonymous": nil,
		"owner":     {ID: 42, Email: "owner@example.com"},
		"stranger":  {ID: 99, Email: "stranger@example.com"},
	}
	for name, caller := range callers {
		outcome, err := svc.Resolve(ctx, "OWNED-1", caller)
		if err != nil {
			t.Fatalf("%s: Resolve returned error: %v", name, err)
		}
		if outcome.Kind != model.OutcomeShowProfile {
			t.Errorf("%s: Kind = %q, want %q", name, outcome.Kind, model.OutcomeShowProfile)
		}
		if outcome.TagID != 7 {
			t.Errorf("%s: TagID = %d, want 7", name, outcome.TagID)
		}
	}
}

// --- クレーム（Claim）のテスト ---

func TestClaim_UnknownCode_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockTagRepo{})

	result, tag, err := svc.Claim(ctx, "NO-SUCH-CODE", 42)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if result != model.ClaimResultNotFound {
		t.Errorf("result = %q, want %q", result, model.ClaimResultNotFound)
	}
	if tag != nil {
		t.Error("tag should be nil for unknown code")
	}
}

func TestClaim_UnownedTag_Succeeds(t *testing.T) {
	ctx := context.Background()
	stored := unownedTag(7, "FRESH-1")
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return stored, nil
		},
		claimIfUnownedFn: func(ctx context.Context, tagID, accountID int64, claimedAt time.Time) (bool, error) {
			stored = ownedTag(tagID, "FRESH-1", accountID)
			return true, nil
		},
		findByIDFn: func(ctx context.Context, id int64) (*model.Tag, error) {
			return stored, nil
		},
	}
	svc := NewService(repo)

	result, tag, err := svc.Claim(ctx, "FRESH-1", 42)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if result != model.ClaimResultClaimed {
		t.Errorf("result = %q, want %q", result, model.ClaimResultClaimed)
	}
	if !tag.IsOwnedBy(42) {
		t.Error("tag should be owned by account 42 after claim")
	}
	if tag.ClaimedAt == nil {
		t.Error("ClaimedAt should be set after claim")
	}
}

// 自分が既に所有するタグへの再クレームはno-opの成功
func TestClaim_AlreadyOwnedBySelf_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	var claimWriteCalled bool
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return ownedTag(7, code, 42), nil
		},
		claimIfUnownedFn: func(ctx context.Context, tagID, accountID int64, claimedAt time.Time) (bool, error) {
			claimWriteCalled = true
			return false, nil
		},
	}
	svc := NewService(repo)

	result, tag, err := svc.Claim(ctx, "OWNED-1", 42)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if result != model.ClaimResultAlreadyOwnedBySelf {
		t.Errorf("result = %q, want %q", result, model.ClaimResultAlreadyOwnedBySelf)
	}
	if !tag.IsOwnedBy(42) {
		t.Error("tag should still be owned by account 42")
	}
	if claimWriteCalled {
		t.Error("no write should be attempted when caller already owns the tag")
	}
}

func TestClaim_AlreadyOwnedByOther_Terminal(t *testing.T) {
	ctx := context.Background()
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return ownedTag(7, code, 99), nil
		},
	}
	svc := NewService(repo)

	result, tag, err := svc.Claim(ctx, "OWNED-1", 42)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if result != model.ClaimResultAlreadyOwnedByOther {
		t.Errorf("result = %q, want %q", result, model.ClaimResultAlreadyOwnedByOther)
	}
	if !tag.IsOwnedBy(99) {
		t.Error("tag should remain owned by account 99")
	}
}

// 条件付き書き込みに敗れた場合は適用済みの所有者で分類する
// （読み取りでは未所有に見えたが、書き込み直前に他者が取得したケース）
func TestClaim_LostRace_ClassifiedByAppliedOwner(t *testing.T) {
	ctx := context.Background()
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return unownedTag(7, code), nil
		},
		claimIfUnownedFn: func(ctx context.Context, tagID, accountID int64, claimedAt time.Time) (bool, error) {
			return false, nil
		},
		findByIDFn: func(ctx context.Context, id int64) (*model.Tag, error) {
			return ownedTag(id, "RACE-1", 99), nil
		},
	}
	svc := NewService(repo)

	result, _, err := svc.Claim(ctx, "RACE-1", 42)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if result != model.ClaimResultAlreadyOwnedByOther {
		t.Errorf("result = %q, want %q", result, model.ClaimResultAlreadyOwnedByOther)
	}
}

func TestClaim_StoreError_Propagates(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection refused")
	repo := &mockTagRepo{
		findByPublicCodeFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return nil, storeErr
		},
	}
	svc := NewService(repo)

	_, _, err := svc.Claim(ctx, "ANY", 42)
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

// --- 同時クレームのテスト ---

// casTagRepo は条件付きUPDATEの単一勝者セマンティクスを
// ミューテックスで再現するインメモリ実装。
type casTagRepo struct {
	mu  sync.Mutex
	tag model.Tag
}

func (r *casTagRepo) FindByID(ctx context.Context, id int64) (*model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tag
	return &t, nil
}

func (r *casTagRepo) FindByPublicCode(ctx context.Context, code string) (*model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tag.PublicCode != code {
		return nil, nil
	}
	t := r.tag
	return &t, nil
}

func (r *casTagRepo) Create(ctx context.Context, code string) (*model.Tag, error) {
	return nil, errors.New("not supported")
}

func (r *casTagRepo) ClaimIfUnowned(ctx context.Context, tagID, accountID int64, claimedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tag.ID != tagID || r.tag.OwnerAccountID != nil {
		return false, nil
	}
	owner := accountID
	at := claimedAt
	r.tag.OwnerAccountID = &owner
	r.tag.ClaimedAt = &at
	return true, nil
}

func (r *casTagRepo) ListByOwner(ctx context.Context, accountID int64) ([]*model.Tag, error) {
	return nil, errors.New("not supported")
}

var _ repository.TagRepository = (*casTagRepo)(nil)

// 同一の未所有タグにN個のアカウントが同時にクレームしても
// Claimedになるのは厳密に1件で、残りはAlreadyOwnedByOtherになる
func TestClaim_Concurrent_ExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := &casTagRepo{
		tag: model.Tag{ID: 7, PublicCode: "CONTESTED-1", CreatedAt: time.Now()},
	}
	svc := NewService(repo)

	const contenders = 16
	results := make([]model.ClaimResult, contenders)
	errs := make([]error, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], _, errs[n] = svc.Claim(ctx, "CONTESTED-1", int64(n+1))
		}(i)
	}
	wg.Wait()

	var claimed, other int
	for i := 0; i < contenders; i++ {
		if errs[i] != nil {
			t.Fatalf("contender %d: Claim returned error: %v", i, errs[i])
		}
		switch results[i] {
		case model.ClaimResultClaimed:
			claimed++
		case model.ClaimResultAlreadyOwnedByOther:
			other++
		default:
			t.Errorf("contender %d: unexpected result %q", i, results[i])
		}
	}

	if claimed != 1 {
		t.Errorf("claimed = %d, want exactly 1", claimed)
	}
	if other != contenders-1 {
		t.Errorf("already_owned_by_other = %d, want %d", other, contenders-1)
	}

	final, err := repo.FindByID(ctx, 7)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if !final.IsOwned() {
		t.Fatal("tag should be owned after the race")
	}
	if final.ClaimedAt == nil {
		t.Error("ClaimedAt should be set together with the owner")
	}
}

// --- 登録（Register）のテスト ---

func TestRegister_EmptyCode_ReturnsError(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockTagRepo{})

	if _, err := svc.Register(ctx, "   "); err == nil {
		t.Error("expected error for empty public code")
	}
}

func TestRegister_DuplicateCode_ReturnsAPIError(t *testing.T) {
	ctx := context.Background()
	repo := &mockTagRepo{
		createFn: func(ctx context.Context, code string) (*model.Tag, error) {
			return nil, model.NewDuplicateCodeError(code)
		},
	}
	svc := NewService(repo)

	_, err := svc.Register(ctx, "DUP-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateCode {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateCode)
	}
}
