// Package tag はタグ登録・スキャン解決・クレーム（アクティベーション）を提供する。
package tag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/qrtag/internal/model"
	"github.com/hitoshi/qrtag/internal/repository"
)

// Service はタグに関するビジネスロジックを提供する。
type Service struct {
	tags repository.TagRepository
}

// NewService はServiceを生成する。
func NewService(tags repository.TagRepository) *Service {
	return &Service{tags: tags}
}

// Register は未所有状態のタグを新規登録する。
// 公開コードが重複している場合はDUPLICATE_CODEを返す。
func (s *Service) Register(ctx context.Context, code string) (*model.Tag, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("public code must not be empty")
	}

	tag, err := s.tags.Create(ctx, code)
	if err != nil {
		return nil, err
	}

	slog.Info("tag registered",
		slog.Int64("tag_id", tag.ID),
		slog.String("public_code", tag.PublicCode),
	)
	return tag, nil
}

// FindByPublicCode は公開コードの完全一致でタグを検索する。
// 見つからない場合は(nil, nil)を返す。
func (s *Service) FindByPublicCode(ctx context.Context, code string) (*model.Tag, error) {
	return s.tags.FindByPublicCode(ctx, code)
}

// FindByID は内部IDでタグを取得する。見つからない場合は(nil, nil)を返す。
func (s *Service) FindByID(ctx context.Context, id int64) (*model.Tag, error) {
	return s.tags.FindByID(ctx, id)
}

// ListByOwner は指定アカウントが所有するタグをID昇順で返す。
func (s *Service) ListByOwner(ctx context.Context, accountID int64) ([]*model.Tag, error) {
	return s.tags.ListByOwner(ctx, accountID)
}

// Resolve はスキャンされた公開コードを結果に解決する。
// 判定は必ず 存在→所有→認証 の順で行う:
//  1. コードに対応するタグが存在しなければ NotFound
//  2. 所有済みなら ShowProfile（呼び出し元が誰であっても同じ）
//  3. 未所有かつ匿名なら RequireAuthThenClaim（ログイン後の継続パス付き）
//  4. 未所有かつ認証済みなら OfferClaim
//
// 所有済みタグの解決で呼び出し元の認証状態を参照してはならない。
func (s *Service) Resolve(ctx context.Context, code string, caller *model.Account) (*model.Outcome, error) {
	tag, err := s.tags.FindByPublicCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find tag by public code: %w", err)
	}
	if tag == nil {
		return &model.Outcome{Kind: model.OutcomeNotFound, Code: code}, nil
	}

	if tag.IsOwned() {
		return &model.Outcome{Kind: model.OutcomeShowProfile, TagID: tag.ID}, nil
	}

	if caller == nil {
		return &model.Outcome{
			Kind:         model.OutcomeRequireAuthThenClaim,
			Code:         code,
			Continuation: "/claim/" + code,
		}, nil
	}

	return &model.Outcome{Kind: model.OutcomeOfferClaim, Code: code}, nil
}

// Claim は公開コードのタグを呼び出し元アカウントに紐付ける。
// 書き込みはストアの条件付きUPDATEで行い、同一タグへの同時クレームは
// 必ず1件だけが成功する。敗者には適用済みの所有状態を読み直して
// Self / Other を分類する。
//
// 呼び出し元が既に所有者の場合（再送・戻るボタン）はno-opのSelfを返す。
func (s *Service) Claim(ctx context.Context, code string, accountID int64) (model.ClaimResult, *model.Tag, error) {
	tag, err := s.tags.FindByPublicCode(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find tag by public code: %w", err)
	}
	if tag == nil {
		return model.ClaimResultNotFound, nil, nil
	}

	if tag.IsOwnedBy(accountID) {
		return model.ClaimResultAlreadyOwnedBySelf, tag, nil
	}
	if tag.IsOwned() {
		return model.ClaimResultAlreadyOwnedByOther, tag, nil
	}

	// 書き込み開始後はクライアント切断で中断させない。
	// 中途半端な所有状態（ownerだけ設定等）を残さないため、
	// 条件付きUPDATEは切り離したコンテキストで完遂させる。
	writeCtx := context.WithoutCancel(ctx)
	applied, err := s.tags.ClaimIfUnowned(writeCtx, tag.ID, accountID, time.Now())
	if err != nil {
		return "", nil, fmt.Errorf("failed to claim tag: %w", err)
	}

	claimed, err := s.tags.FindByID(writeCtx, tag.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to re-read tag after claim: %w", err)
	}
	if claimed == nil {
		return "", nil, fmt.Errorf("tag %d disappeared during claim", tag.ID)
	}

	if applied {
		slog.Info("tag claimed",
			slog.Int64("tag_id", claimed.ID),
			slog.String("public_code", claimed.PublicCode),
			slog.Int64("account_id", accountID),
		)
		return model.ClaimResultClaimed, claimed, nil
	}

	// 条件付き書き込みに敗れた場合、適用済みの所有者で分類する。
	switch {
	case claimed.IsOwnedBy(accountID):
		return model.ClaimResultAlreadyOwnedBySelf, claimed, nil
	case claimed.IsOwned():
		return model.ClaimResultAlreadyOwnedByOther, claimed, nil
	default:
		return "", nil, fmt.Errorf("claim write rejected but tag %d is still unowned", tag.ID)
	}
}
