package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/qrtag/internal/metrics"
	"github.com/hitoshi/qrtag/internal/middleware"
	"github.com/hitoshi/qrtag/internal/model"
)

// TagServiceInterface はタグハンドラーが必要とするサービスインターフェース。
type TagServiceInterface interface {
	Resolve(ctx context.Context, code string, caller *model.Account) (*model.Outcome, error)
	Claim(ctx context.Context, code string, accountID int64) (model.ClaimResult, *model.Tag, error)
	ListByOwner(ctx context.Context, accountID int64) ([]*model.Tag, error)
}

// TagHandler はスキャン解決・クレーム・タグ一覧のHTTPハンドラー。
type TagHandler struct {
	service   TagServiceInterface
	collector metrics.MetricsCollector
}

// NewTagHandler はTagHandlerを生成する。
func NewTagHandler(service TagServiceInterface, collector metrics.MetricsCollector) *TagHandler {
	return &TagHandler{
		service:   service,
		collector: collector,
	}
}

// tagResponse はAPIレスポンス用のタグ表現。
type tagResponse struct {
	ID         int64      `json:"id"`
	PublicCode string     `json:"public_code"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
}

// ResolveScan はスキャンされた公開コードを解決し、結果に応じた遷移先を返す。
// GET /v/{code}
//
//   - タグ未登録: 404（統一エラーフォーマット）
//   - 未所有・匿名: /login?next=/claim/{code} へリダイレクト
//   - 未所有・認証済み: /claim/{code} へリダイレクト
//   - 所有済み: /emergencia/{内部ID} へリダイレクト（呼び出し元を問わない）
func (h *TagHandler) ResolveScan(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	caller := middleware.AccountFromContext(r.Context())

	outcome, err := h.service.Resolve(r.Context(), code, caller)
	if err != nil {
		slog.Error("failed to resolve scan",
			slog.String("public_code", code),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	h.collector.RecordResolve(string(outcome.Kind))

	switch outcome.Kind {
	case model.OutcomeNotFound:
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTagNotFoundError(code))
	case model.OutcomeRequireAuthThenClaim:
		http.Redirect(w, r, "/login?next="+url.QueryEscape(outcome.Continuation), http.StatusFound)
	case model.OutcomeOfferClaim:
		http.Redirect(w, r, "/claim/"+outcome.Code, http.StatusFound)
	case model.OutcomeShowProfile:
		http.Redirect(w, r, "/emergencia/"+strconv.FormatInt(outcome.TagID, 10), http.StatusFound)
	default:
		middleware.WriteInternalServerError(w)
	}
}

// ClaimInfo はクレーム確認画面向けのタグ状態を返す。
// GET /claim/{code}
//
// 匿名の呼び出し元はログインへリダイレクトし、ログイン後にこのパスへ戻す。
// 既に所有済みのタグはプロフィールへリダイレクトする。
func (h *TagHandler) ClaimInfo(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	caller := middleware.AccountFromContext(r.Context())

	if caller == nil {
		http.Redirect(w, r, "/login?next="+url.QueryEscape("/claim/"+code), http.StatusFound)
		return
	}

	outcome, err := h.service.Resolve(r.Context(), code, caller)
	if err != nil {
		slog.Error("failed to resolve claim info",
			slog.String("public_code", code),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	switch outcome.Kind {
	case model.OutcomeNotFound:
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTagNotFoundError(code))
	case model.OutcomeShowProfile:
		http.Redirect(w, r, "/emergencia/"+strconv.FormatInt(outcome.TagID, 10), http.StatusFound)
	case model.OutcomeOfferClaim:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"public_code": outcome.Code,
			"claimable":   true,
		})
	default:
		middleware.WriteInternalServerError(w)
	}
}

// Claim はタグを呼び出し元アカウントに紐付ける。
// POST /claim/{code}（要認証）
//
// 成功と自己所有の再送はどちらも/panelへ303でリダイレクトする（冪等）。
// 他アカウント所有は409の終端エラー、未登録コードは404を返す。
func (h *TagHandler) Claim(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	caller := middleware.AccountFromContext(r.Context())
	if caller == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	start := time.Now()
	result, _, err := h.service.Claim(r.Context(), code, caller.ID)
	if err != nil {
		slog.Error("failed to claim tag",
			slog.String("public_code", code),
			slog.Int64("account_id", caller.ID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	h.collector.RecordClaim(string(result))
	h.collector.RecordClaimLatency(time.Since(start))

	switch result {
	case model.ClaimResultClaimed, model.ClaimResultAlreadyOwnedBySelf:
		http.Redirect(w, r, "/panel", http.StatusSeeOther)
	case model.ClaimResultAlreadyOwnedByOther:
		middleware.WriteErrorResponse(w, http.StatusConflict, model.NewTagAlreadyClaimedError(code))
	case model.ClaimResultNotFound:
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTagNotFoundError(code))
	default:
		middleware.WriteInternalServerError(w)
	}
}

// ListTags は呼び出し元アカウントが所有するタグの一覧を返す。
// GET /api/tags（要認証）
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	caller := middleware.AccountFromContext(r.Context())
	if caller == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	tags, err := h.service.ListByOwner(r.Context(), caller.ID)
	if err != nil {
		slog.Error("failed to list tags",
			slog.Int64("account_id", caller.ID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	responses := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		responses = append(responses, tagResponse{
			ID:         tag.ID,
			PublicCode: tag.PublicCode,
			ClaimedAt:  tag.ClaimedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"tags": responses,
	})
}
