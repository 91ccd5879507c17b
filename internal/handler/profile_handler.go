package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/qrtag/internal/middleware"
	"github.com/hitoshi/qrtag/internal/model"
	"github.com/hitoshi/qrtag/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Assemble(ctx context.Context, tagID int64) (*profile.Profile, error)
	Update(ctx context.Context, accountID int64, attrs model.ProfileAttributes) error
}

// ProfileHandler は緊急連絡先プロフィールのHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// ShowProfile はタグの内部IDからプロフィールを返す。
// GET /emergencia/{id}
//
// 救助者向けの公開エンドポイントのため認証は不要。
// タグが存在しない場合と未アクティベートの場合はどちらも404になる。
func (h *ProfileHandler) ShowProfile(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProfileNotFoundError())
		return
	}

	p, err := h.service.Assemble(r.Context(), id)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, http.StatusNotFound, apiErr)
			return
		}
		slog.Error("failed to assemble profile",
			slog.Int64("tag_id", id),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// updateProfileRequest はプロフィール更新のリクエストボディ。
// 省略されたフィールド（null）は「未設定にする」を意味する。
type updateProfileRequest struct {
	DisplayName     *string `json:"display_name"`
	BloodType       *string `json:"blood_type"`
	HasAllergies    *bool   `json:"has_allergies"`
	Phone1          *string `json:"phone1"`
	Phone2          *string `json:"phone2"`
	InstructionsURL *string `json:"instructions_url"`
}

// UpdateProfile は呼び出し元アカウントのプロフィール属性を更新する。
// PUT /api/profile（要認証）
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller := middleware.AccountFromContext(r.Context())
	if caller == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	attrs := model.ProfileAttributes{
		DisplayName:     req.DisplayName,
		BloodType:       req.BloodType,
		HasAllergies:    req.HasAllergies,
		Phone1:          req.Phone1,
		Phone2:          req.Phone2,
		InstructionsURL: req.InstructionsURL,
	}
	if err := h.service.Update(r.Context(), caller.ID, attrs); err != nil {
		slog.Error("failed to update profile",
			slog.Int64("account_id", caller.ID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
