package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/qrtag/internal/middleware"
	"github.com/hitoshi/qrtag/internal/model"
)

// AccountHandler はアカウント情報のHTTPハンドラー。
type AccountHandler struct{}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// Me は現在のログインアカウント情報を返す。
// GET /api/me（要認証）
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromContext(r.Context())
	if account == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":           account.ID,
		"email":        account.Email,
		"display_name": account.DisplayName,
	})
}
