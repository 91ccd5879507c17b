package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/qrtag/internal/emergency"
)

// EmergencyHandler は緊急通報番号検索のHTTPハンドラー。
type EmergencyHandler struct {
	directory *emergency.Directory
}

// NewEmergencyHandler はEmergencyHandlerを生成する。
func NewEmergencyHandler(directory *emergency.Directory) *EmergencyHandler {
	return &EmergencyHandler{directory: directory}
}

// LookupNumbers は国・地域に応じた緊急通報番号を返す。
// GET /api/emergency-numbers?country=AR&region=Mendoza
//
// 救助者が参照するため認証は不要。未知の国・地域はデフォルトにフォールバックする。
func (h *EmergencyHandler) LookupNumbers(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	region := r.URL.Query().Get("region")

	numbers := h.directory.Lookup(country, region)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(numbers)
}
