package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/qrtag/internal/model"
	"github.com/hitoshi/qrtag/internal/profile"
)

// --- モック定義 ---

// mockProfileService はProfileServiceInterfaceのモック実装。
type mockProfileService struct {
	assembleFn func(ctx context.Context, tagID int64) (*profile.Profile, error)
	updateFn   func(ctx context.Context, accountID int64, attrs model.ProfileAttributes) error
}

func (m *mockProfileService) Assemble(ctx context.Context, tagID int64) (*profile.Profile, error) {
	if m.assembleFn != nil {
		return m.assembleFn(ctx, tagID)
	}
	return nil, model.NewProfileNotFoundError()
}

func (m *mockProfileService) Update(ctx context.Context, accountID int64, attrs model.ProfileAttributes) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, accountID, attrs)
	}
	return nil
}

// --- GET /emergencia/{id} テスト ---

func TestShowProfile_ReturnsAssembledProfile(t *testing.T) {
	svc := &mockProfileService{
		assembleFn: func(ctx context.Context, tagID int64) (*profile.Profile, error) {
			if tagID != 7 {
				t.Errorf("tagID = %d, want 7", tagID)
			}
			return &profile.Profile{
				TagID:        7,
				DisplayName:  "山田 太郎",
				BloodType:    "AB",
				HasAllergies: true,
				Phone1:       "+81-90-0000-0001",
			}, nil
		},
	}
	h := NewProfileHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/emergencia/7", nil)
	req = withChiURLParam(req, "id", "7")
	w := httptest.NewRecorder()

	h.ShowProfile(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var p profile.Profile
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if p.DisplayName != "山田 太郎" {
		t.Errorf("display_name = %q", p.DisplayName)
	}
	if !p.HasAllergies {
		t.Error("has_allergies should be true")
	}
}

func TestShowProfile_NotFound_Returns404(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{})

	req := httptest.NewRequest(http.MethodGet, "/emergencia/999", nil)
	req = withChiURLParam(req, "id", "999")
	w := httptest.NewRecorder()

	h.ShowProfile(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeProfileNotFound {
		t.Errorf("error code = %q, want %q", body["code"], model.ErrCodeProfileNotFound)
	}
}

// 数値でないIDも404扱い（内部構造を漏らさない）
func TestShowProfile_NonNumericID_Returns404(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{})

	req := httptest.NewRequest(http.MethodGet, "/emergencia/abc", nil)
	req = withChiURLParam(req, "id", "abc")
	w := httptest.NewRecorder()

	h.ShowProfile(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// --- PUT /api/profile テスト ---

func TestUpdateProfile_Success_Returns204(t *testing.T) {
	var savedID int64
	var saved model.ProfileAttributes
	svc := &mockProfileService{
		updateFn: func(ctx context.Context, accountID int64, attrs model.ProfileAttributes) error {
			savedID = accountID
			saved = attrs
			return nil
		},
	}
	h := NewProfileHandler(svc)

	body := `{"display_name": "山田 太郎", "blood_type": "AB", "has_allergies": true}`
	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withAccount(req, &model.Account{ID: 42})
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if savedID != 42 {
		t.Errorf("account ID = %d, want 42", savedID)
	}
	if saved.DisplayName == nil || *saved.DisplayName != "山田 太郎" {
		t.Errorf("display_name = %v", saved.DisplayName)
	}
	if saved.Phone1 != nil {
		t.Error("omitted phone1 should stay nil")
	}
}

func TestUpdateProfile_Anonymous_Returns401(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{})

	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestUpdateProfile_InvalidBody_Returns400(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{})

	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(`{not json`))
	req = withAccount(req, &model.Account{ID: 42})
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
