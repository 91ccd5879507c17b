// Package profile は緊急連絡先プロフィールの組み立てと更新を提供する。
package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/qrtag/internal/model"
	"github.com/hitoshi/qrtag/internal/repository"
	"github.com/hitoshi/qrtag/internal/security"
)

// Profile は救助者向けに表示する組み立て済みプロフィール。
// 任意項目は表示用のフォールバック値に解決済み。
type Profile struct {
	TagID           int64  `json:"tag_id"`
	DisplayName     string `json:"display_name"`
	BloodType       string `json:"blood_type"`
	HasAllergies    bool   `json:"has_allergies"`
	Phone1          string `json:"phone1"`
	Phone2          string `json:"phone2"`
	InstructionsURL string `json:"instructions_url"`
}

// Service はプロフィールの組み立てと更新を提供する。
type Service struct {
	tags      repository.TagRepository
	accounts  repository.AccountRepository
	sanitizer *security.Sanitizer
}

// NewService はServiceを生成する。
func NewService(
	tags repository.TagRepository,
	accounts repository.AccountRepository,
	sanitizer *security.Sanitizer,
) *Service {
	return &Service{
		tags:      tags,
		accounts:  accounts,
		sanitizer: sanitizer,
	}
}

// Assemble はタグの内部IDから表示用プロフィールを組み立てる。
// タグが存在しない場合と未アクティベートの場合はどちらも
// PROFILE_NOT_FOUNDを返す（外部には区別を見せない）。
//
// フォールバック規則:
//   - 表示名が未設定なら所有者のメールアドレス
//   - アレルギー有無が未設定なら false（なし扱い）
//   - その他の未設定テキストは空文字
func (s *Service) Assemble(ctx context.Context, tagID int64) (*Profile, error) {
	tag, err := s.tags.FindByID(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}
	if tag == nil || !tag.IsOwned() {
		return nil, model.NewProfileNotFoundError()
	}

	account, err := s.accounts.FindByID(ctx, *tag.OwnerAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find owner account: %w", err)
	}
	if account == nil {
		// 所有者が設定されたタグの所有アカウントは必ず存在するはず
		slog.Error("owned tag references missing account",
			slog.Int64("tag_id", tag.ID),
			slog.Int64("account_id", *tag.OwnerAccountID),
		)
		return nil, model.NewProfileNotFoundError()
	}

	p := &Profile{
		TagID:        tag.ID,
		DisplayName:  account.Email,
		HasAllergies: false,
	}
	if account.DisplayName != nil && *account.DisplayName != "" {
		p.DisplayName = *account.DisplayName
	}
	if account.BloodType != nil {
		p.BloodType = *account.BloodType
	}
	if account.HasAllergies != nil {
		p.HasAllergies = *account.HasAllergies
	}
	if account.Phone1 != nil {
		p.Phone1 = *account.Phone1
	}
	if account.Phone2 != nil {
		p.Phone2 = *account.Phone2
	}
	if account.InstructionsURL != nil {
		p.InstructionsURL = *account.InstructionsURL
	}
	return p, nil
}

// Update はアカウントのプロフィール属性を更新する。
// テキスト項目は保存前にHTMLを除去する。
func (s *Service) Update(ctx context.Context, accountID int64, attrs model.ProfileAttributes) error {
	attrs.DisplayName = s.sanitizer.SanitizeOptional(attrs.DisplayName)
	attrs.BloodType = s.sanitizer.SanitizeOptional(attrs.BloodType)
	attrs.Phone1 = s.sanitizer.SanitizeOptional(attrs.Phone1)
	attrs.Phone2 = s.sanitizer.SanitizeOptional(attrs.Phone2)
	attrs.InstructionsURL = s.sanitizer.SanitizeOptional(attrs.InstructionsURL)

	if err := s.accounts.UpdateProfile(ctx, accountID, attrs); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile updated",
		slog.Int64("account_id", accountID),
	)
	return nil
}
