// internal/service/profile/profile.go
package profile

import (
	"context"
	"fmt"
	"strings"

	"mohandz-service/internal/domain/profile"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	Update(ctx context.Context, id uuid.UUID, fullName, phone string) (*profile.Profile, error)
}

// UserNotifier tells open tabs of a user to re-resolve their session.
type UserNotifier interface {
	NotifyUserUpdated(ctx context.Context, id uuid.UUID)
}

type ProfileService struct {
	repo     Repository
	notifier UserNotifier
	logger   *zap.Logger
}

func NewProfileService(repo Repository, notifier UserNotifier, logger *zap.Logger) *ProfileService {
	return &ProfileService{repo: repo, notifier: notifier, logger: logger}
}

func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// UpdateProfile changes name and phone. An empty phone clears it.
func (s *ProfileService) UpdateProfile(ctx context.Context, id uuid.UUID, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	fullName := strings.TrimSpace(req.FullName)
	phone := strings.TrimSpace(req.Phone)
	if fullName == "" {
		return nil, xerrors.Invalid("full_name", "required")
	}
	if phone != "" && !validation.IsValidSaudiPhone(phone) {
		return nil, xerrors.Invalid("phone", "saudi_mobile")
	}

	p, err := s.repo.Update(ctx, id, fullName, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated", zap.String("identity_id", id.String()))
	s.notifier.NotifyUserUpdated(ctx, id)
	return p, nil
}
