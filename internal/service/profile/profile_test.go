package profile

import (
	"context"
	"testing"

	"mohandz-service/internal/domain/profile"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	updates int
}

func (m *memRepo) GetProfile(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	return &profile.Profile{ID: id, Role: "client"}, nil
}

func (m *memRepo) Update(_ context.Context, id uuid.UUID, fullName, phone string) (*profile.Profile, error) {
	m.updates++
	return &profile.Profile{ID: id, Role: "client", FullName: fullName, Phone: phone}, nil
}

type notifier struct{ ids []uuid.UUID }

func (n *notifier) NotifyUserUpdated(_ context.Context, id uuid.UUID) { n.ids = append(n.ids, id) }

func TestUpdateProfile(t *testing.T) {
	repo, n := &memRepo{}, &notifier{}
	svc := NewProfileService(repo, n, zap.NewNop())
	id := uuid.New()

	p, err := svc.UpdateProfile(context.Background(), id, &profile.UpdateProfileRequest{FullName: " Ali ", Phone: "0512345678"})
	require.NoError(t, err)
	assert.Equal(t, "Ali", p.FullName)
	assert.Equal(t, []uuid.UUID{id}, n.ids)

	_, err = svc.UpdateProfile(context.Background(), id, &profile.UpdateProfileRequest{FullName: "Ali", Phone: "0712345678"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.UpdateProfile(context.Background(), id, &profile.UpdateProfileRequest{FullName: "  "})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	assert.Equal(t, 1, repo.updates)
}
