package request

import (
	"context"
	"testing"

	"mohandz-service/internal/domain/request"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRequests struct {
	lastFilter request.ListFilter
	statuses   map[int64]request.Status
}

func (m *memRequests) List(_ context.Context, f request.ListFilter) ([]request.ServiceRequest, error) {
	m.lastFilter = f
	return []request.ServiceRequest{}, nil
}

func (m *memRequests) UpdateStatus(_ context.Context, id int64, st request.Status) error {
	if _, ok := m.statuses[id]; !ok {
		return xerrors.ErrNotFound
	}
	m.statuses[id] = st
	return nil
}

func (m *memRequests) Delete(_ context.Context, id int64) error {
	if _, ok := m.statuses[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(m.statuses, id)
	return nil
}

type memContacts struct{}

func (memContacts) List(context.Context, int, int) ([]request.ContactMessage, error) { return nil, nil }
func (memContacts) Delete(context.Context, int64) error                              { return xerrors.ErrNotFound }

func TestListRequests(t *testing.T) {
	repo := &memRequests{}
	svc := NewRequestService(repo, memContacts{}, zap.NewNop())

	_, err := svc.ListRequests(context.Background(), "in_progress", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, request.StatusInProgress, repo.lastFilter.Status)

	_, err = svc.ListRequests(context.Background(), "archived", 20, 0)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	id := uuid.New()
	_, err = svc.ListUserRequests(context.Background(), id, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.UserID)
	assert.Equal(t, id, *repo.lastFilter.UserID)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := &memRequests{statuses: map[int64]request.Status{1: request.StatusNew}}
	svc := NewRequestService(repo, memContacts{}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.UpdateRequestStatus(ctx, 1, "completed"))
	assert.Equal(t, request.StatusCompleted, repo.statuses[1])
	assert.ErrorIs(t, svc.UpdateRequestStatus(ctx, 1, "done"), xerrors.ErrInvalidInput)

	require.NoError(t, svc.DeleteRequest(ctx, 1))
	assert.ErrorIs(t, svc.DeleteRequest(ctx, 1), xerrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteContact(ctx, 5), xerrors.ErrNotFound)
}
