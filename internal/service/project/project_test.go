package project

import (
	"context"
	"testing"

	"mohandz-service/internal/domain/project"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	created  []*project.Project
	statuses map[int64]project.Status
}

func (m *memRepo) Create(_ context.Context, p *project.Project) error {
	p.ID = int64(len(m.created) + 1)
	m.created = append(m.created, p)
	return nil
}

func (m *memRepo) ListWithClient(context.Context) ([]project.Project, error) { return nil, nil }

func (m *memRepo) ListByClient(context.Context, uuid.UUID) ([]project.Project, error) {
	return nil, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id int64, st project.Status) error {
	if _, ok := m.statuses[id]; !ok {
		return xerrors.ErrNotFound
	}
	m.statuses[id] = st
	return nil
}

func TestCreateProject(t *testing.T) {
	repo := &memRepo{}
	svc := NewProjectService(repo, zap.NewNop())
	clientID := uuid.New()

	p, err := svc.CreateProject(context.Background(), &project.CreateProjectRequest{
		Title:    "  Villa extension ",
		ClientID: clientID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Villa extension", p.Title)
	assert.Equal(t, project.StatusNotStarted, p.Status)
	require.NotNil(t, p.ClientID)
	assert.Equal(t, clientID, *p.ClientID)

	_, err = svc.CreateProject(context.Background(), &project.CreateProjectRequest{Title: "x", Status: "paused"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.CreateProject(context.Background(), &project.CreateProjectRequest{Title: "x", ClientID: "nope"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Len(t, repo.created, 1)
}

func TestUpdateStatus(t *testing.T) {
	repo := &memRepo{statuses: map[int64]project.Status{1: project.StatusNotStarted}}
	svc := NewProjectService(repo, zap.NewNop())

	require.NoError(t, svc.UpdateStatus(context.Background(), 1, "on_hold"))
	assert.Equal(t, project.StatusOnHold, repo.statuses[1])

	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), 1, "done"), xerrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), 9, "completed"), xerrors.ErrNotFound)
}
