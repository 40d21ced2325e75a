// internal/service/project/project.go
package project

import (
	"context"
	"fmt"
	"strings"

	"mohandz-service/internal/domain/project"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p *project.Project) error
	ListWithClient(ctx context.Context) ([]project.Project, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]project.Project, error)
	UpdateStatus(ctx context.Context, id int64, status project.Status) error
}

type ProjectService struct {
	repo   Repository
	logger *zap.Logger
}

func NewProjectService(repo Repository, logger *zap.Logger) *ProjectService {
	return &ProjectService{repo: repo, logger: logger}
}

// CreateProject creates a project, optionally assigned to a client. Status
// defaults to not_started.
func (s *ProjectService) CreateProject(ctx context.Context, req *project.CreateProjectRequest) (*project.Project, error) {
	p := &project.Project{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      project.StatusNotStarted,
	}
	if p.Title == "" {
		return nil, xerrors.Invalid("title", "required")
	}
	if req.Status != "" {
		st, ok := project.ParseStatus(req.Status)
		if !ok {
			return nil, xerrors.Invalid("status", "oneof")
		}
		p.Status = st
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			return nil, xerrors.Invalid("client_id", "uuid")
		}
		p.ClientID = &id
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create project", zap.Error(err))
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("project created", zap.Int64("project_id", p.ID), zap.String("status", string(p.Status)))
	return p, nil
}

// ListProjects returns every project with its client name, newest first.
func (s *ProjectService) ListProjects(ctx context.Context) ([]project.Project, error) {
	return s.repo.ListWithClient(ctx)
}

func (s *ProjectService) ListClientProjects(ctx context.Context, clientID uuid.UUID) ([]project.Project, error) {
	return s.repo.ListByClient(ctx, clientID)
}

// UpdateStatus moves a project to any known status.
func (s *ProjectService) UpdateStatus(ctx context.Context, id int64, status string) error {
	st, ok := project.ParseStatus(status)
	if !ok {
		return xerrors.Invalid("status", "oneof")
	}
	if err := s.repo.UpdateStatus(ctx, id, st); err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	s.logger.Info("project status updated", zap.Int64("project_id", id), zap.String("status", status))
	return nil
}
