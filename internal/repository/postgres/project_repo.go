// internal/repository/postgres/project_repo.go
package postgres

import (
	"context"
	"fmt"

	"mohandz-service/internal/domain/project"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
)

type ProjectRepository struct {
	db DBTX
}

func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	if p.Status == "" {
		p.Status = project.StatusNotStarted
	}
	query := `
		INSERT INTO projects (title, description, status, client_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, p.Title, p.Description, p.Status, p.ClientID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "create project")
}

// ListWithClient returns every project joined with its client's name,
// newest first.
func (r *ProjectRepository) ListWithClient(ctx context.Context) ([]project.Project, error) {
	query := `
		SELECT pr.id, pr.title, COALESCE(pr.description, ''), pr.status, pr.client_id,
		       pf.full_name, pr.created_at, pr.updated_at
		FROM projects pr
		LEFT JOIN profiles pf ON pf.id = pr.client_id
		ORDER BY pr.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, "list projects")
	}
	defer rows.Close()

	out := []project.Project{}
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Status, &p.ClientID, &p.ClientName, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByClient returns the projects of one client, newest first.
func (r *ProjectRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]project.Project, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), status, client_id, created_at, updated_at
		FROM projects
		WHERE client_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, mapError(err, "list client projects")
	}
	defer rows.Close()

	out := []project.Project{}
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Status, &p.ClientID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id int64, status project.Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE projects SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return mapError(err, "update project status")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// CountByStatus returns project counts keyed by status.
func (r *ProjectRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countGrouped(ctx, r.db, `SELECT status, COUNT(*) FROM projects GROUP BY status`, "count projects")
}
