// internal/repository/postgres/request_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"mohandz-service/internal/domain/request"
	xerrors "mohandz-service/internal/pkg/errors"
)

type RequestRepository struct {
	db DBTX
}

func NewRequestRepository(db DBTX) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, full_name, email, phone, details, service_title, user_id,
		       COALESCE(file_urls, '{}'), status, created_at, updated_at`

// Create inserts a service request; status defaults to new.
func (r *RequestRepository) Create(ctx context.Context, req *request.ServiceRequest) error {
	if req.Status == "" {
		req.Status = request.StatusNew
	}
	query := `
		INSERT INTO service_requests (full_name, email, phone, details, service_title, user_id, file_urls, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	var fileURLs []string
	if len(req.FileURLs) > 0 {
		fileURLs = req.FileURLs
	}
	err := r.db.QueryRow(ctx, query,
		req.FullName, req.Email, req.Phone, req.Details, req.ServiceTitle, req.UserID, fileURLs, req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	return mapError(err, "create service request")
}

// List returns requests matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, f request.ListFilter) ([]request.ServiceRequest, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM service_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limitOrDefault(f.Limit), f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list service requests")
	}
	defer rows.Close()

	out := []request.ServiceRequest{}
	for rows.Next() {
		var sr request.ServiceRequest
		if err := rows.Scan(
			&sr.ID, &sr.FullName, &sr.Email, &sr.Phone, &sr.Details, &sr.ServiceTitle, &sr.UserID,
			&sr.FileURLs, &sr.Status, &sr.CreatedAt, &sr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// UpdateStatus moves a request to status.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id int64, status request.Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE service_requests SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return mapError(err, "update request status")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete request")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// CountByStatus returns request counts keyed by status.
func (r *RequestRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countGrouped(ctx, r.db, `SELECT status, COUNT(*) FROM service_requests GROUP BY status`, "count requests")
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
