// internal/repository/postgres/contact_repo.go
package postgres

import (
	"context"
	"fmt"

	"mohandz-service/internal/domain/request"
	xerrors "mohandz-service/internal/pkg/errors"
)

type ContactRepository struct {
	db DBTX
}

func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, m *request.ContactMessage) error {
	if m.Status == "" {
		m.Status = request.StatusNew
	}
	query := `
		INSERT INTO contact_messages (full_name, email, phone, service_type, message, user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		m.FullName, m.Email, m.Phone, m.ServiceType, m.Message, m.UserID, m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	return mapError(err, "create contact message")
}

// List returns contact messages, newest first.
func (r *ContactRepository) List(ctx context.Context, limit, offset int) ([]request.ContactMessage, error) {
	query := `
		SELECT id, full_name, email, phone, service_type, message, user_id, status, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limitOrDefault(limit), offset)
	if err != nil {
		return nil, mapError(err, "list contact messages")
	}
	defer rows.Close()

	out := []request.ContactMessage{}
	for rows.Next() {
		var m request.ContactMessage
		if err := rows.Scan(
			&m.ID, &m.FullName, &m.Email, &m.Phone, &m.ServiceType, &m.Message, &m.UserID, &m.Status, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ContactRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete contact message")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contact_messages`).Scan(&n)
	return n, mapError(err, "count contact messages")
}
