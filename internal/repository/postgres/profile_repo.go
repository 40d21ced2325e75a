// internal/repository/postgres/profile_repo.go
package postgres

import (
	"context"
	"fmt"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) WithConn(conn DBTX) *ProfileRepository {
	return &ProfileRepository{db: conn}
}

// GetProfile returns xerrors.ErrNotFound when the identity has no profile row.
func (r *ProfileRepository) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	query := `
		SELECT id, role, COALESCE(full_name, ''), COALESCE(phone, ''), created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	var p profile.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Role, &p.FullName, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "get profile")
	}
	return &p, nil
}

// Create inserts the profile row for a new identity.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (id, role, full_name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, p.ID, p.Role, p.FullName, nullIfEmpty(p.Phone)).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "create profile")
}

// Update changes the editable fields of a profile.
func (r *ProfileRepository) Update(ctx context.Context, id uuid.UUID, fullName, phone string) (*profile.Profile, error) {
	query := `
		UPDATE profiles SET full_name = $1, phone = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, role, COALESCE(full_name, ''), COALESCE(phone, ''), created_at, updated_at
	`
	var p profile.Profile
	err := r.db.QueryRow(ctx, query, fullName, nullIfEmpty(phone), id).Scan(
		&p.ID, &p.Role, &p.FullName, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "update profile")
	}
	return &p, nil
}

// UpdateRole sets the role of a profile.
func (r *ProfileRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	if err != nil {
		return mapError(err, "update role")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ChangeRole sets the role of a profile and returns the role it had. The
// target and every admin row stay locked until commit, so two demotions
// racing each other cannot leave the system without an admin. Demoting the
// last admin fails with xerrors.ErrConflict.
func (r *ProfileRepository) ChangeRole(ctx context.Context, id uuid.UUID, role string) (string, error) {
	var from string
	err := NewDB(r.db).WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, role FROM profiles
			WHERE id = $1 OR role = $2
			ORDER BY id
			FOR UPDATE
		`, id, string(auth.RoleAdmin))
		if err != nil {
			return mapError(err, "lock roles")
		}

		found, admins := false, 0
		for rows.Next() {
			var rowID uuid.UUID
			var rowRole string
			if err := rows.Scan(&rowID, &rowRole); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan role: %w", err)
			}
			if rowRole == string(auth.RoleAdmin) {
				admins++
			}
			if rowID == id {
				found, from = true, rowRole
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return mapError(err, "lock roles")
		}

		switch {
		case !found:
			return xerrors.ErrNotFound
		case from == role:
			return nil
		case from == string(auth.RoleAdmin) && admins <= 1:
			return fmt.Errorf("cannot demote the last admin: %w", xerrors.ErrConflict)
		}

		_, err = tx.Exec(ctx, `UPDATE profiles SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
		return mapError(err, "update role")
	})
	return from, err
}

// ListUsers joins profiles with their identities, newest first.
func (r *ProfileRepository) ListUsers(ctx context.Context, limit, offset int) ([]profile.UserSummary, error) {
	query := `
		SELECT p.id, i.email, COALESCE(p.full_name, ''), COALESCE(p.phone, ''), p.role,
		       i.status, i.last_login, p.created_at
		FROM profiles p
		JOIN auth_identities i ON i.id = p.id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError(err, "list users")
	}
	defer rows.Close()

	users := []profile.UserSummary{}
	for rows.Next() {
		var u profile.UserSummary
		if err := rows.Scan(
			&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Role, &u.Status, &u.LastLogin, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountByRole returns profile counts keyed by role.
func (r *ProfileRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	return countGrouped(ctx, r.db, `SELECT role, COUNT(*) FROM profiles GROUP BY role`, "count profiles")
}

// AnyWithRole reports whether at least one profile carries role.
func (r *ProfileRepository) AnyWithRole(ctx context.Context, role string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE role = $1)`, role).Scan(&exists)
	return exists, mapError(err, "check role")
}

func countGrouped(ctx context.Context, db DBTX, query, op string) (map[string]int, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, op)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}
