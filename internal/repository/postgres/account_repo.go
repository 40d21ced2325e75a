// internal/repository/postgres/account_repo.go
package postgres

import (
	"context"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"

	"github.com/jackc/pgx/v5"
)

// AccountRepository writes an identity and its profile together.
type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount inserts identity then a profile with the same id. Either
// both rows exist afterwards or neither does.
func (r *AccountRepository) CreateAccount(ctx context.Context, identity *auth.Identity, p *profile.Profile) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := NewAuthRepository(tx).CreateIdentity(ctx, identity); err != nil {
			return err
		}
		p.ID = identity.ID
		return NewProfileRepository(tx).Create(ctx, p)
	})
}
