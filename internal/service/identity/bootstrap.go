// internal/service/identity/bootstrap.go
package identity

import (
	"context"
	"errors"
	"fmt"

	"mohandz-service/internal/domain/auth"
	xerrors "mohandz-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// EnsureAdminExists creates an admin account if none exists (called on
// startup). An existing identity with the same email is promoted instead.
func (s *Service) EnsureAdminExists(ctx context.Context, emailAddr, password, fullName string) error {
	exists, err := s.roles.AnyWithRole(ctx, string(auth.RoleAdmin))
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		s.logger.Info("admin already exists, skipping creation")
		return nil
	}

	if emailAddr == "" || password == "" {
		s.logger.Warn("no admin account and ADMIN_EMAIL/ADMIN_PASSWORD not set")
		return nil
	}

	identity, err := s.identities.FindIdentityByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		if err := s.roles.UpdateRole(ctx, identity.ID, string(auth.RoleAdmin)); err != nil {
			return fmt.Errorf("failed to promote %s: %w", emailAddr, err)
		}
		s.logger.Info("existing identity promoted to admin", zap.String("identity_id", identity.ID.String()))
		s.NotifyUserUpdated(ctx, identity.ID)
		return nil
	case !errors.Is(err, xerrors.ErrNotFound):
		return fmt.Errorf("failed to look up admin email: %w", err)
	}

	user, err := s.SignUp(ctx, emailAddr, password, auth.SignUpOptions{FullName: fullName, Role: auth.RoleAdmin})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("admin created successfully",
		zap.String("email", emailAddr),
		zap.String("identity_id", user.ID.String()),
	)
	return nil
}
