// internal/service/admin/admin.go
package admin

import (
	"context"
	"fmt"

	"mohandz-service/internal/domain/admin"
	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"
	"mohandz-service/internal/domain/project"
	"mohandz-service/internal/domain/request"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ProfileRepository interface {
	ListUsers(ctx context.Context, limit, offset int) ([]profile.UserSummary, error)
	// ChangeRole returns the previous role. It must refuse, atomically, to
	// demote the last admin.
	ChangeRole(ctx context.Context, id uuid.UUID, role string) (string, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type ContactCounter interface {
	Count(ctx context.Context) (int, error)
}

// UserNotifier tells open tabs of a user to re-resolve their session.
type UserNotifier interface {
	NotifyUserUpdated(ctx context.Context, id uuid.UUID)
}

// ConnectionCounter reports open realtime connections.
type ConnectionCounter interface {
	ClientCount() int
}

type Deps struct {
	Profiles    ProfileRepository
	Requests    StatusCounter
	Projects    StatusCounter
	Contacts    ContactCounter
	Notifier    UserNotifier
	Connections ConnectionCounter
	Logger      *zap.Logger
}

type AdminService struct {
	profiles    ProfileRepository
	requests    StatusCounter
	projects    StatusCounter
	contacts    ContactCounter
	notifier    UserNotifier
	connections ConnectionCounter
	logger      *zap.Logger
}

func NewAdminService(d Deps) *AdminService {
	return &AdminService{
		profiles:    d.Profiles,
		requests:    d.Requests,
		projects:    d.Projects,
		contacts:    d.Contacts,
		notifier:    d.Notifier,
		connections: d.Connections,
		logger:      d.Logger,
	}
}

// Overview gathers the dashboard counts. Every known status appears, with
// zero when nothing is in it.
func (s *AdminService) Overview(ctx context.Context) (*admin.Overview, error) {
	var (
		roles, requests, projects map[string]int
		contacts                  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		roles, err = s.profiles.CountByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		requests, err = s.requests.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		projects, err = s.projects.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		contacts, err = s.contacts.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load overview: %w", err)
	}

	out := &admin.Overview{
		Admins:           roles[string(auth.RoleAdmin)],
		RequestsByStatus: map[string]int{},
		ContactMessages:  contacts,
		ProjectsByStatus: map[string]int{},
	}
	for _, n := range roles {
		out.Users += n
	}
	for _, st := range []request.Status{request.StatusNew, request.StatusInProgress, request.StatusCompleted, request.StatusCancelled} {
		out.RequestsByStatus[string(st)] = requests[string(st)]
	}
	for _, st := range project.Statuses {
		out.ProjectsByStatus[string(st)] = projects[string(st)]
	}
	if s.connections != nil {
		out.RealtimeClients = s.connections.ClientCount()
	}
	return out, nil
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]profile.UserSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.profiles.ListUsers(ctx, limit, offset)
}

// ChangeRole sets a user's role and tells their open tabs. The last admin
// cannot be demoted.
func (s *AdminService) ChangeRole(ctx context.Context, id uuid.UUID, role string) error {
	r, ok := auth.ParseRole(role)
	if !ok {
		return xerrors.Invalid("role", "oneof")
	}

	from, err := s.profiles.ChangeRole(ctx, id, string(r))
	if err != nil {
		return fmt.Errorf("failed to change role: %w", err)
	}
	if from == string(r) {
		return nil
	}

	s.logger.Info("user role changed",
		zap.String("identity_id", id.String()),
		zap.String("from", from),
		zap.String("to", string(r)),
	)
	s.notifier.NotifyUserUpdated(ctx, id)
	return nil
}
