// Package sessiontest provides a canned identity client for handler tests.
package sessiontest

import (
	"context"
	"sync"
	"time"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"
	"mohandz-service/internal/middleware"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tab is a TabClient whose session never changes unless the caller signs
// out.
type Tab struct {
	mu       sync.Mutex
	session  *auth.Session
	handlers []auth.StateHandler
}

// Anonymous returns a Tab with no session.
func Anonymous() *Tab { return &Tab{} }

// SignedIn returns a Tab holding a session for id.
func SignedIn(id uuid.UUID, email string) *Tab {
	return &Tab{session: &auth.Session{
		AccessToken: "test-token",
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        &auth.User{ID: id, Email: email},
	}}
}

func (t *Tab) GetSession(context.Context) (*auth.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session, nil
}

func (t *Tab) OnAuthStateChange(h auth.StateHandler) func() {
	t.mu.Lock()
	t.handlers = append(t.handlers, h)
	t.mu.Unlock()
	return func() {}
}

func (t *Tab) SignInWithPassword(context.Context, string, string) (*auth.Session, error) {
	return nil, xerrors.ErrInvalidCredentials
}

func (t *Tab) SignUp(context.Context, string, string, auth.SignUpOptions) (*auth.User, error) {
	return nil, xerrors.ErrDuplicateEntry
}

func (t *Tab) SignOut(context.Context) error {
	t.mu.Lock()
	t.session = nil
	hs := append([]auth.StateHandler(nil), t.handlers...)
	t.mu.Unlock()
	for _, h := range hs {
		h(auth.EventSignedOut, nil)
	}
	return nil
}

func (t *Tab) ResetPasswordForEmail(context.Context, string, string) error { return nil }
func (t *Tab) UpdateUser(context.Context, string) error                    { return nil }
func (t *Tab) Listen(context.Context) error                                { return nil }

func (t *Tab) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ""
	}
	return t.session.AccessToken
}

func (t *Tab) RefreshSession(ctx context.Context) (*auth.Session, error) {
	sess, _ := t.GetSession(ctx)
	if sess == nil {
		return nil, xerrors.ErrSessionExpired
	}
	return sess, nil
}

// Profiles is an in-memory authstate.ProfileStore.
type Profiles map[uuid.UUID]*profile.Profile

func (p Profiles) GetProfile(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	if pr, ok := p[id]; ok {
		return pr, nil
	}
	return nil, xerrors.ErrNotFound
}

// Middleware resolves every request against tab.
func Middleware(tab *Tab, profiles Profiles) gin.HandlerFunc {
	factory := func(string, auth.ClientMeta, i18n.Lang) middleware.TabClient { return tab }
	return middleware.NewSessionMiddleware(factory, profiles, time.Second, zap.NewNop()).Session()
}

// Router returns a test-mode engine with language and session middleware
// installed.
func Router(tab *Tab, profiles Profiles) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.LanguageMiddleware(), Middleware(tab, profiles))
	return r
}
