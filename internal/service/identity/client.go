// internal/service/identity/client.go
package identity

import (
	"context"
	"errors"
	"sync"

	"mohandz-service/internal/domain/auth"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"

	"go.uber.org/zap"
)

// Client is the provider as seen by one browser tab: it holds that tab's
// token and delivers auth state changes to subscribed handlers one at a
// time, in order.
type Client struct {
	svc  *Service
	meta auth.ClientMeta
	lang i18n.Lang

	mu       sync.Mutex
	token    string
	handlers map[int]auth.StateHandler
	nextID   int

	dispatchMu sync.Mutex
}

// NewClient binds a client to token, which may be empty.
func (s *Service) NewClient(token string, meta auth.ClientMeta, lang i18n.Lang) *Client {
	return &Client{
		svc:      s,
		meta:     meta,
		lang:     lang,
		token:    token,
		handlers: make(map[int]auth.StateHandler),
	}
}

// Token returns the token the client currently holds.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// OnAuthStateChange registers handler and returns its unsubscribe func.
func (c *Client) OnAuthStateChange(handler auth.StateHandler) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = handler
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

func (c *Client) dispatch(event auth.EventType, sess *auth.Session) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	handlers := make([]auth.StateHandler, 0, len(c.handlers))
	for i := 0; i < c.nextID; i++ {
		if h, ok := c.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(event, sess)
	}
}

// GetSession returns the live session for the held token, or nil when
// there is none. A dead token is dropped.
func (c *Client) GetSession(ctx context.Context) (*auth.Session, error) {
	token := c.Token()
	if token == "" {
		return nil, nil
	}
	sess, _, err := c.svc.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, xerrors.ErrSessionExpired) {
			c.setToken("")
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// SignInWithPassword opens a session and emits SIGNED_IN.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	sess, err := c.svc.SignIn(ctx, email, password, c.meta)
	if err != nil {
		return nil, err
	}
	c.setToken(sess.AccessToken)
	c.dispatch(auth.EventSignedIn, sess)
	return sess, nil
}

// SignUp registers an identity without signing in.
func (c *Client) SignUp(ctx context.Context, email, password string, opts auth.SignUpOptions) (*auth.User, error) {
	return c.svc.SignUp(ctx, email, password, opts)
}

// SignOut ends the held session and emits SIGNED_OUT.
func (c *Client) SignOut(ctx context.Context) error {
	if token := c.Token(); token != "" {
		if err := c.svc.SignOut(ctx, token); err != nil {
			return err
		}
	}
	c.setToken("")
	c.dispatch(auth.EventSignedOut, nil)
	return nil
}

// RefreshSession rotates the held token and emits TOKEN_REFRESHED.
func (c *Client) RefreshSession(ctx context.Context) (*auth.Session, error) {
	sess, err := c.svc.Refresh(ctx, c.Token(), c.meta)
	if err != nil {
		return nil, err
	}
	c.setToken(sess.AccessToken)
	c.dispatch(auth.EventTokenRefreshed, sess)
	return sess, nil
}

// ResetPasswordForEmail sends a recovery link pointing at redirectTo.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return c.svc.RequestRecovery(ctx, email, redirectTo, c.lang)
}

// UpdateUser changes the password using the held access or recovery token
// and emits USER_UPDATED.
func (c *Client) UpdateUser(ctx context.Context, password string) error {
	if err := c.svc.UpdatePassword(ctx, c.Token(), password); err != nil {
		return err
	}
	sess, err := c.GetSession(ctx)
	if err != nil {
		sess = nil
	}
	c.dispatch(auth.EventUserUpdated, sess)
	return nil
}

// Listen relays events published for the signed-in identity by other
// clients until ctx ends. It returns at once for anonymous clients.
func (c *Client) Listen(ctx context.Context) error {
	token := c.Token()
	if token == "" {
		return nil
	}
	sess, claims, err := c.svc.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, xerrors.ErrSessionExpired) {
			return nil
		}
		return err
	}
	ownJTI := claims.ID

	events, closeFn, err := c.svc.Subscribe(ctx, sess.User.ID)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			c.svc.logger.Debug("auth event subscription close", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if done := c.handleRemote(ctx, ev, ownJTI); done {
				return nil
			}
		}
	}
}

// handleRemote applies one remote event and reports whether this client is
// now signed out.
func (c *Client) handleRemote(ctx context.Context, ev auth.Event, ownJTI string) bool {
	switch ev.Type {
	case auth.EventSignedOut:
		if ev.SessionID != "" && ev.SessionID != ownJTI {
			return false
		}
		c.setToken("")
		c.dispatch(auth.EventSignedOut, nil)
		return true
	case auth.EventUserUpdated:
		sess, err := c.GetSession(ctx)
		if err != nil {
			c.svc.logger.Warn("session refresh after user update failed", zap.Error(err))
			return false
		}
		if sess == nil {
			c.dispatch(auth.EventSignedOut, nil)
			return true
		}
		c.dispatch(auth.EventUserUpdated, sess)
	}
	return false
}
