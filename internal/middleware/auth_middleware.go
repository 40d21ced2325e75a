// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"strings"
	"time"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/service/authstate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TabClient is the identity client bound to one request's token.
type TabClient interface {
	authstate.Provider
	Token() string
	RefreshSession(ctx context.Context) (*auth.Session, error)
	Listen(ctx context.Context) error
}

// ClientFactory builds a TabClient for a token, which may be empty.
type ClientFactory func(token string, meta auth.ClientMeta, lang i18n.Lang) TabClient

type SessionMiddleware struct {
	newClient ClientFactory
	profiles  authstate.ProfileStore
	timeout   time.Duration
	logger    *zap.Logger
}

func NewSessionMiddleware(newClient ClientFactory, profiles authstate.ProfileStore, timeout time.Duration, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		newClient: newClient,
		profiles:  profiles,
		timeout:   timeout,
		logger:    logger,
	}
}

// Session attaches a session store to every request and resolves it. When
// resolution outlasts the timeout the request continues with a loading
// snapshot, which guards answer with Wait.
func (m *SessionMiddleware) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		meta := auth.ClientMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
		client := m.newClient(token, meta, Lang(c))

		store := authstate.New(c.Request.Context(), client, m.profiles, m.logger)
		defer store.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			store.Init(c.Request.Context())
		}()

		timer := time.NewTimer(m.timeout)
		select {
		case <-done:
			timer.Stop()
		case <-timer.C:
			m.logger.Warn("session resolution timed out",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", m.timeout),
			)
		}

		c.Set(clientKey, client)
		c.Set(sessionKey, store)
		c.Next()
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// Browsers cannot set headers on websocket upgrades.
	return c.Query("token")
}
