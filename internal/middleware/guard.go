// internal/middleware/guard.go
package middleware

import (
	"net/http"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/metrics"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/response"
	"mohandz-service/internal/service/authstate"

	"github.com/gin-gonic/gin"
)

// Decision is what a guard does with a request.
type Decision int

const (
	// Wait: the session is still resolving; nothing is decided yet.
	Wait Decision = iota
	Redirect
	Allow
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// LoginPath is where denied browser requests are sent.
const LoginPath = "/login"

// Decide applies a role gate to a session snapshot. A missing or unknown
// role never passes.
func Decide(snap authstate.Snapshot, required auth.Role) Decision {
	if snap.Loading {
		return Wait
	}
	switch effectiveRole(snap) {
	case auth.RoleAdmin:
		if required == auth.RoleAdmin {
			return Allow
		}
	case auth.RoleClient:
		if required == auth.RoleClient {
			return Allow
		}
	case auth.RoleUnauthenticated:
	}
	return Redirect
}

// effectiveRole folds "no identity" and "no usable role" into
// RoleUnauthenticated.
func effectiveRole(snap authstate.Snapshot) auth.Role {
	if role, ok := snap.Role(); ok {
		return role
	}
	return auth.RoleUnauthenticated
}

type Guard struct {
	metrics metrics.Recorder
}

func NewGuard(rec metrics.Recorder) *Guard {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Guard{metrics: rec}
}

// RequireRole lets a request through only when Decide allows it.
// MUST be used after the session middleware.
func (g *Guard) RequireRole(required auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := CurrentSnapshot(c)
		decision := Decide(snap, required)
		g.metrics.RecordGuardDecision(string(required), decision.String())

		switch decision {
		case Allow:
			c.Next()
		case Wait:
			wait(c)
		case Redirect:
			deny(c, snap)
		}
	}
}

// AdminOnly guards the admin dashboard.
func (g *Guard) AdminOnly() gin.HandlerFunc {
	return g.RequireRole(auth.RoleAdmin)
}

// ClientOnly guards the client dashboard.
func (g *Guard) ClientOnly() gin.HandlerFunc {
	return g.RequireRole(auth.RoleClient)
}

// RequireSession admits any signed-in identity, with or without a role.
func (g *Guard) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := CurrentSnapshot(c)
		switch {
		case snap.Loading:
			g.metrics.RecordGuardDecision("any", Wait.String())
			wait(c)
		case snap.Identity == nil:
			g.metrics.RecordGuardDecision("any", Redirect.String())
			deny(c, snap)
		default:
			g.metrics.RecordGuardDecision("any", Allow.String())
			c.Next()
		}
	}
}

func wait(c *gin.Context) {
	c.Header("Retry-After", "1")
	response.Error(c, http.StatusServiceUnavailable, i18n.T(Lang(c), i18n.SessionResolving), nil)
}

// deny emits one notification and answers 302 to browsers, 401 to
// anonymous API callers and 403 to signed-in callers without the role.
func deny(c *gin.Context, snap authstate.Snapshot) {
	lang := Lang(c)
	title, detail, status := i18n.LoginRequired, i18n.LoginRequiredDetail, http.StatusUnauthorized
	if snap.Identity != nil {
		title, detail, status = i18n.Unauthorized, i18n.UnauthorizedDetail, http.StatusForbidden
	}

	response.Notifications(c).Notify(notify.Event{
		Kind:    notify.KindError,
		Message: i18n.T(lang, title),
		Detail:  i18n.T(lang, detail),
	})

	if wantsHTML(c) {
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
		return
	}
	response.Error(c, status, i18n.T(lang, title), nil)
}

func wantsHTML(c *gin.Context) bool {
	if c.GetHeader("Accept") == "" {
		return false
	}
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}
