package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mohandz-service/internal/middleware"
	"mohandz-service/internal/middleware/sessiontest"
	"mohandz-service/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(tab *sessiontest.Tab, profiles sessiontest.Profiles) *gin.Engine {
	r := sessiontest.Router(tab, profiles)
	SetupRouter(r, &Handlers{
		Guard:   middleware.NewGuard(nil),
		Metrics: metrics.Handler(prometheus.NewRegistry()),
		Health:  func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) },
	})
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_GuardsDashboards(t *testing.T) {
	anon := newTestRouter(sessiontest.Anonymous(), sessiontest.Profiles{})

	for _, path := range []string{
		"/api/v1/admin/overview",
		"/api/v1/admin/realtime",
		"/api/v1/client/profile",
		"/ws",
	} {
		assert.Equal(t, http.StatusUnauthorized, get(anon, path).Code, path)
	}

	id := uuid.New()
	client := newTestRouter(
		sessiontest.SignedIn(id, "client@example.com"),
		sessiontest.Profiles{id: {ID: id, Role: "client"}},
	)
	assert.Equal(t, http.StatusForbidden, get(client, "/api/v1/admin/users").Code)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r := newTestRouter(sessiontest.Anonymous(), sessiontest.Profiles{})

	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
	assert.Equal(t, http.StatusOK, get(r, "/metrics").Code)
}
