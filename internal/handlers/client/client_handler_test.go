package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mohandz-service/internal/domain/profile"
	"mohandz-service/internal/domain/project"
	"mohandz-service/internal/domain/request"
	"mohandz-service/internal/middleware"
	"mohandz-service/internal/middleware/sessiontest"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/response"
	"mohandz-service/internal/pkg/validation"
	profileService "mohandz-service/internal/service/profile"
	projectService "mohandz-service/internal/service/project"
	requestService "mohandz-service/internal/service/request"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	_ = validation.RegisterGinValidators()
}

type profileRepo struct {
	profiles sessiontest.Profiles
	notified []uuid.UUID
}

func (r *profileRepo) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return r.profiles.GetProfile(ctx, id)
}

func (r *profileRepo) Update(_ context.Context, id uuid.UUID, fullName, phone string) (*profile.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	updated := *p
	updated.FullName, updated.Phone = fullName, phone
	r.profiles[id] = &updated
	return &updated, nil
}

func (r *profileRepo) NotifyUserUpdated(_ context.Context, id uuid.UUID) {
	r.notified = append(r.notified, id)
}

type projectRepo struct {
	projects []project.Project
}

func (r *projectRepo) Create(context.Context, *project.Project) error { return nil }
func (r *projectRepo) ListWithClient(context.Context) ([]project.Project, error) {
	return r.projects, nil
}
func (r *projectRepo) UpdateStatus(context.Context, int64, project.Status) error { return nil }

func (r *projectRepo) ListByClient(_ context.Context, clientID uuid.UUID) ([]project.Project, error) {
	var out []project.Project
	for _, p := range r.projects {
		if p.ClientID != nil && *p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

type requestRepo struct {
	requests []request.ServiceRequest
	last     request.ListFilter
}

func (r *requestRepo) List(_ context.Context, f request.ListFilter) ([]request.ServiceRequest, error) {
	r.last = f
	var out []request.ServiceRequest
	for _, req := range r.requests {
		if f.UserID != nil && (req.UserID == nil || *req.UserID != *f.UserID) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *requestRepo) UpdateStatus(context.Context, int64, request.Status) error { return nil }
func (r *requestRepo) Delete(context.Context, int64) error                       { return nil }

type contactRepo struct{}

func (contactRepo) List(context.Context, int, int) ([]request.ContactMessage, error) { return nil, nil }
func (contactRepo) Delete(context.Context, int64) error                              { return nil }

type fixture struct {
	router   *gin.Engine
	profiles *profileRepo
	requests *requestRepo
}

func newFixture(tab *sessiontest.Tab, profs sessiontest.Profiles, projects []project.Project, requests []request.ServiceRequest) *fixture {
	f := &fixture{
		profiles: &profileRepo{profiles: profs},
		requests: &requestRepo{requests: requests},
	}
	h := NewClientHandler(
		profileService.NewProfileService(f.profiles, f.profiles, zap.NewNop()),
		projectService.NewProjectService(&projectRepo{projects: projects}, zap.NewNop()),
		requestService.NewRequestService(f.requests, contactRepo{}, zap.NewNop()),
		zap.NewNop(),
	)

	f.router = sessiontest.Router(tab, profs)
	g := f.router.Group("/api/v1/client", middleware.NewGuard(nil).ClientOnly())
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/projects", h.ListProjects)
	g.GET("/requests", h.ListRequests)
	return f
}

func serve(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestClientRoutes_RequireClientRole(t *testing.T) {
	adminID := uuid.New()
	f := newFixture(sessiontest.SignedIn(adminID, "admin@mohandz.sa"),
		sessiontest.Profiles{adminID: {ID: adminID, Role: "admin"}}, nil, nil)

	w, resp := serve(t, f.router, http.MethodGet, "/api/v1/client/profile", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Unauthorized", resp.Notifications[0].Message)

	w, _ = serve(t, newFixture(sessiontest.Anonymous(), nil, nil, nil).router, http.MethodGet, "/api/v1/client/profile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetProfile(t *testing.T) {
	id := uuid.New()
	f := newFixture(sessiontest.SignedIn(id, "ali@example.com"),
		sessiontest.Profiles{id: {ID: id, Role: "client", FullName: "Ali"}}, nil, nil)

	w, resp := serve(t, f.router, http.MethodGet, "/api/v1/client/profile", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ali", resp.Data.(map[string]interface{})["full_name"])
}

func TestUpdateProfile(t *testing.T) {
	id := uuid.New()
	f := newFixture(sessiontest.SignedIn(id, "ali@example.com"),
		sessiontest.Profiles{id: {ID: id, Role: "client", FullName: "Ali"}}, nil, nil)

	w, resp := serve(t, f.router, http.MethodPut, "/api/v1/client/profile", `{"full_name":"Ali Hassan","phone":"512345678"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, notify.KindSuccess, resp.Notifications[0].Kind)
	assert.Equal(t, "Profile updated", resp.Notifications[0].Message)
	assert.Equal(t, "Ali Hassan", f.profiles.profiles[id].FullName)
	assert.Equal(t, []uuid.UUID{id}, f.profiles.notified)
}

func TestUpdateProfile_RejectsForeignPhone(t *testing.T) {
	id := uuid.New()
	f := newFixture(sessiontest.SignedIn(id, "ali@example.com"),
		sessiontest.Profiles{id: {ID: id, Role: "client", FullName: "Ali"}}, nil, nil)

	w, resp := serve(t, f.router, http.MethodPut, "/api/v1/client/profile", `{"full_name":"Ali","phone":"+201001234567"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, notify.KindError, resp.Notifications[0].Kind)
	assert.Equal(t, "Ali", f.profiles.profiles[id].FullName)
	assert.Empty(t, f.profiles.notified)
}

func TestListProjects_OnlyOwn(t *testing.T) {
	id, other := uuid.New(), uuid.New()
	f := newFixture(sessiontest.SignedIn(id, "ali@example.com"),
		sessiontest.Profiles{id: {ID: id, Role: "client"}},
		[]project.Project{
			{ID: 1, Title: "Villa", ClientID: &id, Status: project.StatusInProgress},
			{ID: 2, Title: "Tower", ClientID: &other, Status: project.StatusNotStarted},
		}, nil)

	w, resp := serve(t, f.router, http.MethodGet, "/api/v1/client/projects", "")

	assert.Equal(t, http.StatusOK, w.Code)
	list := resp.Data.([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "Villa", list[0].(map[string]interface{})["title"])
}

func TestListRequests_PassesPaging(t *testing.T) {
	id := uuid.New()
	f := newFixture(sessiontest.SignedIn(id, "ali@example.com"),
		sessiontest.Profiles{id: {ID: id, Role: "client"}}, nil,
		[]request.ServiceRequest{{ID: 7, FullName: "Ali", UserID: &id}, {ID: 8, FullName: "Guest"}})

	w, resp := serve(t, f.router, http.MethodGet, "/api/v1/client/requests?limit=10&offset=5", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Data.([]interface{}), 1)
	assert.Equal(t, 10, f.requests.last.Limit)
	assert.Equal(t, 5, f.requests.last.Offset)
	require.NotNil(t, f.requests.last.UserID)
	assert.Equal(t, id, *f.requests.last.UserID)

	w, _ = serve(t, f.router, http.MethodGet, "/api/v1/client/requests?limit=1000", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
