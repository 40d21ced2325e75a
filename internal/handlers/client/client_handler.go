// internal/handlers/client/client_handler.go
package client

import (
	"errors"
	"net/http"

	"mohandz-service/internal/domain/profile"
	"mohandz-service/internal/domain/request"
	"mohandz-service/internal/middleware"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/response"
	"mohandz-service/internal/pkg/validation"
	profileService "mohandz-service/internal/service/profile"
	projectService "mohandz-service/internal/service/project"
	requestService "mohandz-service/internal/service/request"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClientHandler serves the client dashboard. Every route sits behind the
// client guard.
type ClientHandler struct {
	profiles *profileService.ProfileService
	projects *projectService.ProjectService
	requests *requestService.RequestService
	logger   *zap.Logger
}

func NewClientHandler(
	profiles *profileService.ProfileService,
	projects *projectService.ProjectService,
	requests *requestService.RequestService,
	logger *zap.Logger,
) *ClientHandler {
	return &ClientHandler{
		profiles: profiles,
		projects: projects,
		requests: requests,
		logger:   logger,
	}
}

// GetProfile returns the caller's profile.
func (h *ClientHandler) GetProfile(c *gin.Context) {
	id := middleware.MustGetIdentityID(c)

	p, err := h.profiles.GetProfile(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, xerrors.ErrNotFound) {
			h.logger.Error("failed to load profile", zap.String("identity_id", id.String()), zap.Error(err))
			response.Notify(c, notify.KindError, middleware.Lang(c), i18n.LoadFailed, "")
		}
		response.FromError(c, "failed to get profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", p)
}

// UpdateProfile changes the caller's name and phone.
func (h *ClientHandler) UpdateProfile(c *gin.Context) {
	id := middleware.MustGetIdentityID(c)
	lang := middleware.Lang(c)

	var req profile.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Notify(c, notify.KindError, lang, i18n.RequestFailed, i18n.RequiredFields)
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.profiles.UpdateProfile(c.Request.Context(), id, &req)
	if err != nil {
		detail := i18n.RequestFailedDetail
		if errors.Is(err, xerrors.ErrInvalidInput) {
			detail = validation.MessageKey(err)
		} else {
			h.logger.Error("failed to update profile", zap.String("identity_id", id.String()), zap.Error(err))
		}
		response.Notify(c, notify.KindError, lang, i18n.RequestFailed, detail)
		response.FromError(c, "failed to update profile", err)
		return
	}

	response.Notify(c, notify.KindSuccess, lang, i18n.ProfileUpdated, "")
	response.Success(c, http.StatusOK, "profile updated", p)
}

// ListProjects lists projects assigned to the caller.
func (h *ClientHandler) ListProjects(c *gin.Context) {
	id := middleware.MustGetIdentityID(c)

	projects, err := h.projects.ListClientProjects(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to list client projects", zap.Error(err))
		response.Notify(c, notify.KindError, middleware.Lang(c), i18n.LoadFailed, "")
		response.FromError(c, "failed to list projects", err)
		return
	}

	response.Success(c, http.StatusOK, "projects retrieved", projects)
}

// ListRequests lists requests the caller submitted while signed in.
func (h *ClientHandler) ListRequests(c *gin.Context) {
	id := middleware.MustGetIdentityID(c)

	var q request.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	requests, err := h.requests.ListUserRequests(c.Request.Context(), id, q.Limit, q.Offset)
	if err != nil {
		h.logger.Error("failed to list client requests", zap.Error(err))
		response.Notify(c, notify.KindError, middleware.Lang(c), i18n.LoadFailed, "")
		response.FromError(c, "failed to list requests", err)
		return
	}

	response.Success(c, http.StatusOK, "requests retrieved", requests)
}
