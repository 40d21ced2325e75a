// internal/handlers/admin/admin_handler.go
package admin

import (
	"errors"
	"net/http"
	"strconv"

	"mohandz-service/internal/domain/profile"
	"mohandz-service/internal/domain/project"
	"mohandz-service/internal/domain/request"
	"mohandz-service/internal/middleware"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/response"
	adminService "mohandz-service/internal/service/admin"
	projectService "mohandz-service/internal/service/project"
	requestService "mohandz-service/internal/service/request"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler serves the admin dashboard. Every route sits behind the
// admin guard.
type AdminHandler struct {
	admin    *adminService.AdminService
	requests *requestService.RequestService
	projects *projectService.ProjectService
	logger   *zap.Logger
}

func NewAdminHandler(
	admin *adminService.AdminService,
	requests *requestService.RequestService,
	projects *projectService.ProjectService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		requests: requests,
		projects: projects,
		logger:   logger,
	}
}

// ========== Overview ==========

func (h *AdminHandler) Overview(c *gin.Context) {
	overview, err := h.admin.Overview(c.Request.Context())
	if err != nil {
		h.loadFailed(c, "failed to load overview", err)
		return
	}
	response.Success(c, http.StatusOK, "overview retrieved", overview)
}

// ========== Service requests ==========

func (h *AdminHandler) ListRequests(c *gin.Context) {
	var q request.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	requests, err := h.requests.ListRequests(c.Request.Context(), q.Status, q.Limit, q.Offset)
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidInput) {
			h.invalidStatus(c, err)
			return
		}
		h.loadFailed(c, "failed to list requests", err)
		return
	}
	response.Success(c, http.StatusOK, "requests retrieved", requests)
}

func (h *AdminHandler) UpdateRequestStatus(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var req request.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidStatus(c, err)
		return
	}

	if err := h.requests.UpdateRequestStatus(c.Request.Context(), id, req.Status); err != nil {
		h.writeFailed(c, "failed to update request status", err)
		return
	}

	response.Notify(c, notify.KindSuccess, middleware.Lang(c), i18n.RequestStatusUpdated, "")
	response.Success(c, http.StatusOK, "request status updated", gin.H{"id": id, "status": req.Status})
}

func (h *AdminHandler) DeleteRequest(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.requests.DeleteRequest(c.Request.Context(), id); err != nil {
		h.writeFailed(c, "failed to delete request", err)
		return
	}

	response.Notify(c, notify.KindSuccess, middleware.Lang(c), i18n.Deleted, "")
	response.Success(c, http.StatusOK, "request deleted", nil)
}

// ========== Contact messages ==========

func (h *AdminHandler) ListContacts(c *gin.Context) {
	var q request.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	messages, err := h.requests.ListContacts(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.loadFailed(c, "failed to list contact messages", err)
		return
	}
	response.Success(c, http.StatusOK, "contact messages retrieved", messages)
}

func (h *AdminHandler) DeleteContact(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.requests.DeleteContact(c.Request.Context(), id); err != nil {
		h.writeFailed(c, "failed to delete contact message", err)
		return
	}

	response.Notify(c, notify.KindSuccess, middleware.Lang(c), i18n.Deleted, "")
	response.Success(c, http.StatusOK, "contact message deleted", nil)
}

// ========== Projects ==========

func (h *AdminHandler) ListProjects(c *gin.Context) {
	projects, err := h.projects.ListProjects(c.Request.Context())
	if err != nil {
		h.loadFailed(c, "failed to list projects", err)
		return
	}
	response.Success(c, http.StatusOK, "projects retrieved", projects)
}

func (h *AdminHandler) CreateProject(c *gin.Context) {
	var req project.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Notify(c, notify.KindError, middleware.Lang(c), i18n.RequestFailed, i18n.RequiredFields)
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.projects.CreateProject(c.Request.Context(), &req)
	if err != nil {
		h.writeFailed(c, "failed to create project", err)
		return
	}

	response.Notify(c, notify.KindSuccess, middleware.Lang(c), i18n.ProjectCreated, "")
	response.Success(c, http.StatusCreated, "project created", p)
}

func (h *AdminHandler) UpdateProjectStatus(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var req project.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidStatus(c, err)
		return
	}

	if err := h.projects.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		h.writeFailed(c, "failed to update project status", err)
		return
	}

	response.Notify(c, notify.KindSuccess, middleware.Lang(c), i18n.ProjectStatusUpdated, "")
	response.Success(c, http.StatusOK, "project status updated", gin.H{"id": id, "status": req.Status})
}

// ========== Users ==========

func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.admin.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.loadFailed(c, "failed to list users", err)
		return
	}
	response.Success(c, http.StatusOK, "users retrieved", users)
}

// ChangeRole sets a user's role. Open tabs of that user re-resolve their
// session through the auth event bus.
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user ID", err)
		return
	}
	var req profile.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Notify(c, notify.KindError, middleware.Lang(c), i18n.RequestFailed, "")
		response.Error(c, http.StatusBadRequest, "invalid role", err)
		return
	}

	if err := h.admin.ChangeRole(c.Request.Context(), id, req.Role); err != nil {
		h.writeFailed(c, "failed to change role", err)
		return
	}

	response.Notify(c, notify.KindSuccess, middleware.Lang(c), i18n.RoleUpdated, "")
	response.Success(c, http.StatusOK, "role updated", gin.H{"id": id, "role": req.Role})
}

// ========== Helpers ==========

func (h *AdminHandler) idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid ID", err)
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) invalidStatus(c *gin.Context, err error) {
	response.Notify(c, notify.KindError, middleware.Lang(c), i18n.InvalidStatus, "")
	response.Error(c, http.StatusBadRequest, "invalid status", err)
}

func (h *AdminHandler) loadFailed(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.Error(err))
	response.Notify(c, notify.KindError, middleware.Lang(c), i18n.LoadFailed, "")
	response.FromError(c, message, err)
}

// writeFailed reports a failed change. Invalid statuses get their own
// message; anything unexpected is logged.
func (h *AdminHandler) writeFailed(c *gin.Context, message string, err error) {
	lang := middleware.Lang(c)
	switch response.StatusFor(err) {
	case http.StatusBadRequest:
		var ve *xerrors.ValidationError
		if errors.As(err, &ve) && ve.Field == "status" {
			h.invalidStatus(c, err)
			return
		}
		response.Notify(c, notify.KindError, lang, i18n.RequestFailed, i18n.RequiredFields)
	case http.StatusInternalServerError:
		h.logger.Error(message, zap.Error(err))
		response.Notify(c, notify.KindError, lang, i18n.RequestFailed, i18n.RequestFailedDetail)
	default:
		response.Notify(c, notify.KindError, lang, i18n.RequestFailed, "")
	}
	response.FromError(c, message, err)
}
