// internal/handlers/auth/auth_handler.go
package auth

import (
	"errors"
	"net/http"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/middleware"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/response"
	"mohandz-service/internal/pkg/validation"
	"mohandz-service/internal/service/authstate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	resetRedirectURL string
	logger           *zap.Logger
}

// NewAuthHandler builds the handler. resetRedirectURL is the page recovery
// links point at.
func NewAuthHandler(resetRedirectURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		resetRedirectURL: resetRedirectURL,
		logger:           logger,
	}
}

// SessionResponse is returned by login and refresh.
type SessionResponse struct {
	AccessToken string         `json:"access_token,omitempty"`
	Session     authstate.View `json:"session"`
}

func (h *AuthHandler) store(c *gin.Context) (*authstate.Store, bool) {
	store, ok := middleware.CurrentStore(c)
	if !ok {
		h.logger.Error("session store missing from request")
		response.Error(c, http.StatusInternalServerError, "session unavailable", xerrors.ErrInternal)
	}
	return store, ok
}

func token(c *gin.Context) string {
	if cl, ok := middleware.CurrentClient(c); ok {
		return cl.Token()
	}
	return ""
}

// ========== Registration ==========

// Register creates a client account. It does not sign in.
func (h *AuthHandler) Register(c *gin.Context) {
	lang := middleware.Lang(c)
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Notify(c, notify.KindError, lang, i18n.RegisterFailed, i18n.RequiredFields)
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	user, err := store.Register(c.Request.Context(), req.FullName, req.Email, req.Phone, req.Password)
	if err != nil {
		detail := i18n.RequestFailedDetail
		switch {
		case errors.Is(err, xerrors.ErrInvalidInput):
			detail = validation.MessageKey(err)
		case errors.Is(err, xerrors.ErrDuplicateEntry), errors.Is(err, xerrors.ErrConflict):
			detail = i18n.AlreadyRegistered
		default:
			h.logger.Error("registration failed", zap.Error(err))
		}
		response.Notify(c, notify.KindError, lang, i18n.RegisterFailed, detail)
		response.FromError(c, "registration failed", err)
		return
	}

	response.Notify(c, notify.KindSuccess, lang, i18n.RegisterSuccess, "")
	response.Success(c, http.StatusCreated, "registration successful", user)
}

// ========== Login ==========

// Login signs the tab in. Every credential problem looks the same to the
// caller.
func (h *AuthHandler) Login(c *gin.Context) {
	lang := middleware.Lang(c)
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Notify(c, notify.KindError, lang, i18n.LoginFailed, i18n.RequiredFields)
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		detail := i18n.InvalidCredentials
		if errors.Is(err, xerrors.ErrRateLimited) {
			detail = i18n.TooManyAttempts
			h.logger.Warn("login rate limited", zap.String("ip", c.ClientIP()))
		}
		response.Notify(c, notify.KindError, lang, i18n.LoginFailed, detail)
		response.FromError(c, "login failed", err)
		return
	}

	snap := store.Snapshot()
	if snap.Identity != nil {
		h.logger.Info("user logged in", zap.String("identity_id", snap.Identity.ID.String()))
	}

	response.Notify(c, notify.KindSuccess, lang, i18n.LoginSuccess, "")
	response.Success(c, http.StatusOK, "login successful", SessionResponse{
		AccessToken: token(c),
		Session:     snap.View(),
	})
}

// ========== Logout ==========

// Logout ends the session held by the request token.
func (h *AuthHandler) Logout(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.Logout(c.Request.Context()); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		response.Notify(c, notify.KindError, middleware.Lang(c), i18n.RequestFailed, i18n.RequestFailedDetail)
		response.FromError(c, "logout failed", err)
		return
	}

	response.Notify(c, notify.KindInfo, middleware.Lang(c), i18n.LogoutSuccess, "")
	response.Success(c, http.StatusOK, "logout successful", store.Snapshot().View())
}

// ========== Session ==========

// Session reports the resolved session; anonymous callers get an
// unauthenticated view.
func (h *AuthHandler) Session(c *gin.Context) {
	response.Success(c, http.StatusOK, "session", middleware.CurrentSnapshot(c).View())
}

// Refresh rotates the access token of a signed-in tab.
func (h *AuthHandler) Refresh(c *gin.Context) {
	cl, ok := middleware.CurrentClient(c)
	if !ok {
		response.Unauthorized(c, i18n.T(middleware.Lang(c), i18n.LoginRequired))
		return
	}

	sess, err := cl.RefreshSession(c.Request.Context())
	if err != nil {
		response.FromError(c, "refresh failed", err)
		return
	}

	view := middleware.CurrentSnapshot(c).View()
	response.Success(c, http.StatusOK, "session refreshed", SessionResponse{
		AccessToken: sess.AccessToken,
		Session:     view,
	})
}

// ========== Password Management ==========

// ForgotPassword sends a recovery link. The answer never tells whether the
// address is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	lang := middleware.Lang(c)
	var req auth.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Notify(c, notify.KindError, lang, i18n.ResetLinkFailed, i18n.InvalidEmail)
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.RequestPasswordReset(c.Request.Context(), req.Email, h.resetRedirectURL); err != nil {
		if errors.Is(err, xerrors.ErrRateLimited) {
			response.Notify(c, notify.KindError, lang, i18n.ResetLinkFailed, i18n.TooManyAttempts)
			response.FromError(c, "too many reset requests", err)
			return
		}
		// Don't reveal if email exists
		h.logger.Warn("password reset request failed", zap.Error(err))
	}

	response.Notify(c, notify.KindSuccess, lang, i18n.ResetLinkSent, "")
	response.Success(c, http.StatusOK, "if email exists, reset link has been sent", nil)
}

// UpdatePassword sets a new password using the request token, which is a
// recovery token or an access token.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	lang := middleware.Lang(c)
	var req auth.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Notify(c, notify.KindError, lang, i18n.RequestFailed, i18n.RequiredFields)
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}
	if token(c) == "" {
		response.Notify(c, notify.KindError, lang, i18n.RequestFailed, i18n.PasswordUpdateFailed)
		response.Unauthorized(c, "missing token")
		return
	}

	if err := store.UpdatePassword(c.Request.Context(), req.Password, req.ConfirmPassword); err != nil {
		detail := i18n.PasswordUpdateFailed
		if errors.Is(err, xerrors.ErrInvalidInput) {
			detail = validation.MessageKey(err)
		} else if response.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("password update failed", zap.Error(err))
		}
		response.Notify(c, notify.KindError, lang, i18n.RequestFailed, detail)
		response.FromError(c, "password update failed", err)
		return
	}

	response.Notify(c, notify.KindSuccess, lang, i18n.PasswordUpdated, "")
	response.Success(c, http.StatusOK, "password updated", nil)
}

// PasswordStrength scores a candidate password for the meter.
func (h *AuthHandler) PasswordStrength(c *gin.Context) {
	var req auth.PasswordStrengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	score := validation.PasswordStrength(req.Password)
	level := validation.LevelFor(score)
	response.Success(c, http.StatusOK, "password strength", gin.H{
		"score": score,
		"level": level,
		"label": i18n.T(middleware.Lang(c), level.Key()),
	})
}
