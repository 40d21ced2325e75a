// internal/handlers/request/request_handler.go
package request

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"mohandz-service/internal/domain/request"
	"mohandz-service/internal/middleware"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/response"
	"mohandz-service/internal/service/submission"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserSinks hands out a realtime sink for a signed-in user. *websocket.Hub
// implements it.
type UserSinks interface {
	UserSink(identityID uuid.UUID) notify.Sink
}

type RequestHandler struct {
	submissions *submission.Service
	realtime    UserSinks
	logger      *zap.Logger
}

// NewRequestHandler builds the handler. realtime may be nil.
func NewRequestHandler(submissions *submission.Service, realtime UserSinks, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		submissions: submissions,
		realtime:    realtime,
		logger:      logger,
	}
}

// sink collects notifications for the response and mirrors them to the
// user's open tabs.
func (h *RequestHandler) sink(c *gin.Context, sub submission.Submitter) notify.Sink {
	if h.realtime == nil || sub.UserID == nil {
		return response.Notifications(c)
	}
	return notify.Fanout(response.Notifications(c), h.realtime.UserSink(*sub.UserID))
}

func (h *RequestHandler) submitter(c *gin.Context) submission.Submitter {
	return submission.SubmitterFrom(middleware.CurrentSnapshot(c), c.ClientIP(), middleware.Lang(c))
}

// SubmitServiceRequest handles the request modal. Files come from the
// multipart field "files".
func (h *RequestHandler) SubmitServiceRequest(c *gin.Context) {
	var form request.ServiceRequestForm
	if err := c.ShouldBind(&form); err != nil {
		response.Notify(c, notify.KindError, middleware.Lang(c), i18n.RequestFailed, i18n.RequiredFields)
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	var files []submission.Attachment
	if mf, err := c.MultipartForm(); err == nil {
		files = attachments(mf.File["files"])
	} else if !errors.Is(err, http.ErrNotMultipart) {
		response.Notify(c, notify.KindError, middleware.Lang(c), i18n.RequestFailed, i18n.RequestFailedDetail)
		response.Error(c, http.StatusBadRequest, "invalid multipart body", err)
		return
	}

	sub := h.submitter(c)
	res, err := h.submissions.SubmitServiceRequest(c.Request.Context(), sub, form, files, h.sink(c, sub))
	if err != nil {
		response.FromError(c, "request not sent", err)
		return
	}

	response.Success(c, http.StatusCreated, "request sent", res)
}

// Prefill returns the form defaults for the session user.
func (h *RequestHandler) Prefill(c *gin.Context) {
	response.Success(c, http.StatusOK, "prefill", submission.Prefill(middleware.CurrentSnapshot(c)))
}

// SubmitContact handles the contact page form, as JSON or form data.
func (h *RequestHandler) SubmitContact(c *gin.Context) {
	var form request.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		response.Notify(c, notify.KindError, middleware.Lang(c), i18n.ContactFailed, i18n.RequiredFields)
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	sub := h.submitter(c)
	res, err := h.submissions.SubmitContact(c.Request.Context(), sub, form, h.sink(c, sub))
	if err != nil {
		if !errors.Is(err, xerrors.ErrInvalidInput) && !errors.Is(err, xerrors.ErrRateLimited) {
			h.logger.Error("contact message failed", zap.Error(err))
		}
		response.FromError(c, "message not sent", err)
		return
	}

	response.Success(c, http.StatusCreated, "message sent", res)
}

func attachments(headers []*multipart.FileHeader) []submission.Attachment {
	out := make([]submission.Attachment, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		out = append(out, submission.Attachment{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out
}
