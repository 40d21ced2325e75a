// internal/pkg/response/response.go
package response

import (
	"net/http"

	"mohandz-service/internal/pkg/notify"

	"github.com/gin-gonic/gin"
)

const notificationsKey = "notifications"

// Response defines the standard API response format.
type Response struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Data          interface{}    `json:"data,omitempty"`
	Error         string         `json:"error,omitempty"`
	Notifications []notify.Event `json:"notifications,omitempty"`
}

// Notifications returns the per-request collector, creating it on first use.
func Notifications(c *gin.Context) *notify.Collector {
	if v, ok := c.Get(notificationsKey); ok {
		if col, ok := v.(*notify.Collector); ok {
			return col
		}
	}
	col := notify.NewCollector()
	c.Set(notificationsKey, col)
	return col
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success:       true,
		Message:       message,
		Data:          data,
		Notifications: Notifications(c).Events(),
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error, data ...interface{}) {
	// Abort before writing so later handlers in the chain never run.
	c.Abort()

	resp := Response{
		Success:       false,
		Message:       message,
		Notifications: Notifications(c).Events(),
	}

	if err != nil {
		resp.Error = err.Error()
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	c.JSON(code, resp)
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}
