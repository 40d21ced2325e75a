// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				lang := Lang(c)
				response.Notifications(c).Notify(notify.Event{
					Kind:    notify.KindError,
					Message: i18n.T(lang, i18n.RequestFailedDetail),
				})
				response.Error(c, http.StatusInternalServerError, "internal server error", nil)
			}
		}()
		c.Next()
	}
}
