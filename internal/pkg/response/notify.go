// internal/pkg/response/notify.go
package response

import (
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/notify"

	"github.com/gin-gonic/gin"
)

// Notify adds one localized notification to the request. detail may be
// empty.
func Notify(c *gin.Context, kind notify.Kind, lang i18n.Lang, message, detail i18n.Key) {
	ev := notify.Event{Kind: kind, Message: i18n.T(lang, message)}
	if detail != "" {
		ev.Detail = i18n.T(lang, detail)
	}
	Notifications(c).Notify(ev)
}
