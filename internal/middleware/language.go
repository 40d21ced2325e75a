package middleware

import (
	"mohandz-service/internal/pkg/i18n"

	"github.com/gin-gonic/gin"
)

// LanguageMiddleware picks ar or en from ?lang= or Accept-Language and
// echoes the choice in Content-Language.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := i18n.Negotiate(c.Query("lang"), c.GetHeader("Accept-Language"))
		c.Set(langKey, lang)
		c.Header("Content-Language", string(lang))
		c.Next()
	}
}

// Lang returns the negotiated language, or i18n.Default.
func Lang(c *gin.Context) i18n.Lang {
	if v, ok := c.Get(langKey); ok {
		if l, ok := v.(i18n.Lang); ok {
			return l
		}
	}
	return i18n.Default
}
