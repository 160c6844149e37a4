package middleware

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/common/ctxkey"
)

// UserAuth rejects requests without a logged-in user. With enabled false every request passes.
func UserAuth(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		username, _ := sessions.Default(c).Get(ctxkey.CookieUsername).(string)
		if username == "" {
			AbortWithError(c, http.StatusUnauthorized, errors.New("not logged in"))
			return
		}
		c.Set(ctxkey.Username, username)
		c.Next()
	}
}
