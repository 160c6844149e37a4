package middleware

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/common/ctxkey"
	"github.com/songquanpeng/prompt-studio/common/random"
	"github.com/songquanpeng/prompt-studio/model"
)

// SessionState binds the caller's isolated state to the request. A new session id is issued on
// the first request and kept in the signed cookie.
func SessionState(store *model.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, _ := session.Get(ctxkey.CookieSessionId).(string)
		if id == "" {
			id = random.GetUUID()
			session.Set(ctxkey.CookieSessionId, id)
			if err := session.Save(); err != nil {
				AbortWithError(c, http.StatusInternalServerError, errors.Wrap(err, "save session"))
				return
			}
		}

		c.Set(ctxkey.SessionId, id)
		c.Set(ctxkey.Session, store.Get(id))
		c.Next()
	}
}

// GetSession returns the state bound by SessionState, or nil outside it.
func GetSession(c *gin.Context) *model.Session {
	v, ok := c.Get(ctxkey.Session)
	if !ok {
		return nil
	}
	sess, _ := v.(*model.Session)
	return sess
}
