package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/common/cognito"
	"github.com/songquanpeng/prompt-studio/common/ctxkey"
	"github.com/songquanpeng/prompt-studio/dto"
	"github.com/songquanpeng/prompt-studio/middleware"
)

func (h *Handler) Login(c *gin.Context) {
	if h.Auth == nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.New("authentication is disabled"))
		return
	}

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Wrap(err, "invalid login request"))
		return
	}

	username, err := h.Auth.Login(gmw.Ctx(c), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, cognito.ErrInvalidCredentials):
		middleware.AbortWithError(c, http.StatusUnauthorized, err)
		return
	case errors.Is(err, cognito.ErrChallengeRequired):
		middleware.AbortWithError(c, http.StatusForbidden, err)
		return
	default:
		middleware.AbortWithError(c, http.StatusBadGateway, errors.Wrap(err, "sign in"))
		return
	}

	session := sessions.Default(c)
	session.Set(ctxkey.CookieUsername, username)
	if err := session.Save(); err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, errors.Wrap(err, "save session"))
		return
	}

	gmw.GetLogger(c).Info("user logged in", zap.String("username", username))
	respondOK(c, gin.H{"username": username})
}

// Logout drops the caller's dataset and run history along with the login.
func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if id, _ := session.Get(ctxkey.CookieSessionId).(string); id != "" {
		if sess, ok := h.Sessions.Peek(id); ok {
			sess.Reset()
		}
		h.Sessions.Delete(id)
	}

	session.Clear()
	if err := session.Save(); err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, errors.Wrap(err, "save session"))
		return
	}
	respondOK(c, nil)
}
