// Package controller implements the HTTP API handlers.
package controller

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/common/storage"
	"github.com/songquanpeng/prompt-studio/middleware"
	"github.com/songquanpeng/prompt-studio/model"
	rcontroller "github.com/songquanpeng/prompt-studio/relay/controller"
)

// Authenticator signs a user in and returns the canonical user name.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Handler carries the collaborators shared by all endpoints.
type Handler struct {
	Env      rcontroller.Env
	Sessions *model.SessionStore
	Datasets *storage.Loader
	// Auth is nil when user authentication is disabled.
	Auth Authenticator
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    data,
	})
}

// session returns the caller's state or aborts the request.
func session(c *gin.Context) (*model.Session, bool) {
	sess := middleware.GetSession(c)
	if sess == nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, errors.New("session state missing"))
		return nil, false
	}
	return sess, true
}
