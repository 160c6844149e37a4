package middleware

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/common/helper"
)

// AbortWithError aborts the request with {"success":false,"message"}.
func AbortWithError(c *gin.Context, statusCode int, err error) {
	logger := gmw.GetLogger(c)
	if ignoreServerError(statusCode, err) {
		logger.Warn("server abort",
			zap.Int("status_code", statusCode),
			zap.Error(err))
	} else {
		logger.Error("server abort",
			zap.Int("status_code", statusCode),
			zap.Error(err))
	}

	c.JSON(statusCode, gin.H{
		"success": false,
		"message": helper.MessageWithRequestId(err.Error(), c.GetString(helper.RequestIdKey)),
	})
	c.Abort()
}

// ignoreServerError keeps client mistakes and hang-ups out of the error log.
func ignoreServerError(statusCode int, err error) bool {
	switch {
	case statusCode < http.StatusInternalServerError:
		return true
	case errors.Is(err, context.Canceled):
		return true
	default:
		return false
	}
}
