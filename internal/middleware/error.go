package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
)

// abortWithEnvelope writes the failure envelope and stops the chain.
func abortWithEnvelope(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into the failure envelope. AppErrors keep their status and message;
// unexpected errors are logged and return a generic internal error to avoid
// leaking details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Internal != nil {
				logger.Get().Errorw("app error",
					"code", appErr.Code,
					"message", appErr.Message,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
				)
			}
			abortWithEnvelope(c, appErr.StatusCode, appErr.Message)
			return
		}

		// Unexpected error: log full details, return generic message
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		abortWithEnvelope(c, apperrors.ErrInternalServer.StatusCode, apperrors.ErrInternalServer.Message)
	}
}

// Recovery returns a Gin middleware that turns panics into the 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Get().Errorw("panic recovered",
					"panic", fmt.Sprint(r),
					"request_id", RequestID(c),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				abortWithEnvelope(c, http.StatusInternalServerError, apperrors.ErrInternalServer.Message)
			}
		}()
		c.Next()
	}
}

// NotFound answers unmatched routes with the 404 envelope.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		abortWithEnvelope(c, http.StatusNotFound, apperrors.ErrNotFound.Message)
	}
}
