package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
	"billing/internal/core/numerator"
	"billing/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// Handler already answered; nothing left to render.
		if c.Writer.Written() {
			return
		}

		appErr, ok := apperror.AsAppError(err)
		if !ok && errors.Is(err, numerator.ErrSequenceExhausted) {
			appErr, ok = apperror.NewSequenceExhausted("", "", 0).WithCause(err), true
		}

		if ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"status", appErr.HTTPStatus,
					"cause", appErr.Err,
				)
			}
			if appErr.HTTPStatus == http.StatusServiceUnavailable {
				c.Header("Retry-After", "1")
			}
			c.JSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
			return
		}

		// Unknown error: store and I/O failures end up here
		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)

		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": appctx.GetRequestID(c.Request.Context()),
			},
		})
	}
}
