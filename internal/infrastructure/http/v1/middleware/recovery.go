// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	appctx "billing/internal/core/context"
	"billing/pkg/logger"
)

// Recovery turns a panic into a 500 INTERNAL_ERROR response.
// The stack is logged, never sent to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"panic", rec,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				// ErrorHandler has already unwound, so respond here
				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    apperror.CodeInternal,
					"message": "Internal server error",
					"details": map[string]any{
						"request_id": appctx.GetRequestID(c.Request.Context()),
					},
				})
			}
		}()
		c.Next()
	}
}
