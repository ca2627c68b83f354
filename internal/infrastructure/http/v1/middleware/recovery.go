// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/apperror"
	"medstore/pkg/logger"
)

// Recovery turns a handler panic into a 500 envelope rendered by ErrorHandler.
// A panic inside a transaction has already rolled it back by the time it lands here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.Error(c.Request.Context(), "handler panicked",
				"route", c.FullPath(),
				"method", c.Request.Method,
				"panic", rec,
				"stack", string(debug.Stack()),
			)

			appErr := apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), rec))
			_ = c.Error(appErr.WithDetail("request_id", c.GetString(KeyRequestID)))
			c.Abort()
		}()
		c.Next()
	}
}
