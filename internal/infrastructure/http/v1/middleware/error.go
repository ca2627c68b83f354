package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/apperror"
	"medstore/internal/infrastructure/http/v1/dto"
	"medstore/pkg/logger"
)

// ErrorHandler middleware transforms errors into the failure envelope.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		if c.Writer.Written() {
			return
		}

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(ctx, "unhandled error", "error", err)
			appErr = apperror.NewInternal(err).WithDetail("request_id", c.GetString(KeyRequestID))
		} else if appErr.Err != nil {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}

		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}

		c.JSON(status, dto.Fail(appErr.Code, appErr.Message, appErr.Details))
	}
}
