package middleware

import (
	"net/http"

	"task_tracker/internal/apierror"
	"task_tracker/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with c.Error as the API error
// envelope. Internal causes are logged, never sent.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		apiErr := apierror.From(c.Errors.Last().Err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Error("request failed",
				"error", apiErr.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(apiErr.Status, apiErr.Body())
	}
}

// Recovery turns panics into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error("panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		e := apierror.Internal(http.StatusText(http.StatusInternalServerError), nil)
		c.AbortWithStatusJSON(e.Status, e.Body())
	})
}

// NotFound is the fallback for unknown routes.
func NotFound(c *gin.Context) {
	_ = c.Error(apierror.NotFound("Route not found"))
}
