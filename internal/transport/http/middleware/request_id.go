package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkmahmud/meditech-backend/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a correlation id for log lines and support
// tickets. A caller-supplied id is reused only when it is a well-formed UUID
// so arbitrary strings never reach the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, reqID)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey{}, reqID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
