package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docchat/internal/pkg/ctxutil"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// RequestID 为每个请求分配 ID，沿用客户端传入的值并回写到响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set("request_id", reqID)
		c.Header(HeaderRequestID, reqID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), reqID))
		c.Next()
	}
}
