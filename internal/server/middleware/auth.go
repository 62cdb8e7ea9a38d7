package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docchat/internal/pkg/ctxutil"
	httputil "docchat/internal/pkg/http"
	"docchat/internal/pkg/jwt"
)

// HeaderUserID 未启用认证时携带用户标识的请求头
const HeaderUserID = "X-User-ID"

// Auth JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后注入 user_id 到 context
func Auth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse(httputil.CodeUnauthorized, "未授权"))
			return
		}

		// Bearer {token}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse(httputil.CodeUnauthorized, "Invalid authorization header"))
			return
		}

		claims, err := jwtUtil.ValidateToken(parts[1])
		if err != nil {
			msg := "Token无效"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token已过期"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse(httputil.CodeTokenInvalid, msg))
			return
		}

		setUserID(c, claims.UserID)
		c.Next()
	}
}

// Identity 未启用认证时的身份中间件
// 用户 ID 取自 X-User-ID，缺省为 anonymous
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			userID = ctxutil.AnonymousUserID
		}
		setUserID(c, userID)
		c.Next()
	}
}

func setUserID(c *gin.Context, userID string) {
	c.Set("user_id", userID)
	c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), userID))
}
