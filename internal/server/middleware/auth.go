package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reelforge/internal/pkg/ctxutil"
	"reelforge/internal/pkg/jwt"
)

// Auth JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后注入调用方标识到 context
func Auth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40101,
				"message": "未授权",
			})
			return
		}

		// 提取 Token（Bearer {token}）
		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || scheme != "Bearer" || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40101,
				"message": "Invalid authorization header",
			})
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			code := 40102
			if errors.Is(err, jwt.ErrExpiredToken) {
				code = 40103
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    code,
				"message": "Token无效或已过期",
			})
			return
		}

		c.Set("subject", claims.Subject)
		c.Request = c.Request.WithContext(ctxutil.WithSubject(c.Request.Context(), claims.Subject))
		c.Next()
	}
}
