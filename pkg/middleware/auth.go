package middleware

import (
	"net/http"
	"strings"

	"betting_assistant/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	loginPath     = "/api/v1/auth/login"
	websocketPath = "/ws"
	contextUser   = "username"
)

// AuthMiddleware 校验 /api 和 /ws 的 JWT，前端页面和登录接口放行
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isPublicPath(path) {
			c.Next()
			return
		}

		tokenString, code, message := extractToken(c, path)
		if tokenString == "" {
			abortUnauthorized(c, code, message)
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			logrus.WithField("path", path).Warnf("Token验证失败: %v", err)
			abortUnauthorized(c, "INVALID_TOKEN", "无效的token")
			return
		}

		c.Set(contextUser, claims.Username)
		c.Next()
	}
}

// isPublicPath 只有 /api/* 和 /ws 需要登录
func isPublicPath(path string) bool {
	if path == loginPath {
		return true
	}
	return !strings.HasPrefix(path, "/api/") && path != websocketPath
}

// extractToken 浏览器无法给 WebSocket 握手加请求头，/ws 从 query 读取 token
func extractToken(c *gin.Context, path string) (token, code, message string) {
	if path == websocketPath {
		if token = c.Query("token"); token == "" {
			return "", "MISSING_TOKEN_PARAM", "缺少token参数"
		}
		return token, "", ""
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "MISSING_AUTH_HEADER", "缺少Authorization头"
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", "INVALID_AUTH_FORMAT", "无效的Authorization格式，应为 'Bearer <token>'"
	}
	return strings.TrimSpace(token), "", ""
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  code,
	})
}

// GetCurrentUser 从上下文中获取当前用户
func GetCurrentUser(c *gin.Context) string {
	if username, ok := c.Get(contextUser); ok {
		if name, ok := username.(string); ok {
			return name
		}
	}
	return ""
}
