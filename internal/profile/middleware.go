package profile

import (
	"net/http"
	"time"

	"github.com/SlpAus/study-tracker-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

const (
	CookieName  = "session-token"
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
	RawTokenKey = "rawToken"
)

// LoadSessionMiddleware 读取会话Cookie并校验。
// 校验通过时把用户ID和角色放入Gin上下文；失败时不拦截请求，
// 由后续的Require*中间件决定是否拒绝。
func LoadSessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(CookieName)
		if err != nil || tokenStr == "" {
			c.Next()
			return
		}
		payload, err := token.ValidateSessionToken(tokenStr, time.Now())
		if err != nil || !IsSessionActive(tokenStr) {
			c.Next()
			return
		}
		c.Set(UserIDKey, payload.UserID)
		c.Set(UserRoleKey, payload.Role)
		c.Set(RawTokenKey, tokenStr)
		c.Next()
	}
}

// RequireUserMiddleware 要求请求携带有效会话，否则返回401。
// 响应中附带redirect字段，前端据此跳转登录页。
func RequireUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(UserIDKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "未登录或会话已失效",
				"redirect": "/login",
			})
			return
		}
		c.Next()
	}
}

// RequireAdminMiddleware 要求会话具有admin角色，否则返回403。
// 角色不符时把调用方引导回学生面板，而不是登录页。
func RequireAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(UserRoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "未登录或会话已失效",
				"redirect": "/login",
			})
			return
		}
		if role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "没有访问管理面板的权限",
				"redirect": "/student/dashboard",
			})
			return
		}
		c.Next()
	}
}
