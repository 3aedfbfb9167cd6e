package middleware

import (
	"strings"

	"Lee_Events/internal/pkg"
	"Lee_Events/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware 带了有效token就注入 user_id，没带不拦截。
// 搜索接口用：OPEN/ARCHIVE 匿名可查，MY_EVENTS/ATTENDING 由 service 判定登录态
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		tokenStr := parts[1]
		claims, err := pkg.ParseAccess(tokenStr)
		if err != nil {
			c.Next()
			return
		}

		// redis校验是否是当前会话的token
		userRep := &redis.UserRepository{}
		originToken, err := userRep.GetUserToken(claims.UserID)
		if err != nil || originToken != tokenStr {
			c.Next()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}
