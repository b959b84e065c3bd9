package middleware

import (
	"log"
	"net/http"
	"strings"

	"StudyRoom/internal/model"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextUserKey   = "current_user"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware 必须登录；校验 token 与 redis 中的当前会话一致
func AuthMiddleware(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing or invalid authorization header"})
			return
		}
		user, err := users.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid token or account logged in elsewhere"})
			return
		}
		if err = users.Ping(c.Request.Context(), user); err != nil {
			log.Printf("ping user=%d err: %v", user.ID, err)
		}
		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

// OptionalAuth 有合法 token 时注入用户，否则为匿名用户
func OptionalAuth(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if user, err := users.Authenticate(c.Request.Context(), tokenStr); err == nil {
				_ = users.Ping(c.Request.Context(), user)
				c.Set(ContextUserKey, user)
				c.Set(ContextUserIDKey, user.ID)
			}
		}
		c.Next()
	}
}

// ConfirmedRequired 未确认邮箱的账户只能访问 auth 相关接口
func ConfirmedRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := AuthedUser(c); u != nil && !u.Confirmed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": service.ErrUnconfirmed.Error()})
			return
		}
		c.Next()
	}
}

func PermissionRequired(perm model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentUser(c)
		if !p.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": service.ErrUnauthenticated.Error()})
			return
		}
		if !p.Can(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": service.ErrNoPermission.Error()})
			return
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return PermissionRequired(model.PermAdmin)
}

// CurrentUser 未登录时返回匿名用户
func CurrentUser(c *gin.Context) model.Principal {
	if u := AuthedUser(c); u != nil {
		return u
	}
	return model.AnonymousUser{}
}

func AuthedUser(c *gin.Context) *model.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if u, ok2 := v.(*model.User); ok2 {
			return u
		}
	}
	return nil
}
