package user

import (
	"strings"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// AuthHeader 携带 "Bearer <jwt>"
	AuthHeader = "Authorization"
	// UserKey 是 gin 上下文中保存当前用户的键
	UserKey = "currentUser"
)

// LoadUserMiddleware 解析登录令牌，并把对应的用户放入 gin 上下文。
// 没有令牌或令牌无效时视为匿名访问。
func LoadUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(AuthHeader)
		if !strings.HasPrefix(raw, "Bearer ") {
			c.Next()
			return
		}

		claims, err := token.ParseJWT(strings.TrimPrefix(raw, "Bearer "))
		if err != nil {
			log.Debug().Err(err).Msg("忽略无效的登录令牌")
			c.Next()
			return
		}

		u, err := FindByID(database.DB, claims.UserID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if u != nil {
			c.Set(UserKey, u)
		}
		c.Next()
	}
}

// RequireUserMiddleware 拒绝未登录的请求，必须放在 LoadUserMiddleware 之后
func RequireUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			apperr.Respond(c, apperr.Unauthorized("Please log in."))
			return
		}
		c.Next()
	}
}

// RequireAdminMiddleware 只允许管理员访问
func RequireAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			apperr.Respond(c, apperr.Unauthorized("Please log in."))
			return
		}
		if !u.IsAdmin() {
			apperr.Respond(c, apperr.Forbidden("Admins only."))
			return
		}
		c.Next()
	}
}

// CurrentUser 返回当前登录的用户，匿名时返回 nil
func CurrentUser(c *gin.Context) *KeyUser {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*KeyUser)
	return u
}
