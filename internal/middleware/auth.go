package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/model"
	"github.com/user/wristcheck/internal/permission"
	"github.com/user/wristcheck/internal/repository"
	"github.com/user/wristcheck/internal/utils"
)

const (
	currentUserKey = "current_user"
	// SessionUserKey 会话中保存用户 ID 的键
	SessionUserKey = "user_id"
)

// Authenticate 解析 Token/Bearer 头或会话，写入当前用户；匿名请求直接放行
func Authenticate(repos *repository.Repositories, tokens *utils.TTLCache[uuid.UUID]) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, present, msg := tokenFromHeader(c.GetHeader("Authorization"))
		if present {
			var user *model.User
			if msg == "" {
				user, msg = userForToken(repos, tokens, key)
			}
			if user == nil {
				utils.Unauthorized(c, msg)
				return
			}
			c.Set(currentUserKey, user)
			c.Next()
			return
		}

		if user := userFromSession(c, repos); user != nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

// tokenFromHeader 解析 "Token <key>" 或 "Bearer <key>"，格式错误时返回错误文案
func tokenFromHeader(header string) (key string, present bool, msg string) {
	parts := strings.Fields(header)
	if len(parts) == 0 {
		return "", false, ""
	}
	scheme := strings.ToLower(parts[0])
	if scheme != "token" && scheme != "bearer" {
		return "", false, ""
	}
	switch len(parts) {
	case 1:
		return "", true, "Invalid token header. No credentials provided."
	case 2:
		return parts[1], true, ""
	default:
		return "", true, "Invalid token header. Token string should not contain spaces."
	}
}

func userForToken(repos *repository.Repositories, tokens *utils.TTLCache[uuid.UUID], key string) (*model.User, string) {
	if userID, ok := tokens.Get(key); ok {
		user, err := repos.User.FindByID(userID)
		if err != nil {
			logrus.WithError(err).Error("加载令牌用户失败")
			return nil, "Invalid token."
		}
		if user == nil {
			tokens.Delete(key)
			return nil, "Invalid token."
		}
		if !user.IsActive {
			return nil, "User inactive or deleted."
		}
		return user, ""
	}

	token, err := repos.Token.FindByKey(key)
	if err != nil {
		logrus.WithError(err).Error("查询令牌失败")
		return nil, "Invalid token."
	}
	if token == nil || token.User == nil {
		return nil, "Invalid token."
	}
	if !token.User.IsActive {
		return nil, "User inactive or deleted."
	}
	tokens.Set(key, token.UserID)
	return token.User, ""
}

func userFromSession(c *gin.Context, repos *repository.Repositories) *model.User {
	session := sessions.Default(c)
	raw, ok := session.Get(SessionUserKey).(string)
	if !ok || raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	user, err := repos.User.FindByID(id)
	if err != nil {
		logrus.WithError(err).Error("加载会话用户失败")
		return nil
	}
	if user == nil || !user.IsActive {
		session.Delete(SessionUserKey)
		_ = session.Save()
		return nil
	}
	return user
}

// CurrentUser 当前登录用户，匿名返回 nil
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

// Authorize 视图级权限检查
func Authorize(resolver *permission.Resolver, action permission.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := permission.Check(resolver.Resolve(action), CurrentUser(c))
		if decision != permission.Allowed {
			Deny(c, decision)
			return
		}
		c.Next()
	}
}

// AuthorizeObject 对象级权限检查，失败时写响应并返回 false
func AuthorizeObject(c *gin.Context, resolver *permission.Resolver, action permission.Action, obj model.Owned) bool {
	decision := permission.CheckObject(resolver.Resolve(action), CurrentUser(c), obj)
	if decision != permission.Allowed {
		Deny(c, decision)
		return false
	}
	return true
}

// Deny 按鉴权结果返回 401 或 403
func Deny(c *gin.Context, decision permission.Decision) {
	if decision == permission.Unauthenticated {
		utils.Unauthorized(c, utils.MsgNotAuthenticated)
		return
	}
	utils.Forbidden(c)
}
