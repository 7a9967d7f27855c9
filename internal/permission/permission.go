// Package permission 把控制器动作映射到权限策略。
//
// 每个控制器声明一张 Action -> []Policy 的表，请求进来时按动作取出策略，
// 所有策略都通过才放行。表里没有的动作默认拒绝；需要放行的动作必须显式写 AllowAny。
package permission

import (
	"github.com/user/wristcheck/internal/model"
)

// Action 控制器动作
type Action string

const (
	ActionList           Action = "list"
	ActionRetrieve       Action = "retrieve"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionPartialUpdate  Action = "partial_update"
	ActionDestroy        Action = "destroy"
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionWechatLogin    Action = "wechat_mini_login"
	ActionProfile        Action = "profile"
	ActionWechatProfile  Action = "wechat_profile"
	ActionAdd            Action = "add"
	ActionMyOwn          Action = "my_own"
	ActionFavoriteStatus Action = "favorite_status"
	ActionAnalytics      Action = "analytics"
	ActionActiveBanners  Action = "active_banners"
	ActionStsToken       Action = "sts_token"
	ActionSoftDestroy    Action = "soft_destroy"
)

// Policy 权限策略
type Policy int

const (
	// DenyAll 拒绝所有调用方，未映射动作的默认策略
	DenyAll Policy = iota
	// AllowAny 不做限制
	AllowAny
	// IsAuthenticated 必须登录
	IsAuthenticated
	// IsAdminUser 员工或超级管理员
	IsAdminUser
	// IsOwnerOrAdminUser 对象归属者或员工（对象级）
	IsOwnerOrAdminUser
)

func (p Policy) String() string {
	switch p {
	case AllowAny:
		return "AllowAny"
	case IsAuthenticated:
		return "IsAuthenticated"
	case IsAdminUser:
		return "IsAdminUser"
	case IsOwnerOrAdminUser:
		return "IsOwnerOrAdminUser"
	default:
		return "DenyAll"
	}
}

// Decision 鉴权结果
type Decision int

const (
	Allowed Decision = iota
	// Unauthenticated 匿名调用方被拒绝，对应 401
	Unauthenticated
	// Forbidden 已登录但权限不足，对应 403
	Forbidden
)

// Resolver 动作到策略的映射
type Resolver struct {
	Policies map[Action][]Policy
	// Fallback 未映射动作使用的策略，为空时拒绝
	Fallback []Policy
}

// Resolve 取出动作对应的策略
func (r *Resolver) Resolve(action Action) []Policy {
	if policies, ok := r.Policies[action]; ok && len(policies) > 0 {
		return policies
	}
	if len(r.Fallback) > 0 {
		return r.Fallback
	}
	return []Policy{DenyAll}
}

// Check 视图级检查；对象级策略在这一步放行，留给 CheckObject
func Check(policies []Policy, user *model.User) Decision {
	for _, p := range policies {
		if !allowed(p, user) {
			return deny(user)
		}
	}
	return Allowed
}

// CheckObject 视图级加对象级检查
func CheckObject(policies []Policy, user *model.User, obj model.Owned) Decision {
	for _, p := range policies {
		if !allowed(p, user) {
			return deny(user)
		}
		if p == IsOwnerOrAdminUser && !ownerOrAdmin(user, obj) {
			return deny(user)
		}
	}
	return Allowed
}

func allowed(p Policy, user *model.User) bool {
	switch p {
	case AllowAny, IsOwnerOrAdminUser:
		return true
	case IsAuthenticated:
		return user != nil
	case IsAdminUser:
		return user != nil && user.IsAdmin()
	default:
		return false
	}
}

func ownerOrAdmin(user *model.User, obj model.Owned) bool {
	if user == nil || obj == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return obj.OwnerID() == user.ID
}

func deny(user *model.User) Decision {
	if user == nil {
		return Unauthenticated
	}
	return Forbidden
}
