package model

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationWechatMini 微信小程序
const ApplicationWechatMini = "wechat_mini_program"

// User 用户模型
type User struct {
	ID             uuid.UUID        `json:"id" gorm:"type:varchar(36);primaryKey"`
	Username       string           `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email          *string          `json:"email" gorm:"type:varchar(254);uniqueIndex:idx_users_email_active,where:is_active = true"`
	PasswordHash   string           `json:"-" gorm:"column:password;type:varchar(128);not null"`
	IsStaff        bool             `json:"is_staff" gorm:"not null"`
	IsSuperuser    bool             `json:"is_superuser" gorm:"not null"`
	IsActive       bool             `json:"is_active" gorm:"not null"`
	DateJoined     time.Time        `json:"date_joined" gorm:"not null"`
	LastLogin      *time.Time       `json:"last_login"`
	SocialAccounts []SocialIdentity `json:"social_accounts" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// OwnerID 用户对象本身即归属者
func (u *User) OwnerID() uuid.UUID {
	return u.ID
}

// IsAdmin 员工或超级管理员
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// SocialIdentity 第三方身份，关联站内用户
type SocialIdentity struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uuid.UUID `json:"user" gorm:"type:varchar(36);not null;index"`
	ApplicationType string    `json:"application_type" gorm:"type:varchar(50);not null;uniqueIndex:idx_social_provider_open_id"`
	OpenID          string    `json:"open_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_social_provider_open_id"`
	Nickname        *string   `json:"nickname" gorm:"type:varchar(100)"`
	AvatarURL       *string   `json:"avatar_url" gorm:"type:varchar(255)"`
	Timestamped
}

// TableName 指定表名
func (SocialIdentity) TableName() string {
	return "social_identities"
}

// OwnerID 归属用户
func (s *SocialIdentity) OwnerID() uuid.UUID {
	return s.UserID
}

// AuthToken 用户访问令牌，与用户一对一
type AuthToken struct {
	Key       string    `json:"key" gorm:"type:varchar(40);primaryKey"`
	UserID    uuid.UUID `json:"user" gorm:"type:varchar(36);not null;uniqueIndex"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created"`
}

// TableName 指定表名
func (AuthToken) TableName() string {
	return "auth_tokens"
}
