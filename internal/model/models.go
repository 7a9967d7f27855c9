package model

import (
	"time"

	"github.com/google/uuid"
)

// Timestamped 通用创建/更新时间
type Timestamped struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owned 拥有归属用户的记录，用于对象级权限判断
type Owned interface {
	OwnerID() uuid.UUID
}

// All 需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&SocialIdentity{},
		&AuthToken{},
		&WishlistEntry{},
		&WatchVisitRecord{},
		&Banner{},
	}
}
