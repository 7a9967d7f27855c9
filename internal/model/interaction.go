package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistEntry 心愿单（软删除）
type WishlistEntry struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	UserID  uuid.UUID `json:"user" gorm:"type:varchar(36);not null;uniqueIndex:idx_wishlist_user_watch_active,where:deleted_at IS NULL"`
	WatchID string    `json:"watch_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_wishlist_user_watch_active,where:deleted_at IS NULL"`
	User    *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Timestamped
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName 指定表名
func (WishlistEntry) TableName() string {
	return "wishlist_entries"
}

// OwnerID 归属用户
func (w *WishlistEntry) OwnerID() uuid.UUID {
	return w.UserID
}

// WatchVisitRecord 手表浏览记录，每个 (用户, 手表) 一行，累计次数
type WatchVisitRecord struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	UserID  uuid.UUID `json:"user" gorm:"type:varchar(36);not null;uniqueIndex:idx_visit_user_watch"`
	WatchID string    `json:"watch_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_visit_user_watch"`
	Count   int       `json:"count" gorm:"not null"`
	User    *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Timestamped

	// 当前请求用户是否已收藏，查询后填充
	InWishlist bool `json:"in_wishlist" gorm:"-"`
}

// OwnerID 归属用户
func (v *WatchVisitRecord) OwnerID() uuid.UUID {
	return v.UserID
}

// WatchVisitStat 浏览统计
type WatchVisitStat struct {
	WatchID string `json:"watch_id"`
	Count   int64  `json:"count" gorm:"column:visit_count"`
}
