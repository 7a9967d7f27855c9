package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Banner 轮播图
type Banner struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uuid.UUID  `json:"user" gorm:"type:varchar(36);not null;index"`
	User       *User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Headline   string     `json:"headline" gorm:"type:varchar(255);not null"`
	Subtitle   *string    `json:"subtitle" gorm:"type:varchar(255)"`
	BannerLink string     `json:"banner_link" gorm:"type:varchar(255);not null"`
	IsEnabled  bool       `json:"is_enabled" gorm:"not null"`
	StartDate  time.Time  `json:"start_date" gorm:"not null"`
	EndDate    *time.Time `json:"end_date"`
	Order      uint       `json:"order" gorm:"column:display_order;not null;index"` // 升序
	DeletedAt  *time.Time `json:"deleted_at" gorm:"index"`
	Timestamped
}

// OwnerID 归属用户
func (b *Banner) OwnerID() uuid.UUID {
	return b.UserID
}

// Active 启用、未删除且处于有效期内；未设置结束时间视为长期有效
func (b *Banner) Active(now time.Time) bool {
	if !b.IsEnabled || b.DeletedAt != nil {
		return false
	}
	if now.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || !now.After(*b.EndDate)
}

// MarshalJSON 输出时附带 is_active
func (b Banner) MarshalJSON() ([]byte, error) {
	type plain Banner
	return json.Marshal(struct {
		plain
		IsActive bool `json:"is_active"`
	}{plain(b), b.Active(time.Now())})
}
