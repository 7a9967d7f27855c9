package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/user/wristcheck/internal/model"
	"gorm.io/gorm"
)

type SocialRepository struct {
	db *gorm.DB
}

func NewSocialRepository(db *gorm.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

// FindByOpenID 根据应用类型和 open id 查找
func (r *SocialRepository) FindByOpenID(applicationType, openID string) (*model.SocialIdentity, error) {
	var social model.SocialIdentity
	err := r.db.Where("application_type = ? AND open_id = ?", applicationType, openID).First(&social).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &social, nil
}

// FindByUser 查找用户在某个应用下的身份
func (r *SocialRepository) FindByUser(userID uuid.UUID, applicationType string) (*model.SocialIdentity, error) {
	var social model.SocialIdentity
	err := r.db.Where("user_id = ? AND application_type = ?", userID.String(), applicationType).
		Order("id ASC").
		First(&social).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &social, nil
}

// Create 创建第三方身份，(application_type, open_id) 重复时返回 ErrDuplicate
func (r *SocialRepository) Create(social *model.SocialIdentity) error {
	if social.ApplicationType == "" {
		social.ApplicationType = model.ApplicationWechatMini
	}
	return translate(r.db.Create(social).Error)
}

// UpdateProfile 更新昵称和头像，nil 字段保持不变
func (r *SocialRepository) UpdateProfile(social *model.SocialIdentity, nickname, avatarURL *string) error {
	updates := map[string]interface{}{}
	if nickname != nil {
		updates["nickname"] = *nickname
	}
	if avatarURL != nil {
		updates["avatar_url"] = *avatarURL
	}
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.Model(social).Updates(updates).Error; err != nil {
		return err
	}
	if nickname != nil {
		social.Nickname = nickname
	}
	if avatarURL != nil {
		social.AvatarURL = avatarURL
	}
	return nil
}
