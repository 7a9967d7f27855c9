package repository

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"github.com/user/wristcheck/internal/model"
	"gorm.io/gorm"
)

const tokenCreateAttempts = 3

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// FindByKey 根据 key 查找令牌，附带用户
func (r *TokenRepository) FindByKey(key string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.Preload("User").Where("key = ?", key).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &token, nil
}

// FindByUser 查找用户的令牌
func (r *TokenRepository) FindByUser(userID uuid.UUID) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.Where("user_id = ?", userID.String()).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &token, nil
}

// GetOrCreate 返回用户唯一的令牌，首次调用时生成
// 插入放在 savepoint 里，冲突后外层事务仍可继续读取
func (r *TokenRepository) GetOrCreate(userID uuid.UUID) (*model.AuthToken, error) {
	for attempt := 0; attempt < tokenCreateAttempts; attempt++ {
		token, err := r.FindByUser(userID)
		if err != nil || token != nil {
			return token, err
		}

		key, err := generateKey()
		if err != nil {
			return nil, err
		}
		token = &model.AuthToken{Key: key, UserID: userID, CreatedAt: nowFunc()}
		err = r.db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(token).Error
		})
		if err == nil {
			return token, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
		// 并发创建或 key 碰撞，重新读取
	}

	return nil, ErrDuplicate
}

func generateKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
