package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/wristcheck/internal/model"
	"gorm.io/gorm"
)

var wishlistList = listSpec{
	filters: map[string]filterField{
		"watch_id":       {cond: "watch_id = ?"},
		"user__username": {cond: "user_id IN (SELECT id FROM users WHERE username = ?)"},
	},
	search: []string{
		likeCond("watch_id"),
		"user_id IN (SELECT id FROM users WHERE " + likeCond("username") + ")",
	},
	ordering: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	defaultOrder: "-created_at",
	tiebreak:     "id DESC",
}

type WishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Create 添加心愿单，已有未删除的相同记录时返回 ErrDuplicate
func (r *WishlistRepository) Create(userID uuid.UUID, watchID string) (*model.WishlistEntry, error) {
	entry := &model.WishlistEntry{UserID: userID, WatchID: watchID}
	if err := r.db.Create(entry).Error; err != nil {
		return nil, translate(err)
	}
	return entry, nil
}

// FindByID 查找未删除的记录
func (r *WishlistRepository) FindByID(id uint) (*model.WishlistEntry, error) {
	var entry model.WishlistEntry
	err := r.db.First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// Delete 软删除
func (r *WishlistRepository) Delete(entry *model.WishlistEntry) error {
	return r.db.Delete(entry).Error
}

// List 管理端列表
func (r *WishlistRepository) List(q ListQuery) (*Page[model.WishlistEntry], error) {
	return paginate[model.WishlistEntry](r.db, q, wishlistList, nil)
}

// ListByUser 用户自己的心愿单
func (r *WishlistRepository) ListByUser(userID uuid.UUID, q ListQuery) (*Page[model.WishlistEntry], error) {
	return paginate[model.WishlistEntry](ownedBy(r.db, userID), q, wishlistList, nil)
}

// FavoriteSet 返回 watchIDs 中用户已收藏的部分
func (r *WishlistRepository) FavoriteSet(userID uuid.UUID, watchIDs []string) (map[string]bool, error) {
	set := make(map[string]bool, len(watchIDs))
	if len(watchIDs) == 0 {
		return set, nil
	}

	var found []string
	err := r.db.Model(&model.WishlistEntry{}).
		Where("user_id = ? AND watch_id IN ?", userID.String(), watchIDs).
		Pluck("watch_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

// PurgeDeleted 物理删除 before 之前软删除的记录
func (r *WishlistRepository) PurgeDeleted(before time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", before).
		Delete(&model.WishlistEntry{})
	return result.RowsAffected, result.Error
}
