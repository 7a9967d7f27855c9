package repository

import (
	"errors"
	"time"

	"github.com/user/wristcheck/internal/model"
	"gorm.io/gorm"
)

var bannerList = listSpec{
	filters: map[string]filterField{
		"is_enabled": {cond: "is_enabled = ?", kind: filterBool},
		"user_id":    {cond: "user_id = ?", kind: filterUUID},
		"headline":   {cond: "headline = ?"},
		"subtitle":   {cond: "subtitle = ?"},
	},
	search: []string{likeCond("headline"), likeCond("subtitle")},
	ordering: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"order":      "display_order",
	},
	defaultOrder: "-created_at",
	tiebreak:     "id DESC",
}

var activeBannerList = listSpec{
	defaultOrder: "order",
	ordering:     map[string]string{"order": "display_order"},
	tiebreak:     "id ASC",
}

type BannerRepository struct {
	db *gorm.DB
}

func NewBannerRepository(db *gorm.DB) *BannerRepository {
	return &BannerRepository{db: db}
}

// Create 创建轮播图
func (r *BannerRepository) Create(banner *model.Banner) error {
	return r.db.Create(banner).Error
}

// FindByID 根据 ID 查找，包含已软删除的记录
func (r *BannerRepository) FindByID(id uint) (*model.Banner, error) {
	var banner model.Banner
	err := r.db.First(&banner, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &banner, nil
}

// Save 保存全部字段
func (r *BannerRepository) Save(banner *model.Banner) error {
	return r.db.Save(banner).Error
}

// Delete 物理删除
func (r *BannerRepository) Delete(banner *model.Banner) error {
	return r.db.Delete(banner).Error
}

// List 管理端列表，包含已软删除的记录
func (r *BannerRepository) List(q ListQuery) (*Page[model.Banner], error) {
	return paginate[model.Banner](r.db, q, bannerList, nil)
}

// ListActive 当前生效的轮播图，按 order 升序；忽略客户端排序和过滤参数
func (r *BannerRepository) ListActive(now time.Time, q ListQuery) (*Page[model.Banner], error) {
	db := r.db.Where("is_enabled = ? AND deleted_at IS NULL AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)",
		true, now, now).Session(&gorm.Session{})
	q.Ordering = ""
	return paginate[model.Banner](db, q, activeBannerList, nil)
}
