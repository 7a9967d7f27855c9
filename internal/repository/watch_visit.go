package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/wristcheck/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 统计周期
const (
	PeriodDay     = "day"
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

var periodDays = map[string]int{
	PeriodDay:     1,
	PeriodWeek:    7,
	PeriodMonth:   30,
	PeriodQuarter: 90,
	PeriodYear:    365,
}

// PeriodStart 统计窗口起点，未知周期按月
func PeriodStart(period string, now time.Time) time.Time {
	days, ok := periodDays[period]
	if !ok {
		days = periodDays[PeriodMonth]
	}
	return now.AddDate(0, 0, -days)
}

var watchVisitList = listSpec{
	filters: map[string]filterField{
		"user_id":  {cond: "user_id = ?", kind: filterUUID},
		"watch_id": {cond: "watch_id = ?"},
	},
	search: []string{likeCond("watch_id")},
	ordering: map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"count":      "count",
	},
	defaultOrder: "-created_at",
	tiebreak:     "id DESC",
}

type WatchVisitRepository struct {
	db *gorm.DB
}

func NewWatchVisitRepository(db *gorm.DB) *WatchVisitRepository {
	return &WatchVisitRepository{db: db}
}

// Record 记录一次浏览：不存在则插入 count=1，否则 count+1 并刷新 updated_at
func (r *WatchVisitRepository) Record(userID uuid.UUID, watchID string) (*model.WatchVisitRecord, error) {
	now := nowFunc()
	record := &model.WatchVisitRecord{
		UserID:      userID,
		WatchID:     watchID,
		Count:       1,
		Timestamped: model.Timestamped{CreatedAt: now, UpdatedAt: now},
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "watch_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("watch_visit_records.count + 1"),
			"updated_at": now,
		}),
	}).Create(record).Error
	if err != nil {
		return nil, err
	}

	// 冲突更新时主键和计数不会回填，重新读取
	var saved model.WatchVisitRecord
	if err := r.db.Where("user_id = ? AND watch_id = ?", userID.String(), watchID).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// Create 管理端直接创建
func (r *WatchVisitRepository) Create(record *model.WatchVisitRecord) error {
	if record.Count < 1 {
		record.Count = 1
	}
	return translate(r.db.Create(record).Error)
}

// FindByID 根据 ID 查找
func (r *WatchVisitRepository) FindByID(id uint) (*model.WatchVisitRecord, error) {
	var record model.WatchVisitRecord
	err := r.db.First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Delete 物理删除
func (r *WatchVisitRepository) Delete(record *model.WatchVisitRecord) error {
	return r.db.Delete(record).Error
}

// List 管理端列表
func (r *WatchVisitRepository) List(q ListQuery) (*Page[model.WatchVisitRecord], error) {
	return paginate[model.WatchVisitRecord](r.db, q, watchVisitList, nil)
}

// ListByUser 用户自己的浏览记录
func (r *WatchVisitRepository) ListByUser(userID uuid.UUID, q ListQuery) (*Page[model.WatchVisitRecord], error) {
	return paginate[model.WatchVisitRecord](ownedBy(r.db, userID), q, watchVisitList, nil)
}

// Analytics 统计窗口内各手表的浏览次数，按次数降序
func (r *WatchVisitRepository) Analytics(since time.Time, q ListQuery) (*Page[model.WatchVisitStat], error) {
	scope, err := watchVisitList.scope(q)
	if err != nil {
		return nil, err
	}
	base := func() *gorm.DB {
		return r.db.Model(&model.WatchVisitRecord{}).
			Scopes(scope).
			Where("updated_at >= ?", since).
			Group("watch_id")
	}

	var count int64
	if err := r.db.Table("(?) AS grouped", base().Select("watch_id")).Count(&count).Error; err != nil {
		return nil, err
	}

	number, size, numPages, err := pageBounds(count, q)
	if err != nil {
		return nil, err
	}

	stats := make([]model.WatchVisitStat, 0, size)
	err = base().
		Select("watch_id, SUM(count) AS visit_count").
		Order("visit_count DESC, watch_id ASC").
		Limit(size).
		Offset((number - 1) * size).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	return &Page[model.WatchVisitStat]{
		Count:    count,
		Number:   number,
		Size:     size,
		NumPages: numPages,
		Results:  stats,
	}, nil
}
