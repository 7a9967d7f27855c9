package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/metrics"
	"github.com/user/wristcheck/internal/repository"
)

// CleanupService 定时清理服务
type CleanupService struct {
	repos     *repository.Repositories
	purgeDays int
	schedule  string
	cron      *cron.Cron
	hooks     []func()
}

// NewCleanupService purgeDays <= 0 时不清理心愿单；hooks 在每轮清理后执行
func NewCleanupService(repos *repository.Repositories, purgeDays int, schedule string, hooks ...func()) *CleanupService {
	return &CleanupService{
		repos:     repos,
		purgeDays: purgeDays,
		schedule:  schedule,
		cron:      cron.New(),
		hooks:     hooks,
	}
}

// Start 启动定时清理任务
func (s *CleanupService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunCleanup() }); err != nil {
		return err
	}
	s.cron.Start()

	// 启动时先运行一次
	go s.RunCleanup()
	return nil
}

// Stop 停止调度，返回的 context 在运行中的任务结束后关闭
func (s *CleanupService) Stop() context.Context {
	return s.cron.Stop()
}

// RunCleanup 执行一轮清理，返回删除的行数
func (s *CleanupService) RunCleanup() int64 {
	logrus.Info("[CleanupService] 开始清理过期数据...")

	var purged int64
	if s.purgeDays > 0 {
		before := time.Now().UTC().AddDate(0, 0, -s.purgeDays)
		affected, err := s.repos.Wishlist.PurgeDeleted(before)
		if err != nil {
			logrus.WithError(err).Error("[CleanupService] 清理已删除心愿单失败")
		} else {
			purged = affected
			metrics.RecordPurged("wishlist_entries", affected)
			logrus.Infof("[CleanupService] 已清理 %d 条超过 %d 天的已删除心愿单", affected, s.purgeDays)
		}
	}

	for _, hook := range s.hooks {
		hook()
	}
	return purged
}
