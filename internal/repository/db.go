package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// nowFunc 统一使用 UTC，SQLite 按文本比较时间
var nowFunc = func() time.Time {
	return time.Now().UTC()
}

// InitDB 初始化数据库连接并迁移表结构
// postgres:// 走 lib/pq，file: / sqlite: 走内嵌 SQLite（开发与测试）
func InitDB(databaseURL string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		NowFunc:        nowFunc,
		Logger:         newGormLogger(),
	}

	var (
		db  *gorm.DB
		err error
	)
	if isSQLite(databaseURL) {
		db, err = gorm.Open(sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite:")), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("无法打开 SQLite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite 单写者，串行化连接避免 database is locked
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("无法连接数据库: %w", err)
		}

		// 测试连接
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("数据库 ping 失败: %w", err)
		}

		// 设置连接池
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)

		db, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("gorm 初始化失败: %w", err)
		}
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	logrus.Info("数据库迁移完成")

	return db, nil
}

// newGormLogger 输出到 logrus，未找到记录属于正常分支不记日志
func newGormLogger() logger.Interface {
	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func isSQLite(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "file:") || strings.HasPrefix(databaseURL, "sqlite:")
}

// Repositories 仓库集合
type Repositories struct {
	DB         *gorm.DB
	User       *UserRepository
	Social     *SocialRepository
	Token      *TokenRepository
	Wishlist   *WishlistRepository
	WatchVisit *WatchVisitRepository
	Banner     *BannerRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:         db,
		User:       NewUserRepository(db),
		Social:     NewSocialRepository(db),
		Token:      NewTokenRepository(db),
		Wishlist:   NewWishlistRepository(db),
		WatchVisit: NewWatchVisitRepository(db),
		Banner:     NewBannerRepository(db),
	}
}

// Transaction 在单个事务中执行 fn，fn 内只能使用传入的仓库集合
func (r *Repositories) Transaction(fn func(tx *Repositories) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
