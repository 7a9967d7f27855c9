package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/config"
	"github.com/user/wristcheck/internal/handler"
	"github.com/user/wristcheck/internal/repository"
	"github.com/user/wristcheck/internal/router"
	"github.com/user/wristcheck/internal/service"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		logrus.Info("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()
	setupLogger(cfg)

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("数据库连接失败")
	}

	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 外部服务
	ctx := context.Background()
	opts := handler.Options{
		Wechat: service.NewReconciler(repos,
			service.NewWechatClient(cfg.Wechat, cfg.UpstreamTimeout),
			identityIssuer(cfg)),
	}
	if storage, err := service.NewAvatarStorage(ctx, cfg.Storage, cfg.UpstreamTimeout); err == nil {
		opts.Avatars = storage
	} else {
		logrus.WithError(err).Warn("对象存储未启用，头像地址原样保存")
	}
	if sts, err := service.NewSTSService(ctx, cfg.STS); err == nil {
		opts.STS = sts
	} else {
		logrus.WithError(err).Warn("STS 未启用")
	}

	// 初始化 Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(repos, cfg, opts)
	r := router.New(h)

	// 启动定时清理任务，清理后刷新轮播图缓存
	cleanupSvc := service.NewCleanupService(repos, cfg.WishlistPurgeDays, cfg.CleanupSchedule, h.Banners.Flush)
	if err := cleanupSvc.Start(); err != nil {
		logrus.WithError(err).Fatal("清理任务启动失败")
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		logrus.Infof("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("服务器启动失败")
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("正在关闭服务器...")

	<-cleanupSvc.Stop().Done()

	// 5 秒超时上下文用于关闭过程
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("服务器强制关闭")
	}

	logrus.Info("服务器已退出")
}

func setupLogger(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// identityIssuer 未配置身份服务时返回 nil，由本地生成用户 ID
func identityIssuer(cfg *config.Config) service.IdentityIssuer {
	if cfg.Identity.BaseURL == "" {
		return nil
	}
	return service.NewIdentityClient(cfg.Identity, cfg.UpstreamTimeout)
}
