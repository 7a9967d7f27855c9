package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/user/wristcheck/internal/handler"
	"github.com/user/wristcheck/internal/metrics"
	"github.com/user/wristcheck/internal/middleware"
	"github.com/user/wristcheck/internal/permission"
)

// sessionName 会话 Cookie 名
const sessionName = "wristcheck_session"

// New 创建 Gin 引擎，挂载全局中间件并注册路由
func New(h *handler.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(cors.New(corsConfig(h.Config.CORSOrigins)))

	store := cookie.NewStore([]byte(h.Config.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 14, // 14 天
		HttpOnly: true,
		Secure:   h.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.Use(middleware.Logger())
	r.Use(middleware.Authenticate(h.Repos, h.Tokens))

	RegisterRoutes(r, h)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// metricsPermissions 指标仅对管理员开放
var metricsPermissions = &permission.Resolver{Policies: map[permission.Action][]permission.Policy{
	permission.ActionList: {permission.IsAdminUser},
}}

// RegisterRoutes 注册所有路由；静态路径写在 :id 之前
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.Authorize(metricsPermissions, permission.ActionList), gin.WrapH(metrics.Handler()))

	limiter := middleware.NewRateLimiter(h.Config.RateLimitRPS, h.Config.RateLimitBurst)

	// ==================== 账户 ====================
	user := r.Group("/user")
	{
		can := authorizer(handler.UserPermissions)
		user.GET("/", can(permission.ActionList), h.ListUsers)
		user.POST("/login/", limiter.Handler(), can(permission.ActionLogin), h.Login)
		user.POST("/logout/", can(permission.ActionLogout), h.Logout)
		user.POST("/wechat_mini_login/", limiter.Handler(), can(permission.ActionWechatLogin), h.WechatMiniLogin)
		user.GET("/profile/", can(permission.ActionProfile), h.Profile)
		user.POST("/wechat_profile/", can(permission.ActionWechatProfile), h.WechatProfile)
		user.GET("/:id/", can(permission.ActionRetrieve), h.GetUser)
	}

	// ==================== 心愿单 ====================
	wishlist := r.Group("/wishlist")
	{
		can := authorizer(handler.WishlistPermissions)
		wishlist.GET("/", can(permission.ActionList), h.ListWishlist)
		wishlist.POST("/", can(permission.ActionCreate), h.CreateWishlist)
		wishlist.POST("/add/", can(permission.ActionAdd), h.AddWishlist)
		wishlist.GET("/my_own/", can(permission.ActionMyOwn), h.MyWishlist)
		wishlist.GET("/favorite_status/", can(permission.ActionFavoriteStatus), h.FavoriteStatus)
		wishlist.GET("/:id/", can(permission.ActionRetrieve), h.GetWishlist)
		wishlist.DELETE("/:id/", can(permission.ActionDestroy), h.DeleteWishlist)
	}

	// ==================== 浏览记录 ====================
	track := r.Group("/track/watch-visit")
	{
		can := authorizer(handler.TrackPermissions)
		track.GET("/", can(permission.ActionList), h.ListWatchVisits)
		track.POST("/", can(permission.ActionCreate), h.CreateWatchVisit)
		track.POST("/add/", can(permission.ActionAdd), h.AddWatchVisit)
		track.GET("/my_own/", can(permission.ActionMyOwn), h.MyWatchVisits)
		track.GET("/analytics/", can(permission.ActionAnalytics), h.WatchVisitAnalytics)
		track.GET("/:id/", can(permission.ActionRetrieve), h.GetWatchVisit)
		track.DELETE("/:id/", can(permission.ActionDestroy), h.DeleteWatchVisit)
	}

	// ==================== 轮播图 ====================
	banner := r.Group("/banner")
	{
		can := authorizer(handler.BannerPermissions)
		banner.GET("/", can(permission.ActionList), h.ListBanners)
		banner.POST("/", can(permission.ActionCreate), h.CreateBanner)
		banner.GET("/active_banners/", can(permission.ActionActiveBanners), h.ActiveBanners)
		banner.GET("/sts_token/", can(permission.ActionStsToken), h.StsToken)
		banner.GET("/:id/", can(permission.ActionRetrieve), h.GetBanner)
		banner.PUT("/:id/", can(permission.ActionUpdate), h.UpdateBanner)
		banner.PATCH("/:id/", can(permission.ActionPartialUpdate), h.PatchBanner)
		banner.DELETE("/:id/", can(permission.ActionDestroy), h.DeleteBanner)
		banner.POST("/:id/soft_destroy/", can(permission.ActionSoftDestroy), h.SoftDestroyBanner)
	}
}

func authorizer(resolver *permission.Resolver) func(permission.Action) gin.HandlerFunc {
	return func(action permission.Action) gin.HandlerFunc {
		return middleware.Authorize(resolver, action)
	}
}
