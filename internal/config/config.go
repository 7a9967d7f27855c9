package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	Port        string
	LogLevel    string

	// 分页
	PageSize    int
	MaxPageSize int

	Wechat   WechatConfig
	Identity IdentityConfig
	Storage  StorageConfig
	STS      STSConfig

	// 上游 HTTP 调用超时
	UpstreamTimeout time.Duration

	// 登录接口限流（每个客户端 IP）
	RateLimitRPS   float64
	RateLimitBurst int

	ActiveBannerCacheTTL time.Duration
	TokenCacheSize       int
	TokenCacheTTL        time.Duration

	// 定时清理
	WishlistPurgeDays int
	CleanupSchedule   string

	CORSOrigins []string
}

// WechatConfig 微信小程序配置
type WechatConfig struct {
	AppID      string
	Secret     string
	SessionURL string
}

// IdentityConfig 外部身份服务配置，BaseURL 为空时本地生成用户 ID
type IdentityConfig struct {
	BaseURL string
}

// StorageConfig 对象存储配置（S3 兼容）
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Subdirectory    string
	SignedURLExpiry time.Duration
}

// Enabled 是否配置了对象存储
func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// STSConfig 临时凭证配置
type STSConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RoleARN         string
	RoleSessionName string
	Duration        time.Duration
}

// Enabled 是否配置了 STS
func (s STSConfig) Enabled() bool {
	return s.RoleARN != "" && s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load 加载配置
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "wristcheck")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", "your-secret-key-change-in-production")
	env := getEnv("APP_ENV", "development")

	if env == "production" && appSecret == "your-secret-key-change-in-production" {
		logrus.Warn("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:         env,
		AppSecret:   appSecret,
		DatabaseURL: getEnv("DATABASE_URL", dbURL),
		Port:        getEnv("PORT", "8888"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		PageSize:    getEnvInt("DEFAULT_PAGE_SIZE", 10),
		MaxPageSize: getEnvInt("DEFAULT_MAX_PAGE_SIZE", 100),

		Wechat: WechatConfig{
			AppID:      getEnv("WECHAT_MINI_APPID", ""),
			Secret:     getEnv("WECHAT_MINI_SECRET", ""),
			SessionURL: getEnv("WECHAT_MINI_GET_SESSION_KEY_URL", "https://api.weixin.qq.com/sns/jscode2session"),
		},
		Identity: IdentityConfig{
			BaseURL: strings.TrimRight(getEnv("WRISTCHECK_API", ""), "/"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Bucket:          getEnv("STORAGE_BUCKET", ""),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			Subdirectory:    getEnv("STORAGE_SUBDIRECTORY", "avatars"),
			SignedURLExpiry: getEnvDuration("STORAGE_SIGNED_URL_EXPIRY", 60*time.Second),
		},
		STS: STSConfig{
			Endpoint:        getEnv("STS_ENDPOINT", ""),
			Region:          getEnv("STS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("STS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STS_SECRET_ACCESS_KEY", ""),
			RoleARN:         getEnv("STS_ROLE_ARN", ""),
			RoleSessionName: getEnv("STS_ROLE_SESSION_NAME", "wristcheck-banner"),
			Duration:        getEnvDuration("STS_DURATION", time.Hour),
		},

		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		ActiveBannerCacheTTL: getEnvDuration("ACTIVE_BANNER_CACHE_TTL", 30*time.Second),
		TokenCacheSize:       getEnvInt("TOKEN_CACHE_SIZE", 1024),
		TokenCacheTTL:        getEnvDuration("TOKEN_CACHE_TTL", 5*time.Minute),

		WishlistPurgeDays: getEnvInt("WISHLIST_PURGE_DAYS", 90),
		CleanupSchedule:   getEnv("CLEANUP_SCHEDULE", "@daily"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvDuration 支持 "30s" 这类写法，纯数字按秒处理
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
