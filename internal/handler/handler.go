package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/config"
	"github.com/user/wristcheck/internal/repository"
	"github.com/user/wristcheck/internal/service"
	"github.com/user/wristcheck/internal/utils"
)

// WechatLoginer 小程序登录
type WechatLoginer interface {
	WechatLogin(ctx context.Context, code string) (*service.LoginResult, error)
}

// AvatarUploader 头像转存
type AvatarUploader interface {
	UploadFromURL(ctx context.Context, filename, url string) (*service.AvatarUpload, error)
}

// CredentialVendor 签发对象存储临时凭证
type CredentialVendor interface {
	Token(ctx context.Context) (*service.STSToken, error)
}

// Handler HTTP 处理器
type Handler struct {
	Repos   *repository.Repositories
	Config  *config.Config
	Wechat  WechatLoginer
	Avatars AvatarUploader   // 未配置对象存储时为 nil
	STS     CredentialVendor // 未配置 STS 时为 nil
	Tokens  *utils.TTLCache[uuid.UUID]
	Banners *utils.ResponseCache
}

// Options 可选的外部依赖
type Options struct {
	Wechat  WechatLoginer
	Avatars AvatarUploader
	STS     CredentialVendor
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, opts Options) *Handler {
	return &Handler{
		Repos:   repos,
		Config:  cfg,
		Wechat:  opts.Wechat,
		Avatars: opts.Avatars,
		STS:     opts.STS,
		Tokens:  utils.NewTTLCache[uuid.UUID](cfg.TokenCacheSize, cfg.TokenCacheTTL),
		Banners: utils.NewResponseCache(cfg.ActiveBannerCacheTTL),
	}
}

// listQuery 从查询参数解析分页、排序、搜索和过滤
func (h *Handler) listQuery(c *gin.Context) repository.ListQuery {
	size := h.Config.PageSize
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			size = n
		}
	}
	if h.Config.MaxPageSize > 0 && size > h.Config.MaxPageSize {
		size = h.Config.MaxPageSize
	}

	return repository.ListQuery{
		Page:     c.Query("page"),
		PageSize: size,
		Ordering: c.Query("ordering"),
		Search:   c.Query("search"),
		Filters:  c.Request.URL.Query(),
	}
}

// respondPage 输出分页结果
func respondPage[T any](c *gin.Context, page *repository.Page[T], results interface{}) {
	if results == nil {
		results = page.Results
	}
	c.JSON(http.StatusOK, utils.NewPageResponse(c, page.Count, page.Number, page.HasNext(), page.HasPrevious(), results))
}

// handleError 把仓库和服务层错误映射为响应
func (h *Handler) handleError(c *gin.Context, err error) {
	var filterErr *repository.FilterError
	switch {
	case errors.As(err, &filterErr):
		utils.BadRequest(c, utils.FieldErrors{filterErr.Field: {filterErr.Message}})
	case errors.Is(err, repository.ErrInvalidPage):
		utils.Detail(c, http.StatusNotFound, utils.MsgInvalidPage)
	case errors.Is(err, service.ErrOpenIDMissing):
		utils.ServerError(c, "Can not get wechat openid")
	case errors.Is(err, service.ErrWechatExchange):
		utils.ServerError(c, "WeChat code exchange failed")
	case errors.Is(err, service.ErrIdentitySignInUp):
		utils.ServerError(c, "Identity service sign-in failed")
	case errors.Is(err, service.ErrAvatarUpload):
		utils.ServerError(c, "Avatar upload failed")
	case errors.Is(err, service.ErrSTSDisabled), errors.Is(err, service.ErrSTSRequest):
		utils.ServerError(c, "STS token request failed")
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("请求处理失败")
		utils.ServerError(c, "")
	}
}

// parseID 解析路径中的数字 ID，非法时返回 404
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.NotFound(c)
		return 0, false
	}
	return uint(id), true
}
