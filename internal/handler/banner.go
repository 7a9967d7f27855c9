package handler

import (
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/user/wristcheck/internal/middleware"
	"github.com/user/wristcheck/internal/model"
	"github.com/user/wristcheck/internal/permission"
	"github.com/user/wristcheck/internal/service"
	"github.com/user/wristcheck/internal/utils"
)

// BannerPermissions 轮播图接口权限，仅 active_banners 公开
var BannerPermissions = &permission.Resolver{Policies: map[permission.Action][]permission.Policy{
	permission.ActionList:          {permission.IsAdminUser},
	permission.ActionRetrieve:      {permission.IsAdminUser},
	permission.ActionCreate:        {permission.IsAdminUser},
	permission.ActionUpdate:        {permission.IsAdminUser},
	permission.ActionPartialUpdate: {permission.IsAdminUser},
	permission.ActionDestroy:       {permission.IsAdminUser},
	permission.ActionStsToken:      {permission.IsAdminUser},
	permission.ActionSoftDestroy:   {permission.IsAdminUser},
	permission.ActionActiveBanners: {permission.AllowAny},
}}

const maxSubtitleLen = 255

// bannerRequest 创建和整体更新；未提供的可选字段在更新时保持不变，
// 可空字段显式传 null 时置空
type bannerRequest struct {
	User       *string                   `json:"user" binding:"omitempty,uuid"`
	Headline   string                    `json:"headline" binding:"required,max=255"`
	Subtitle   utils.Nullable[string]    `json:"subtitle"`
	BannerLink string                    `json:"banner_link" binding:"required,max=255"`
	IsEnabled  *bool                     `json:"is_enabled"`
	StartDate  *time.Time                `json:"start_date"`
	EndDate    utils.Nullable[time.Time] `json:"end_date"`
	Order      *uint                     `json:"order"`
}

// bannerPatch 部分更新
type bannerPatch struct {
	User       *string                   `json:"user" binding:"omitempty,uuid"`
	Headline   *string                   `json:"headline" binding:"omitempty,max=255"`
	Subtitle   utils.Nullable[string]    `json:"subtitle"`
	BannerLink *string                   `json:"banner_link" binding:"omitempty,max=255"`
	IsEnabled  *bool                     `json:"is_enabled"`
	StartDate  *time.Time                `json:"start_date"`
	EndDate    utils.Nullable[time.Time] `json:"end_date"`
	Order      *uint                     `json:"order"`
	DeletedAt  utils.Nullable[time.Time] `json:"deleted_at"`
}

// ListBanners 管理端列表，包含已软删除的
func (h *Handler) ListBanners(c *gin.Context) {
	page, err := h.Repos.Banner.List(h.listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondPage(c, page, nil)
}

// CreateBanner 创建轮播图
func (h *Handler) CreateBanner(c *gin.Context) {
	var req bannerRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	banner := &model.Banner{
		UserID:    middleware.CurrentUser(c).ID,
		IsEnabled: true,
		StartDate: time.Now().UTC(),
	}
	if !h.applyBanner(c, banner, req) {
		return
	}
	if err := h.Repos.Banner.Create(banner); err != nil {
		h.handleError(c, err)
		return
	}

	h.Banners.Flush()
	c.JSON(http.StatusCreated, banner)
}

// GetBanner 轮播图详情
func (h *Handler) GetBanner(c *gin.Context) {
	banner, ok := h.loadBanner(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, banner)
}

// UpdateBanner 整体更新
func (h *Handler) UpdateBanner(c *gin.Context) {
	banner, ok := h.loadBanner(c)
	if !ok {
		return
	}
	var req bannerRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	if !h.applyBanner(c, banner, req) {
		return
	}
	h.saveBanner(c, banner)
}

// PatchBanner 部分更新
func (h *Handler) PatchBanner(c *gin.Context) {
	banner, ok := h.loadBanner(c)
	if !ok {
		return
	}
	var req bannerPatch
	if !utils.BindJSON(c, &req) {
		return
	}
	if !h.patchBanner(c, banner, req) {
		return
	}
	h.saveBanner(c, banner)
}

// SoftDestroyBanner 标记删除，走部分更新的流程
func (h *Handler) SoftDestroyBanner(c *gin.Context) {
	banner, ok := h.loadBanner(c)
	if !ok {
		return
	}
	if !h.patchBanner(c, banner, bannerPatch{DeletedAt: utils.Of(time.Now().UTC())}) {
		return
	}
	h.saveBanner(c, banner)
}

// DeleteBanner 物理删除
func (h *Handler) DeleteBanner(c *gin.Context) {
	banner, ok := h.loadBanner(c)
	if !ok {
		return
	}
	if err := h.Repos.Banner.Delete(banner); err != nil {
		h.handleError(c, err)
		return
	}
	h.Banners.Flush()
	c.Status(http.StatusNoContent)
}

// ActiveBanners 当前生效的轮播图，短时缓存
func (h *Handler) ActiveBanners(c *gin.Context) {
	key := c.Request.Host + c.Request.URL.RequestURI()
	if cached, ok := h.Banners.Get(key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	page, err := h.Repos.Banner.ListActive(time.Now().UTC(), h.listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	resp := utils.NewPageResponse(c, page.Count, page.Number, page.HasNext(), page.HasPrevious(), page.Results)
	h.Banners.Set(key, resp)
	c.JSON(http.StatusOK, resp)
}

// StsToken 签发对象存储临时凭证
func (h *Handler) StsToken(c *gin.Context) {
	if h.STS == nil {
		h.handleError(c, service.ErrSTSDisabled)
		return
	}
	token, err := h.STS.Token(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *Handler) loadBanner(c *gin.Context) (*model.Banner, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	banner, err := h.Repos.Banner.FindByID(id)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	if banner == nil {
		utils.NotFound(c)
		return nil, false
	}
	return banner, true
}

func (h *Handler) saveBanner(c *gin.Context, banner *model.Banner) {
	if err := h.Repos.Banner.Save(banner); err != nil {
		h.handleError(c, err)
		return
	}
	h.Banners.Flush()
	c.JSON(http.StatusOK, banner)
}

func (h *Handler) applyBanner(c *gin.Context, banner *model.Banner, req bannerRequest) bool {
	return h.patchBanner(c, banner, bannerPatch{
		User:       req.User,
		Headline:   &req.Headline,
		Subtitle:   req.Subtitle,
		BannerLink: &req.BannerLink,
		IsEnabled:  req.IsEnabled,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Order:      req.Order,
	})
}

// patchBanner 把提供了的字段写入 banner，校验失败时写 400 并返回 false
func (h *Handler) patchBanner(c *gin.Context, banner *model.Banner, req bannerPatch) bool {
	if req.User != nil {
		userID, ok := h.existingUser(c, *req.User)
		if !ok {
			return false
		}
		banner.UserID = userID
	}
	if req.Headline != nil {
		banner.Headline = *req.Headline
	}
	if req.Subtitle.Set {
		banner.Subtitle = req.Subtitle.Value
	}
	if req.BannerLink != nil {
		banner.BannerLink = *req.BannerLink
	}
	if req.IsEnabled != nil {
		banner.IsEnabled = *req.IsEnabled
	}
	if req.StartDate != nil {
		banner.StartDate = req.StartDate.UTC()
	}
	if req.EndDate.Set {
		banner.EndDate = utcPtr(req.EndDate.Value)
	}
	if req.Order != nil {
		banner.Order = *req.Order
	}
	if req.DeletedAt.Set {
		banner.DeletedAt = utcPtr(req.DeletedAt.Value)
	}

	errs := utils.FieldErrors{}
	if banner.Subtitle != nil && utf8.RuneCountInString(*banner.Subtitle) > maxSubtitleLen {
		errs.Add("subtitle", fmt.Sprintf("Ensure this field has no more than %d characters.", maxSubtitleLen))
	}
	if banner.Headline == "" {
		errs.Add("headline", "This field may not be blank.")
	}
	if banner.BannerLink == "" {
		errs.Add("banner_link", "This field may not be blank.")
	}
	if banner.EndDate != nil && banner.EndDate.Before(banner.StartDate) {
		errs.Add("end_date", "End date must not be before start date.")
	}
	if len(errs) > 0 {
		utils.BadRequest(c, errs)
		return false
	}
	return true
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
