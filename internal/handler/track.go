package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/wristcheck/internal/middleware"
	"github.com/user/wristcheck/internal/model"
	"github.com/user/wristcheck/internal/permission"
	"github.com/user/wristcheck/internal/repository"
	"github.com/user/wristcheck/internal/utils"
)

// TrackPermissions 浏览记录接口权限
var TrackPermissions = &permission.Resolver{Policies: map[permission.Action][]permission.Policy{
	permission.ActionList:      {permission.IsAdminUser},
	permission.ActionRetrieve:  {permission.IsOwnerOrAdminUser},
	permission.ActionCreate:    {permission.IsAdminUser},
	permission.ActionDestroy:   {permission.IsAdminUser},
	permission.ActionAdd:       {permission.IsAuthenticated},
	permission.ActionMyOwn:     {permission.IsAuthenticated},
	permission.ActionAnalytics: {permission.IsAdminUser},
}}

type watchVisitCreateRequest struct {
	User    string `json:"user" binding:"required,uuid"`
	WatchID string `json:"watch_id" binding:"required,max=255"`
	Count   int    `json:"count" binding:"omitempty,gte=1"`
}

// ListWatchVisits 管理端浏览记录列表
func (h *Handler) ListWatchVisits(c *gin.Context) {
	page, err := h.Repos.WatchVisit.List(h.listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondVisits(c, page)
}

// CreateWatchVisit 管理端直接创建
func (h *Handler) CreateWatchVisit(c *gin.Context) {
	var req watchVisitCreateRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	userID, ok := h.existingUser(c, req.User)
	if !ok {
		return
	}

	record := &model.WatchVisitRecord{UserID: userID, WatchID: req.WatchID, Count: req.Count}
	err := h.Repos.WatchVisit.Create(record)
	if errors.Is(err, repository.ErrDuplicate) {
		utils.BadRequest(c, utils.FieldErrors{utils.NonFieldErrors: {msgUniqueUserWatch}})
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondVisit(c, http.StatusCreated, record)
}

// AddWatchVisit 记录当前用户浏览一次
func (h *Handler) AddWatchVisit(c *gin.Context) {
	var req watchRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	record, err := h.Repos.WatchVisit.Record(middleware.CurrentUser(c).ID, req.WatchID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondVisit(c, http.StatusCreated, record)
}

// GetWatchVisit 浏览记录详情
func (h *Handler) GetWatchVisit(c *gin.Context) {
	record, ok := h.loadWatchVisit(c, permission.ActionRetrieve)
	if !ok {
		return
	}
	h.respondVisit(c, http.StatusOK, record)
}

// DeleteWatchVisit 物理删除
func (h *Handler) DeleteWatchVisit(c *gin.Context) {
	record, ok := h.loadWatchVisit(c, permission.ActionDestroy)
	if !ok {
		return
	}
	if err := h.Repos.WatchVisit.Delete(record); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MyWatchVisits 当前用户的浏览记录
func (h *Handler) MyWatchVisits(c *gin.Context) {
	page, err := h.Repos.WatchVisit.ListByUser(middleware.CurrentUser(c).ID, h.listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondVisits(c, page)
}

// WatchVisitAnalytics 按周期统计热门手表
func (h *Handler) WatchVisitAnalytics(c *gin.Context) {
	since := repository.PeriodStart(c.Query("period"), time.Now().UTC())
	page, err := h.Repos.WatchVisit.Analytics(since, h.listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondPage(c, page, nil)
}

func (h *Handler) loadWatchVisit(c *gin.Context, action permission.Action) (*model.WatchVisitRecord, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	record, err := h.Repos.WatchVisit.FindByID(id)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	if record == nil {
		utils.NotFound(c)
		return nil, false
	}
	if !middleware.AuthorizeObject(c, TrackPermissions, action, record) {
		return nil, false
	}
	return record, true
}

func (h *Handler) respondVisit(c *gin.Context, status int, record *model.WatchVisitRecord) {
	records := []model.WatchVisitRecord{*record}
	if err := h.markWishlist(c, records); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(status, records[0])
}

func (h *Handler) respondVisits(c *gin.Context, page *repository.Page[model.WatchVisitRecord]) {
	if err := h.markWishlist(c, page.Results); err != nil {
		h.handleError(c, err)
		return
	}
	respondPage(c, page, nil)
}

// markWishlist 一次查询填充当前用户对每条记录的收藏状态
func (h *Handler) markWishlist(c *gin.Context, records []model.WatchVisitRecord) error {
	user := middleware.CurrentUser(c)
	if user == nil || len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.WatchID)
	}
	favorites, err := h.Repos.Wishlist.FavoriteSet(user.ID, ids)
	if err != nil {
		return err
	}
	for i := range records {
		records[i].InWishlist = favorites[records[i].WatchID]
	}
	return nil
}
