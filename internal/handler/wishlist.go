package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/user/wristcheck/internal/middleware"
	"github.com/user/wristcheck/internal/model"
	"github.com/user/wristcheck/internal/permission"
	"github.com/user/wristcheck/internal/repository"
	"github.com/user/wristcheck/internal/utils"
)

// WishlistPermissions 心愿单接口权限
var WishlistPermissions = &permission.Resolver{Policies: map[permission.Action][]permission.Policy{
	permission.ActionList:           {permission.IsAdminUser},
	permission.ActionRetrieve:       {permission.IsOwnerOrAdminUser},
	permission.ActionCreate:         {permission.IsAdminUser},
	permission.ActionDestroy:        {permission.IsOwnerOrAdminUser},
	permission.ActionAdd:            {permission.IsAuthenticated},
	permission.ActionMyOwn:          {permission.IsAuthenticated},
	permission.ActionFavoriteStatus: {permission.IsAuthenticated},
}}

const msgUniqueUserWatch = "The fields user, watch_id must make a unique set."

type wishlistCreateRequest struct {
	User    string `json:"user" binding:"required,uuid"`
	WatchID string `json:"watch_id" binding:"required,max=255"`
}

type watchRequest struct {
	WatchID string `json:"watch_id" binding:"required,max=255"`
}

type favoriteStatus struct {
	WatchID    string `json:"watch_id"`
	IsFavorite bool   `json:"is_favorite"`
}

// ListWishlist 管理端心愿单列表
func (h *Handler) ListWishlist(c *gin.Context) {
	page, err := h.Repos.Wishlist.List(h.listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondPage(c, page, nil)
}

// CreateWishlist 管理端为指定用户添加
func (h *Handler) CreateWishlist(c *gin.Context) {
	var req wishlistCreateRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	userID, ok := h.existingUser(c, req.User)
	if !ok {
		return
	}
	h.createWishlist(c, userID, req.WatchID)
}

// AddWishlist 当前用户收藏手表
func (h *Handler) AddWishlist(c *gin.Context) {
	var req watchRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	h.createWishlist(c, middleware.CurrentUser(c).ID, req.WatchID)
}

func (h *Handler) createWishlist(c *gin.Context, userID uuid.UUID, watchID string) {
	entry, err := h.Repos.Wishlist.Create(userID, watchID)
	if errors.Is(err, repository.ErrDuplicate) {
		utils.BadRequest(c, utils.FieldErrors{utils.NonFieldErrors: {msgUniqueUserWatch}})
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// GetWishlist 心愿单详情
func (h *Handler) GetWishlist(c *gin.Context) {
	entry, ok := h.loadWishlist(c, permission.ActionRetrieve)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteWishlist 软删除
func (h *Handler) DeleteWishlist(c *gin.Context) {
	entry, ok := h.loadWishlist(c, permission.ActionDestroy)
	if !ok {
		return
	}
	if err := h.Repos.Wishlist.Delete(entry); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MyWishlist 当前用户的心愿单
func (h *Handler) MyWishlist(c *gin.Context) {
	page, err := h.Repos.Wishlist.ListByUser(middleware.CurrentUser(c).ID, h.listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondPage(c, page, nil)
}

// FavoriteStatus 批量查询是否已收藏，按传入顺序返回
func (h *Handler) FavoriteStatus(c *gin.Context) {
	watchIDs := splitQuery(c.QueryArray("watch_ids"))
	if len(watchIDs) == 0 {
		utils.BadRequest(c, utils.FieldErrors{"watch_ids": {"This field is required."}})
		return
	}

	favorites, err := h.Repos.Wishlist.FavoriteSet(middleware.CurrentUser(c).ID, watchIDs)
	if err != nil {
		h.handleError(c, err)
		return
	}

	statuses := make([]favoriteStatus, 0, len(watchIDs))
	for _, id := range watchIDs {
		statuses = append(statuses, favoriteStatus{WatchID: id, IsFavorite: favorites[id]})
	}
	c.JSON(http.StatusOK, statuses)
}

func (h *Handler) loadWishlist(c *gin.Context, action permission.Action) (*model.WishlistEntry, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	entry, err := h.Repos.Wishlist.FindByID(id)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	if entry == nil {
		utils.NotFound(c)
		return nil, false
	}
	if !middleware.AuthorizeObject(c, WishlistPermissions, action, entry) {
		return nil, false
	}
	return entry, true
}

// existingUser 校验请求体里的 user 主键
func (h *Handler) existingUser(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.BadRequest(c, utils.FieldErrors{"user": {"Must be a valid UUID."}})
		return uuid.Nil, false
	}
	user, err := h.Repos.User.FindByID(id)
	if err != nil {
		h.handleError(c, err)
		return uuid.Nil, false
	}
	if user == nil {
		utils.BadRequest(c, utils.FieldErrors{"user": {`Invalid pk "` + raw + `" - object does not exist.`}})
		return uuid.Nil, false
	}
	return id, true
}

// splitQuery 同时支持逗号分隔和重复参数
func splitQuery(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
