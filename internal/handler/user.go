package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/middleware"
	"github.com/user/wristcheck/internal/model"
	"github.com/user/wristcheck/internal/permission"
	"github.com/user/wristcheck/internal/service"
	"github.com/user/wristcheck/internal/utils"
)

// UserPermissions 账户接口权限
var UserPermissions = &permission.Resolver{Policies: map[permission.Action][]permission.Policy{
	permission.ActionList:          {permission.IsAdminUser},
	permission.ActionRetrieve:      {permission.IsOwnerOrAdminUser},
	permission.ActionProfile:       {permission.IsAuthenticated},
	permission.ActionWechatProfile: {permission.IsAuthenticated},
	permission.ActionLogin:         {permission.AllowAny},
	permission.ActionLogout:        {permission.AllowAny},
	permission.ActionWechatLogin:   {permission.AllowAny},
}}

type loginRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,max=128"`
}

type wechatLoginRequest struct {
	Code string `json:"code" binding:"required,max=255"`
}

type wechatProfileRequest struct {
	Nickname  *string `json:"nickname" binding:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url,max=255"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login 用户名密码登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	user, err := h.Repos.User.Authenticate(req.Username, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if user == nil {
		utils.Detail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.Repos.User.TouchLastLogin(user); err != nil {
		h.handleError(c, err)
		return
	}
	token, err := h.Repos.Token.GetOrCreate(user.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID.String())
	if err := session.Save(); err != nil {
		logrus.WithError(err).Warn("保存会话失败")
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token.Key})
}

// Logout 清除会话
func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logrus.WithError(err).Warn("清除会话失败")
	}
	c.Status(http.StatusNoContent)
}

// WechatMiniLogin 微信小程序登录
func (h *Handler) WechatMiniLogin(c *gin.Context) {
	var req wechatLoginRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	if h.Wechat == nil {
		utils.ServerError(c, "WeChat login is not configured")
		return
	}

	result, err := h.Wechat.WechatLogin(c.Request.Context(), req.Code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: result.Token})
}

// ListUsers 管理端用户列表
func (h *Handler) ListUsers(c *gin.Context) {
	page, err := h.Repos.User.List(h.listQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondPage(c, page, nil)
}

// GetUser 用户详情
func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFound(c)
		return
	}
	user, err := h.Repos.User.FindByID(id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if user == nil {
		utils.NotFound(c)
		return
	}
	if !middleware.AuthorizeObject(c, UserPermissions, permission.ActionRetrieve, user) {
		return
	}

	c.JSON(http.StatusOK, user)
}

// Profile 当前用户
func (h *Handler) Profile(c *gin.Context) {
	user, err := h.Repos.User.FindByID(middleware.CurrentUser(c).ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if user == nil {
		utils.NotFound(c)
		return
	}
	c.JSON(http.StatusOK, user)
}

// WechatProfile 更新小程序昵称和头像
// 配置了对象存储时头像会转存到存储桶，库里保存对象键，响应返回签名地址
func (h *Handler) WechatProfile(c *gin.Context) {
	var req wechatProfileRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	if req.Nickname == nil && req.AvatarURL == nil {
		utils.BadRequest(c, utils.FieldErrors{utils.NonFieldErrors: {"Provide nickname or avatar_url."}})
		return
	}

	user := middleware.CurrentUser(c)
	social, err := h.Repos.Social.FindByUser(user.ID, model.ApplicationWechatMini)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if social == nil {
		utils.NotFound(c)
		return
	}

	var upload *service.AvatarUpload
	avatar := req.AvatarURL
	if avatar != nil && h.Avatars != nil {
		upload, err = h.Avatars.UploadFromURL(c.Request.Context(), user.ID.String(), *avatar)
		if err != nil {
			h.handleError(c, err)
			return
		}
		avatar = &upload.ObjectKey
	}

	if err := h.Repos.Social.UpdateProfile(social, req.Nickname, avatar); err != nil {
		h.handleError(c, err)
		return
	}

	resp := gin.H{
		"id":               social.ID,
		"user":             social.UserID,
		"application_type": social.ApplicationType,
		"nickname":         social.Nickname,
		"avatar_url":       social.AvatarURL,
	}
	if upload != nil {
		resp["avatar_signed_url"] = upload.URL
	}
	c.JSON(http.StatusOK, resp)
}
