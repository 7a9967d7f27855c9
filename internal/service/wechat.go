package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/config"
	"github.com/user/wristcheck/internal/utils"
)

// WechatSession code2session 返回
type WechatSession struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid"`
	Nickname   string `json:"nickname"`
	AvatarURL  string `json:"avatar_url"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

// WechatClient 微信小程序接口
type WechatClient struct {
	http       *utils.HTTPClient
	appID      string
	secret     string
	sessionURL string
}

func NewWechatClient(cfg config.WechatConfig, timeout time.Duration) *WechatClient {
	return &WechatClient{
		http:       utils.NewHTTPClient(timeout),
		appID:      cfg.AppID,
		secret:     cfg.Secret,
		sessionURL: cfg.SessionURL,
	}
}

// Code2Session 用登录 code 换取 openid 和 session_key
func (c *WechatClient) Code2Session(ctx context.Context, code string) (*WechatSession, error) {
	params := url.Values{}
	params.Set("appid", c.appID)
	params.Set("secret", c.secret)
	params.Set("js_code", code)
	params.Set("grant_type", "authorization_code")

	var session WechatSession
	if err := c.http.GetJSON(ctx, c.sessionURL+"?"+params.Encode(), &session); err != nil {
		logrus.WithError(err).Warn("[Wechat] code2session 请求失败")
		return nil, fmt.Errorf("%w: %v", ErrWechatExchange, err)
	}
	if session.OpenID == "" {
		logrus.WithFields(logrus.Fields{
			"errcode": session.ErrCode,
			"errmsg":  session.ErrMsg,
		}).Warn("[Wechat] code2session 未返回 openid")
		return nil, ErrOpenIDMissing
	}
	return &session, nil
}
