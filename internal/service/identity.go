package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/config"
	"github.com/user/wristcheck/internal/utils"
)

type signInUpRequest struct {
	ThirdPartyID string        `json:"thirdPartyId"`
	ClientType   string        `json:"clientType"`
	OAuthTokens  signInUpOAuth `json:"oAuthTokens"`
}

type signInUpOAuth struct {
	OpenID     string `json:"openId"`
	Source     string `json:"source"`
	SessionKey string `json:"session_key"`
}

type signInUpResponse struct {
	Status string `json:"status"`
	User   struct {
		ID string `json:"id"`
	} `json:"user"`
	CreatedNewRecipeUser bool `json:"createdNewRecipeUser"`
}

// IdentityClient 外部身份服务，负责签发规范的用户 ID
type IdentityClient struct {
	http    *utils.HTTPClient
	baseURL string
}

func NewIdentityClient(cfg config.IdentityConfig, timeout time.Duration) *IdentityClient {
	return &IdentityClient{
		http:    utils.NewHTTPClient(timeout),
		baseURL: cfg.BaseURL,
	}
}

// SignInUp 以小程序身份注册或登录，返回用户 ID
func (c *IdentityClient) SignInUp(ctx context.Context, openID, sessionKey string) (uuid.UUID, error) {
	payload := signInUpRequest{
		ThirdPartyID: "wechat",
		ClientType:   "mp",
		OAuthTokens: signInUpOAuth{
			OpenID:     openID,
			Source:     "mp",
			SessionKey: sessionKey,
		},
	}

	var resp signInUpResponse
	if err := c.http.PostJSON(ctx, c.baseURL+"/v1/auth/signinup", payload, &resp); err != nil {
		logrus.WithError(err).Warn("[Identity] signinup 请求失败")
		return uuid.Nil, fmt.Errorf("%w: %v", ErrIdentitySignInUp, err)
	}

	id, err := uuid.Parse(resp.User.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid user id %q", ErrIdentitySignInUp, resp.User.ID)
	}
	return id, nil
}
