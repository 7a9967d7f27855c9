package service

import "errors"

var (
	// ErrWechatExchange 调用微信 code2session 失败
	ErrWechatExchange = errors.New("wechat code exchange failed")
	// ErrOpenIDMissing 微信返回中没有 openid
	ErrOpenIDMissing = errors.New("wechat openid missing")
	// ErrIdentitySignInUp 身份服务注册/登录失败
	ErrIdentitySignInUp = errors.New("identity service sign-in failed")
	// ErrStorageDisabled 未配置对象存储
	ErrStorageDisabled = errors.New("object storage is not configured")
	// ErrAvatarUpload 头像转存失败
	ErrAvatarUpload = errors.New("avatar upload failed")
	// ErrSTSDisabled 未配置 STS
	ErrSTSDisabled = errors.New("sts is not configured")
	// ErrSTSRequest 申请临时凭证失败
	ErrSTSRequest = errors.New("sts request failed")
)
