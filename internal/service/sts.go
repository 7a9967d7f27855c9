package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/config"
)

// RoleAssumer STS AssumeRole
type RoleAssumer interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// STSCredentials 临时凭证
type STSCredentials struct {
	AccessKeyID     string    `json:"access_key_id"`
	AccessKeySecret string    `json:"access_key_secret"`
	SecurityToken   string    `json:"security_token"`
	Expiration      time.Time `json:"expiration"`
}

// AssumedRoleUser 扮演的角色
type AssumedRoleUser struct {
	Arn           string `json:"arn"`
	AssumedRoleID string `json:"assumed_role_id"`
}

// STSToken 下发给客户端的临时凭证
type STSToken struct {
	Credentials     STSCredentials  `json:"credentials"`
	AssumedRoleUser AssumedRoleUser `json:"assumed_role_user"`
}

// STSService 为前端直传对象存储签发临时凭证
type STSService struct {
	client      RoleAssumer
	roleARN     string
	sessionName string
	duration    time.Duration
}

// NewSTSService 按配置创建 STS 客户端
func NewSTSService(ctx context.Context, cfg config.STSConfig) (*STSService, error) {
	if !cfg.Enabled() {
		return nil, ErrSTSDisabled
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("加载 STS 配置失败: %w", err)
	}
	client := sts.NewFromConfig(awsCfg, func(o *sts.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewSTSServiceWithClient(client, cfg), nil
}

// NewSTSServiceWithClient 使用给定客户端
func NewSTSServiceWithClient(client RoleAssumer, cfg config.STSConfig) *STSService {
	duration := cfg.Duration
	if duration <= 0 {
		duration = time.Hour
	}
	return &STSService{
		client:      client,
		roleARN:     cfg.RoleARN,
		sessionName: cfg.RoleSessionName,
		duration:    duration,
	}
}

// Token 申请一组临时凭证
func (s *STSService) Token(ctx context.Context) (*STSToken, error) {
	out, err := s.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(s.roleARN),
		RoleSessionName: aws.String(s.sessionName),
		DurationSeconds: aws.Int32(int32(s.duration / time.Second)),
	})
	if err != nil {
		logrus.WithError(err).Warn("[STS] AssumeRole 失败")
		return nil, fmt.Errorf("%w: %v", ErrSTSRequest, err)
	}
	if out.Credentials == nil {
		return nil, fmt.Errorf("%w: empty credentials", ErrSTSRequest)
	}

	token := &STSToken{
		Credentials: STSCredentials{
			AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
			AccessKeySecret: aws.ToString(out.Credentials.SecretAccessKey),
			SecurityToken:   aws.ToString(out.Credentials.SessionToken),
			Expiration:      aws.ToTime(out.Credentials.Expiration),
		},
	}
	if out.AssumedRoleUser != nil {
		token.AssumedRoleUser = AssumedRoleUser{
			Arn:           aws.ToString(out.AssumedRoleUser.Arn),
			AssumedRoleID: aws.ToString(out.AssumedRoleUser.AssumedRoleId),
		}
	}
	return token, nil
}
