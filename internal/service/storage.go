package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/config"
	"github.com/user/wristcheck/internal/utils"
)

const avatarSuffix = "jpg"

// ObjectUploader 流式上传
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ObjectPresigner 生成临时访问地址
type ObjectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// AvatarUpload 头像转存结果
type AvatarUpload struct {
	URL               string `json:"url"`
	Bucket            string `json:"bucket"`
	Subdirectory      string `json:"subdirectory"`
	Filename          string `json:"filename"`
	VersionIdentifier string `json:"version_identifier"`
	ImageSuffix       string `json:"image_suffix"`
	ObjectKey         string `json:"object_key"`
}

// AvatarStorage 把远程头像转存到 S3 兼容的对象存储
type AvatarStorage struct {
	uploader     ObjectUploader
	presigner    ObjectPresigner
	http         *utils.HTTPClient
	bucket       string
	subdirectory string
	expiry       time.Duration
	now          func() time.Time
}

// NewAvatarStorage 按配置创建 S3 客户端
func NewAvatarStorage(ctx context.Context, cfg config.StorageConfig, timeout time.Duration) (*AvatarStorage, error) {
	if !cfg.Enabled() {
		return nil, ErrStorageDisabled
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("加载对象存储配置失败: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	logrus.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"bucket":   cfg.Bucket,
	}).Info("对象存储已初始化")

	return NewAvatarStorageWithClients(manager.NewUploader(client), s3.NewPresignClient(client), cfg, timeout), nil
}

// NewAvatarStorageWithClients 使用给定的上传和签名客户端
func NewAvatarStorageWithClients(uploader ObjectUploader, presigner ObjectPresigner, cfg config.StorageConfig, timeout time.Duration) *AvatarStorage {
	expiry := cfg.SignedURLExpiry
	if expiry <= 0 {
		expiry = time.Minute
	}
	return &AvatarStorage{
		uploader:     uploader,
		presigner:    presigner,
		http:         utils.NewHTTPClient(timeout),
		bucket:       cfg.Bucket,
		subdirectory: strings.Trim(cfg.Subdirectory, "/"),
		expiry:       expiry,
		now:          time.Now,
	}
}

// UploadFromURL 以流的方式把 url 指向的图片写入 <subdirectory>/<filename>_<version>.jpg
func (s *AvatarStorage) UploadFromURL(ctx context.Context, filename, url string) (*AvatarUpload, error) {
	version := versionIdentifier(s.now())
	key := s.objectKey(filename, version)

	body, contentType, err := s.http.Download(ctx, url)
	if err != nil {
		logrus.WithError(err).WithField("url", url).Warn("[Storage] 下载头像失败")
		return nil, fmt.Errorf("%w: %v", ErrAvatarUpload, err)
	}
	defer body.Close()

	if contentType == "" {
		contentType = "image/jpeg"
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("[Storage] 上传头像失败")
		return nil, fmt.Errorf("%w: %v", ErrAvatarUpload, err)
	}

	signed, err := s.SignedURL(ctx, key)
	if err != nil {
		return nil, err
	}

	return &AvatarUpload{
		URL:               signed,
		Bucket:            s.bucket,
		Subdirectory:      s.subdirectory,
		Filename:          filename,
		VersionIdentifier: version,
		ImageSuffix:       avatarSuffix,
		ObjectKey:         key,
	}, nil
}

// SignedURL 对象的临时 GET 地址
func (s *AvatarStorage) SignedURL(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.expiry
	})
	if err != nil {
		return "", fmt.Errorf("%w: presign: %v", ErrAvatarUpload, err)
	}
	return req.URL, nil
}

func (s *AvatarStorage) objectKey(filename, version string) string {
	name := fmt.Sprintf("%s_%s.%s", filename, version, avatarSuffix)
	if s.subdirectory == "" {
		return name
	}
	return s.subdirectory + "/" + name
}

// versionIdentifier 取微秒时间戳的后 6 位
func versionIdentifier(t time.Time) string {
	return fmt.Sprintf("%06d", t.UnixMicro()%1000000)
}
