package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/wristcheck/internal/metrics"
	"github.com/user/wristcheck/internal/model"
	"github.com/user/wristcheck/internal/repository"
	"golang.org/x/sync/singleflight"
)

// SessionExchanger 用小程序 code 换取会话
type SessionExchanger interface {
	Code2Session(ctx context.Context, code string) (*WechatSession, error)
}

// IdentityIssuer 签发规范用户 ID
type IdentityIssuer interface {
	SignInUp(ctx context.Context, openID, sessionKey string) (uuid.UUID, error)
}

// LoginResult 微信登录结果
type LoginResult struct {
	Token   string
	User    *model.User
	Created bool
}

// Reconciler 把微信身份对应到站内用户并签发令牌
type Reconciler struct {
	repos    *repository.Repositories
	wechat   SessionExchanger
	identity IdentityIssuer
	group    singleflight.Group

	// createSocial 写入第三方身份，唯一索引冲突时返回 repository.ErrDuplicate
	createSocial func(tx *repository.Repositories, social *model.SocialIdentity) error
}

// NewReconciler identity 为 nil 时本地生成用户 ID
func NewReconciler(repos *repository.Repositories, wechat SessionExchanger, identity IdentityIssuer) *Reconciler {
	r := &Reconciler{repos: repos, wechat: wechat, identity: identity}
	r.createSocial = func(tx *repository.Repositories, social *model.SocialIdentity) error {
		return tx.Social.Create(social)
	}
	return r
}

// WechatLogin 小程序登录：换取 openid，查找或创建用户，返回令牌
// 同一进程内相同 openid 的并发请求合并为一次，跨进程由唯一索引兜底
func (r *Reconciler) WechatLogin(ctx context.Context, code string) (*LoginResult, error) {
	session, err := r.wechat.Code2Session(ctx, code)
	if err != nil {
		metrics.RecordWechatLogin(metrics.LoginFailed)
		return nil, err
	}

	// 合并后的工作不跟随任何一个调用方取消，各调用方只等待自己的 ctx
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(session.OpenID, func() (interface{}, error) {
		return r.reconcile(shared, session)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		metrics.RecordWechatLogin(metrics.LoginFailed)
		return nil, ctx.Err()
	}
	if res.Err != nil {
		metrics.RecordWechatLogin(metrics.LoginFailed)
		return nil, res.Err
	}

	result := res.Val.(*LoginResult)
	if result.Created {
		metrics.RecordWechatLogin(metrics.LoginCreated)
	} else {
		metrics.RecordWechatLogin(metrics.LoginExisting)
	}
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, session *WechatSession) (*LoginResult, error) {
	result, err := r.findOrCreate(ctx, session)
	if errors.Is(err, repository.ErrDuplicate) {
		// 其他实例抢先创建了同一身份，回滚后重新查找一次
		logrus.WithField("open_id", session.OpenID).Info("[Reconciler] 身份已被并发创建，重试查找")
		result, err = r.findOrCreate(ctx, session)
	}
	return result, err
}

func (r *Reconciler) findOrCreate(ctx context.Context, session *WechatSession) (*LoginResult, error) {
	result := &LoginResult{}
	err := r.repos.Transaction(func(tx *repository.Repositories) error {
		social, err := tx.Social.FindByOpenID(model.ApplicationWechatMini, session.OpenID)
		if err != nil {
			return err
		}

		var user *model.User
		if social != nil {
			user, err = tx.User.FindByID(social.UserID)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("social identity %d has no user", social.ID)
			}
		} else {
			user, err = r.createUser(ctx, tx, session)
			if err != nil {
				return err
			}
			result.Created = true
		}

		if err := tx.User.TouchLastLogin(user); err != nil {
			return err
		}
		token, err := tx.Token.GetOrCreate(user.ID)
		if err != nil {
			return err
		}

		result.User = user
		result.Token = token.Key
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Reconciler) createUser(ctx context.Context, tx *repository.Repositories, session *WechatSession) (*model.User, error) {
	userID := uuid.New()
	if r.identity != nil {
		id, err := r.identity.SignInUp(ctx, session.OpenID, session.SessionKey)
		if err != nil {
			return nil, err
		}
		userID = id
	}

	// 身份服务可能返回已存在的用户
	user, err := tx.User.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &model.User{
			ID:       userID,
			Username: PlaceholderUsername(),
			IsActive: true,
		}
		if err := tx.User.Create(user, ""); err != nil {
			return nil, err
		}
	}

	social := &model.SocialIdentity{
		UserID:          user.ID,
		ApplicationType: model.ApplicationWechatMini,
		OpenID:          session.OpenID,
		Nickname:        optional(session.Nickname),
		AvatarURL:       optional(session.AvatarURL),
	}
	if err := r.createSocial(tx, social); err != nil {
		return nil, err
	}
	return user, nil
}

// PlaceholderUsername 微信用户的占位用户名
func PlaceholderUsername() string {
	return "wx_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
