package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/user/wristcheck/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var userList = listSpec{
	filters: map[string]filterField{
		"username":     {cond: "username = ?"},
		"email":        {cond: "email = ?"},
		"is_staff":     {cond: "is_staff = ?", kind: filterBool},
		"is_superuser": {cond: "is_superuser = ?", kind: filterBool},
		"is_active":    {cond: "is_active = ?", kind: filterBool},
	},
	search: []string{likeCond("username"), likeCond("email")},
	ordering: map[string]string{
		"date_joined": "date_joined",
		"last_login":  "last_login",
	},
	defaultOrder: "-last_login",
	tiebreak:     "username ASC",
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户，password 为空时不设置密码（仅第三方登录）
func (r *UserRepository) Create(user *model.User, password string) error {
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.PasswordHash = string(hash)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = nowFunc()
	}

	return translate(r.db.Create(user).Error)
}

// FindByID 根据 ID 查找用户，附带第三方身份
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Preload("SocialAccounts").First(&user, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByUsername 根据用户名查找用户
func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate 校验用户名密码；失败、停用或无密码账号均返回 nil
func (r *UserRepository) Authenticate(username, password string) (*model.User, error) {
	user, err := r.FindByUsername(username)
	if err != nil || user == nil {
		return nil, err
	}
	if !user.IsActive || user.PasswordHash == "" {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}

	return user, nil
}

// TouchLastLogin 刷新最后登录时间
func (r *UserRepository) TouchLastLogin(user *model.User) error {
	now := nowFunc()
	if err := r.db.Model(&model.User{}).Where("id = ?", user.ID.String()).Update("last_login", now).Error; err != nil {
		return err
	}
	user.LastLogin = &now
	return nil
}

// List 管理端用户列表
func (r *UserRepository) List(q ListQuery) (*Page[model.User], error) {
	return paginate[model.User](r.db, q, userList, func(db *gorm.DB) *gorm.DB {
		return db.Preload("SocialAccounts")
	})
}
