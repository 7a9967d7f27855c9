package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidPage 页码越界或无法解析
	ErrInvalidPage = errors.New("invalid page")
)

// FilterError 过滤参数无法解析
type FilterError struct {
	Field   string
	Message string
}

func (e *FilterError) Error() string {
	return e.Field + ": " + e.Message
}

// isDuplicateKey 兼容 gorm 翻译后的错误、lib/pq 原始错误和 SQLite 报错文本
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// translate 把唯一约束冲突统一成 ErrDuplicate
func translate(err error) error {
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}
