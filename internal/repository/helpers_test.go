package repository

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/wristcheck/internal/model"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// setupTestDB 每个测试一个独立的内存库
func setupTestDB(t *testing.T) *Repositories {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1))
	db, err := InitDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewRepositories(db)
}

func createUser(t *testing.T, repos *Repositories, username string, staff bool) *model.User {
	t.Helper()
	user := &model.User{Username: username, IsActive: true, IsStaff: staff}
	require.NoError(t, repos.User.Create(user, "secret-"+username))
	return user
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Unscoped().Model(m).Count(&n).Error)
	return n
}

