package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/wristcheck/internal/repository"
)

var dbSeq atomic.Int64

func setupTestDB(t *testing.T) *repository.Repositories {
	t.Helper()
	db, err := repository.InitDB(fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewRepositories(db)
}
