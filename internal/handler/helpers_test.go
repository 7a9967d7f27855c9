package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/user/wristcheck/internal/config"
	"github.com/user/wristcheck/internal/handler"
	"github.com/user/wristcheck/internal/model"
	"github.com/user/wristcheck/internal/repository"
	"github.com/user/wristcheck/internal/router"
)

var dbSeq atomic.Int64

type fixture struct {
	t      *testing.T
	repos  *repository.Repositories
	h      *handler.Handler
	engine *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		AppSecret:            "test-secret",
		PageSize:             10,
		MaxPageSize:          100,
		TokenCacheSize:       100,
		TokenCacheTTL:        time.Minute,
		ActiveBannerCacheTTL: time.Minute,
		CORSOrigins:          []string{"*"},
	}
}

func newFixture(t *testing.T, opts handler.Options) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, testConfig(), opts)
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config, opts handler.Options) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := repository.InitDB(fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repos := repository.NewRepositories(db)
	h := handler.NewHandler(repos, cfg, opts)
	return &fixture{t: t, repos: repos, h: h, engine: router.New(h)}
}

// user 创建用户并返回其令牌
func (f *fixture) user(username string, staff bool) (*model.User, string) {
	f.t.Helper()
	u := &model.User{Username: username, IsActive: true, IsStaff: staff}
	require.NoError(f.t, f.repos.User.Create(u, "secret-"+username))
	token, err := f.repos.Token.GetOrCreate(u.ID)
	require.NoError(f.t, err)
	return u, token.Key
}

func (f *fixture) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type detail struct {
	Detail string `json:"detail"`
}

func requireStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
