package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/wristcheck/internal/handler"
)

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t, handler.Options{})
	w := f.do(http.MethodGet, "/health", nil, "")
	requireStatus(t, http.StatusOK, w)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsRequiresAdmin(t *testing.T) {
	f := newFixture(t, handler.Options{})
	_, normal := f.user("alice", false)
	_, admin := f.user("root", true)

	requireStatus(t, http.StatusUnauthorized, f.do(http.MethodGet, "/metrics", nil, ""))
	requireStatus(t, http.StatusForbidden, f.do(http.MethodGet, "/metrics", nil, normal))

	// 先产生一次请求，保证计数器有样本
	f.do(http.MethodGet, "/health", nil, "")
	w := f.do(http.MethodGet, "/metrics", nil, admin)
	requireStatus(t, http.StatusOK, w)
	assert.Contains(t, w.Body.String(), "wristcheck_requests_total")
}
