package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/banner/", "200"))
	ObserveRequest("GET", "/banner/", 200, 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/banner/", "200")))
}

func TestRequestStartedTracksInFlight(t *testing.T) {
	base := testutil.ToFloat64(httpInFlight)
	done := RequestStarted()
	assert.Equal(t, base+1, testutil.ToFloat64(httpInFlight))
	done()
	assert.Equal(t, base, testutil.ToFloat64(httpInFlight))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordWechatLogin(LoginCreated)
	RecordPurged("wishlist_entries", 3)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `wristcheck_auth_wechat_logins_total{outcome="created"}`)
	assert.Contains(t, w.Body.String(), `wristcheck_cleanup_purged_rows_total{table="wishlist_entries"} 3`)
}
