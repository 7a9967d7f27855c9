// Package metrics 汇总服务的 Prometheus 指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 应用自己的指标注册表
var Registry = prometheus.NewRegistry()

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wristcheck",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wristcheck",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wristcheck",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	wechatLogins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wristcheck",
		Subsystem: "auth",
		Name:      "wechat_logins_total",
		Help:      "WeChat mini-program logins by outcome.",
	}, []string{"outcome"})

	purgedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wristcheck",
		Subsystem: "cleanup",
		Name:      "purged_rows_total",
		Help:      "Rows removed by the cleanup job.",
	}, []string{"table"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		wechatLogins,
		purgedRows,
	)
}

// Handler /metrics 端点
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted 请求开始，返回结束回调
func RequestStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveRequest 记录一次请求
func ObserveRequest(method, route string, status int, latency time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// 微信登录结果
const (
	LoginExisting = "existing"
	LoginCreated  = "created"
	LoginFailed   = "failed"
)

// RecordWechatLogin 记录微信登录结果
func RecordWechatLogin(outcome string) {
	wechatLogins.WithLabelValues(outcome).Inc()
}

// RecordPurged 记录清理掉的行数
func RecordPurged(table string, n int64) {
	purgedRows.WithLabelValues(table).Add(float64(n))
}
