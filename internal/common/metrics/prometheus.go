// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	rateCacheHitsTotal   *prometheus.CounterVec
	rateCacheMissesTotal *prometheus.CounterVec
	rateFetchTotal       *prometheus.CounterVec
	rechargesTotal       *prometheus.CounterVec
	consumptionsTotal    *prometheus.CounterVec
	settlementsTotal     *prometheus.CounterVec
	accountBalance       *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// Init 初始化指标收集器
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "case_ledger"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		rateCacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_cache_hits_total",
				Help:      "Total number of exchange rate cache hits",
			},
			[]string{"layer"},
		),
		rateCacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_cache_misses_total",
				Help:      "Total number of exchange rate cache misses",
			},
			[]string{"layer"},
		),
		rateFetchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_fetch_total",
				Help:      "Total number of external rate provider calls",
			},
			[]string{"provider", "result"},
		),
		rechargesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recharges_total",
				Help:      "Total number of account recharges",
			},
			[]string{"platform", "status"},
		),
		consumptionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "consumptions_total",
				Help:      "Total number of account consumptions",
			},
			[]string{"platform", "type"},
		),
		settlementsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Total number of order cost settlements",
			},
			[]string{"result"},
		),
		accountBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "account_balance",
				Help:      "Current account balance",
			},
			[]string{"platform", "account"},
		),
	}

	defaultMetrics = m
	return m
}

// GetMetrics 获取默认指标收集器
func GetMetrics() *Metrics {
	if defaultMetrics == nil {
		return Init("")
	}
	return defaultMetrics
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过 metrics 端点本身
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordRateCacheHit 记录汇率缓存命中
func (m *Metrics) RecordRateCacheHit(layer string) {
	m.rateCacheHitsTotal.WithLabelValues(layer).Inc()
}

// RecordRateCacheMiss 记录汇率缓存未命中
func (m *Metrics) RecordRateCacheMiss(layer string) {
	m.rateCacheMissesTotal.WithLabelValues(layer).Inc()
}

// RecordRateFetch 记录外部汇率请求
func (m *Metrics) RecordRateFetch(provider, result string) {
	m.rateFetchTotal.WithLabelValues(provider, result).Inc()
}

// RecordRecharge 记录充值
func (m *Metrics) RecordRecharge(platform, status string) {
	m.rechargesTotal.WithLabelValues(platform, status).Inc()
}

// RecordConsumption 记录消耗
func (m *Metrics) RecordConsumption(platform, typ string) {
	m.consumptionsTotal.WithLabelValues(platform, typ).Inc()
}

// RecordSettlement 记录订单成本结算
func (m *Metrics) RecordSettlement(result string) {
	m.settlementsTotal.WithLabelValues(result).Inc()
}

// SetAccountBalance 设置账户余额指标
func (m *Metrics) SetAccountBalance(platform, account string, balance float64) {
	m.accountBalance.WithLabelValues(platform, account).Set(balance)
}
