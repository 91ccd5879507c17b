// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー層から利用する。
type MetricsCollector interface {
	RecordResolve(outcome string)
	RecordClaim(result string)
	RecordLogin(success bool)
	RecordHTTPStatus(statusCode int)
	RecordClaimLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	resolveTotal *prometheus.CounterVec
	claimTotal   *prometheus.CounterVec
	loginTotal   *prometheus.CounterVec
	httpStatus   *prometheus.CounterVec
	claimLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrtag_resolve_total",
			Help: "スキャン解決の結果種別ごとの合計数",
		}, []string{"outcome"}),
		claimTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrtag_claim_total",
			Help: "クレーム操作の結果種別ごとの合計数",
		}, []string{"result"}),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrtag_login_total",
			Help: "ログイン試行の成否別合計数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrtag_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		claimLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qrtag_claim_latency_seconds",
			Help:    "クレーム処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.resolveTotal,
		c.claimTotal,
		c.loginTotal,
		c.httpStatus,
		c.claimLatency,
	)

	return c
}

// RecordResolve はスキャン解決の結果を記録する。
func (c *Collector) RecordResolve(outcome string) {
	c.resolveTotal.WithLabelValues(outcome).Inc()
}

// RecordClaim はクレーム操作の結果を記録する。
func (c *Collector) RecordClaim(result string) {
	c.claimTotal.WithLabelValues(result).Inc()
}

// RecordLogin はログイン試行の成否を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.loginTotal.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordClaimLatency はクレーム処理のレイテンシを記録する。
func (c *Collector) RecordClaimLatency(duration time.Duration) {
	c.claimLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
