// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpLatency   prometheus.Histogram
	authSuccess   prometheus.Counter
	authFailure   *prometheus.CounterVec
	logins        prometheus.Counter
	registrations prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentman_http_requests_total",
			Help: "HTTPメソッド・ステータスコード別のリクエスト数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentman_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentman_auth_success_total",
			Help: "トークン検証成功の合計数",
		}),
		authFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentman_auth_failure_total",
			Help: "トークン検証失敗の理由別合計数",
		}, []string{"reason"}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentman_logins_total",
			Help: "ログイン成功の合計数",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentman_registrations_total",
			Help: "アカウント登録成功の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authSuccess,
		c.authFailure,
		c.logins,
		c.registrations,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの完了を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordAuthSuccess はトークン検証成功を記録する。
func (c *Collector) RecordAuthSuccess() {
	c.authSuccess.Inc()
}

// RecordAuthFailure はトークン検証失敗を理由付きで記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailure.WithLabelValues(reason).Inc()
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordRegistration はアカウント登録成功を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// defaultCollector はパッケージレベル関数が委譲する既定のコレクター。
// アプリケーション全体で1個のレジストリを共有する。
var (
	defaultRegistry  = prometheus.NewRegistry()
	defaultCollector = NewCollector(defaultRegistry)
)

// RecordHTTPRequest は既定コレクターにHTTPリクエストの完了を記録する。
func RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	defaultCollector.RecordHTTPRequest(method, statusCode, duration)
}

// RecordAuthSuccess は既定コレクターにトークン検証成功を記録する。
func RecordAuthSuccess() {
	defaultCollector.RecordAuthSuccess()
}

// RecordAuthFailure は既定コレクターにトークン検証失敗を記録する。
func RecordAuthFailure(reason string) {
	defaultCollector.RecordAuthFailure(reason)
}

// RecordLogin は既定コレクターにログイン成功を記録する。
func RecordLogin() {
	defaultCollector.RecordLogin()
}

// RecordRegistration は既定コレクターにアカウント登録成功を記録する。
func RecordRegistration() {
	defaultCollector.RecordRegistration()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// DefaultHandler は既定レジストリのスクレイプハンドラーを返す。
func DefaultHandler() http.Handler {
	return Handler(defaultRegistry)
}
