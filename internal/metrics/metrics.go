// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// 認証・応募・アップロードの各サービスから利用する。
type Recorder interface {
	RecordRegistration(role string)
	RecordLogin(role string)
	RecordApplicationSubmitted()
	RecordUploadAccepted(class string)
	RecordUploadRejected(class string, reason string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	applications   prometheus.Counter
	uploadAccepted *prometheus.CounterVec
	uploadRejected *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobman_registrations_total",
			Help: "アカウント登録の合計数（ロール別）",
		}, []string{"role"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobman_logins_total",
			Help: "ログイン成功の合計数（ロール別）",
		}, []string{"role"}),
		applications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobman_applications_submitted_total",
			Help: "送信された応募の合計数",
		}),
		uploadAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobman_uploads_accepted_total",
			Help: "受理されたアップロードの合計数（クラス別）",
		}, []string{"class"}),
		uploadRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobman_uploads_rejected_total",
			Help: "拒否されたアップロードの合計数（クラス・理由別）",
		}, []string{"class", "reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobman_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.applications,
		c.uploadAccepted,
		c.uploadRejected,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordRegistration はアカウント登録を記録する。
func (c *Collector) RecordRegistration(role string) {
	c.registrations.WithLabelValues(role).Inc()
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin(role string) {
	c.logins.WithLabelValues(role).Inc()
}

// RecordApplicationSubmitted は応募の送信を記録する。
func (c *Collector) RecordApplicationSubmitted() {
	c.applications.Inc()
}

// RecordUploadAccepted はアップロードの受理を記録する。
func (c *Collector) RecordUploadAccepted(class string) {
	c.uploadAccepted.WithLabelValues(class).Inc()
}

// RecordUploadRejected はアップロードの拒否を記録する。
func (c *Collector) RecordUploadRejected(class string, reason string) {
	c.uploadRejected.WithLabelValues(class, reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// ルーター側で/metricsに直接マウントする。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
