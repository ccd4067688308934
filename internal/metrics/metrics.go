// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// コーディネータやハンドラー層から利用する。
type MetricsCollector interface {
	RecordSyncCycle(result string)
	RecordSyncError(kind string)
	RecordSyncLatency(duration time.Duration)
	RecordPlaylogsInserted(count int)
	RecordScoresReplaced(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	syncCycles       *prometheus.CounterVec
	syncErrors       *prometheus.CounterVec
	syncLatency      prometheus.Histogram
	playlogsInserted prometheus.Counter
	scoresReplaced   prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otolog_sync_cycles_total",
			Help: "結果（skipped/seeded/synced）別の同期サイクル数",
		}, []string{"result"}),
		syncErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otolog_sync_errors_total",
			Help: "エラー分類別の同期失敗数",
		}, []string{"kind"}),
		syncLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "otolog_sync_latency_seconds",
			Help:    "同期サイクルのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		playlogsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otolog_playlogs_inserted_total",
			Help: "台帳に挿入されたプレイ履歴の合計数",
		}),
		scoresReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otolog_scores_replaced_total",
			Help: "置き換えられたスコアスナップショット行の合計数",
		}),
	}

	reg.MustRegister(
		c.syncCycles,
		c.syncErrors,
		c.syncLatency,
		c.playlogsInserted,
		c.scoresReplaced,
	)

	return c
}

// RecordSyncCycle は同期サイクルの完了を結果別に記録する。
func (c *Collector) RecordSyncCycle(result string) {
	c.syncCycles.WithLabelValues(result).Inc()
}

// RecordSyncError は同期失敗をエラー分類別に記録する。
func (c *Collector) RecordSyncError(kind string) {
	c.syncErrors.WithLabelValues(kind).Inc()
}

// RecordSyncLatency は同期サイクルのレイテンシを記録する。
func (c *Collector) RecordSyncLatency(duration time.Duration) {
	c.syncLatency.Observe(duration.Seconds())
}

// RecordPlaylogsInserted は挿入されたプレイ履歴数を記録する。
func (c *Collector) RecordPlaylogsInserted(count int) {
	c.playlogsInserted.Add(float64(count))
}

// RecordScoresReplaced は置き換えられたスコア行数を記録する。
func (c *Collector) RecordScoresReplaced(count int) {
	c.scoresReplaced.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
