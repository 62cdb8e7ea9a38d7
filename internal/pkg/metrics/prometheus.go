package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docchat/internal/model"
)

// 全局指标变量
var (
	// HTTPRequestsTotal 请求总量
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration 请求延迟分布
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docchat_http_request_duration_seconds",
			Help:    "HTTP request latency distributions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ChatRequestsTotal 对话请求，mode=stream/sync，outcome=success/error/canceled
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_chat_requests_total",
			Help: "Total number of chat requests by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// ChatTokens 每次对话的 token 消耗分布，kind=prompt/completion
	ChatTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docchat_chat_tokens",
			Help:    "Token usage distributions per chat request",
			Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 4000, 8000},
		},
		[]string{"kind"},
	)

	// DocumentsProcessedTotal 文档处理结果
	DocumentsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docchat_documents_processed_total",
			Help: "Total number of processed documents by final status",
		},
		[]string{"status"},
	)

	// StreamFramesSkipped 客户端组装时丢弃的无法解析帧
	StreamFramesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docchat_stream_frames_skipped_total",
			Help: "Total number of malformed SSE frames skipped while assembling",
		},
	)
)

var registerOnce sync.Once

// Init 注册所有指标，可重复调用
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(ChatRequestsTotal)
		prometheus.MustRegister(ChatTokens)
		prometheus.MustRegister(DocumentsProcessedTotal)
		prometheus.MustRegister(StreamFramesSkipped)
	})
}

// Handler /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, path string, status int, latency time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(latency.Seconds())
}

// ObserveChat 记录一次对话请求及其 token 消耗
func ObserveChat(mode, outcome string, usage *model.TokenUsage) {
	ChatRequestsTotal.WithLabelValues(mode, outcome).Inc()
	if usage == nil {
		return
	}
	ChatTokens.WithLabelValues("prompt").Observe(float64(usage.PromptTokens))
	ChatTokens.WithLabelValues("completion").Observe(float64(usage.CompletionTokens))
}

// ObserveDocument 记录文档处理结果
func ObserveDocument(status string) {
	DocumentsProcessedTotal.WithLabelValues(status).Inc()
}
