// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 分词指标
	tokenizeTotal     *prometheus.CounterVec
	tokenizeDuration  *prometheus.HistogramVec
	tokensTotal       *prometheus.CounterVec
	tokenizeFallbacks *prometheus.CounterVec
	tokenizerVocab    *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器, 注册到 Prometheus 默认 Registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWithRegisterer(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWithRegisterer 创建指标收集器, 注册到指定的 Registerer.
func NewCollectorWithRegisterer(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// 分词指标
	c.tokenizeTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokenize_requests_total",
			Help:      "Total number of tokenization calls",
		},
		[]string{"backend", "status"},
	)

	c.tokenizeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tokenize_duration_seconds",
			Help:      "Tokenization duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"backend"},
	)

	c.tokensTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_counted_total",
			Help:      "Total number of tokens produced",
		},
		[]string{"backend"},
	)

	c.tokenizeFallbacks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokenizer_fallbacks_total",
			Help:      "Requests whose tokenizer key was unknown and fell back to the default",
		},
		[]string{"reason"}, // reason: empty, unknown
	)

	c.tokenizerVocab = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tokenizer_vocab_size",
			Help:      "Vocabulary size of each loaded tokenizer backend",
		},
		[]string{"backend"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🔤 分词指标记录
// =============================================================================

// RecordTokenization 记录一次分词调用; 实现 tokenizer.Observer.
func (c *Collector) RecordTokenization(backend, status string, tokens int, duration time.Duration) {
	c.tokenizeTotal.WithLabelValues(backend, status).Inc()
	c.tokenizeDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if tokens > 0 {
		c.tokensTotal.WithLabelValues(backend).Add(float64(tokens))
	}
}

// RecordTokenizerFallback 记录一次未知键回退.
// 请求的键来自用户输入, 不作为 label, 只区分是否为空.
func (c *Collector) RecordTokenizerFallback(requested string) {
	reason := "unknown"
	if requested == "" {
		reason = "empty"
	}
	c.tokenizeFallbacks.WithLabelValues(reason).Inc()
}

// RecordTokenizerLoaded 记录已加载后端的词表大小.
func (c *Collector) RecordTokenizerLoaded(backend string, vocabSize int) {
	c.tokenizerVocab.WithLabelValues(backend).Set(float64(vocabSize))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
