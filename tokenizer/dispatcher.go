package tokenizer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/runes"

	"github.com/BaSui01/tokencounter/types"
)

// =============================================================================
// 🔀 分词分发器
// =============================================================================

// Result 是一次分发的统一结果.
type Result struct {
	// Backend 实际使用的后端键 (回退后为 DefaultKey).
	Backend string
	// Count 恒等于 len(Tokens).
	Count int
	// Tokens 按输出顺序排列的 token 片段.
	Tokens []string
	// FellBack 表示请求的键未知, 已静默回退.
	FellBack bool
}

// Observer 接收分发指标, 由 internal/metrics.Collector 实现.
type Observer interface {
	RecordTokenization(backend, status string, tokens int, duration time.Duration)
	RecordTokenizerFallback(requested string)
}

// Dispatcher 把 (文本, 键) 路由到后端并产出 (数量, 片段).
// 无状态, 可并发使用.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
	observer Observer
	tracer   trace.Tracer
}

// DispatcherOption 配置 Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver 设置指标观察者.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

// WithTracer 设置 tracer, 默认使用全局 TracerProvider.
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) { d.tracer = t }
}

// NewDispatcher 创建分发器.
func NewDispatcher(registry *Registry, logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		registry: registry,
		logger:   logger.With(zap.String("component", "tokenizer_dispatcher")),
		tracer:   otel.Tracer("github.com/BaSui01/tokencounter/tokenizer"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry 返回分发器使用的注册表.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// CountAndTokenize 用 key 对应的后端分词 text.
//
// 未知 key (包括空串) 静默回退到 DefaultKey. 空文本直接返回空结果,
// 不调用后端. 后端失败时返回 TOKENIZER_ERROR, 不返回部分结果.
func (d *Dispatcher) CountAndTokenize(ctx context.Context, text, key string) (*Result, error) {
	backend, resolved, fellBack := d.registry.Resolve(key)
	if fellBack {
		d.logger.Debug("unknown tokenizer, falling back",
			zap.String("requested", key),
			zap.String("fallback", resolved),
		)
		if d.observer != nil {
			d.observer.RecordTokenizerFallback(key)
		}
	}

	if text == "" {
		return &Result{Backend: resolved, Tokens: []string{}, FellBack: fellBack}, nil
	}

	_, span := d.tracer.Start(ctx, "tokenizer.CountAndTokenize",
		trace.WithAttributes(
			attribute.String("tokenizer.requested", key),
			attribute.String("tokenizer.backend", resolved),
			attribute.Int("tokenizer.input_bytes", len(text)),
		),
	)
	defer span.End()

	start := time.Now()
	tokens, err := tokenize(backend, text)
	duration := time.Since(start)

	if err != nil {
		terr := types.NewError(types.ErrTokenizerError, "tokenization failed").
			WithHTTPStatus(http.StatusInternalServerError).
			WithTokenizer(resolved).
			WithCause(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error("tokenization failed",
			zap.String("tokenizer", resolved),
			zap.Error(err),
		)
		if d.observer != nil {
			d.observer.RecordTokenization(resolved, "error", 0, duration)
		}
		return nil, terr
	}

	span.SetAttributes(attribute.Int("tokenizer.token_count", len(tokens)))
	if d.observer != nil {
		d.observer.RecordTokenization(resolved, "success", len(tokens), duration)
	}
	return &Result{
		Backend:  resolved,
		Count:    len(tokens),
		Tokens:   tokens,
		FellBack: fellBack,
	}, nil
}

// tokenize 调用一次 Encode 并把结果转换成片段; 后端 panic 视为失败.
func tokenize(backend Backend, text string) (tokens []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens, err = nil, fmt.Errorf("backend %s panicked: %v", backend.Name(), r)
		}
	}()

	enc, err := backend.Encode(text)
	if err != nil {
		return nil, err
	}
	if enc.Spans != nil {
		return sliceFragments(text, enc)
	}
	decoder, ok := backend.(TokenDecoder)
	if !ok {
		return nil, fmt.Errorf("backend %s returned no offsets and cannot decode tokens", backend.Name())
	}
	return decodeFragments(decoder, enc.IDs), nil
}

// sliceFragments 直接按字节区间切分输入.
func sliceFragments(text string, enc Encoding) ([]string, error) {
	if len(enc.Spans) != len(enc.IDs) {
		return nil, fmt.Errorf("backend returned %d spans for %d tokens", len(enc.Spans), len(enc.IDs))
	}
	out := make([]string, len(enc.Spans))
	for i, s := range enc.Spans {
		if s.Start < 0 || s.End < s.Start || s.End > len(text) {
			return nil, fmt.Errorf("token %d span [%d,%d) is outside the input of %d bytes", i, s.Start, s.End, len(text))
		}
		out[i] = text[s.Start:s.End]
	}
	return out, nil
}

// decodeFragments 逐个解码 token; 非法 UTF-8 替换为 U+FFFD, 不会失败.
func decodeFragments(decoder TokenDecoder, ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = validUTF8(decoder.DecodeToken(id))
	}
	return out
}

// validUTF8 把每个不属于合法 UTF-8 序列的字节替换为 U+FFFD.
func validUTF8(b []byte) string {
	return runes.ReplaceIllFormed().String(string(b))
}
