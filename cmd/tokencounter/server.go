package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/tokencounter/api/handlers"
	"github.com/BaSui01/tokencounter/config"
	"github.com/BaSui01/tokencounter/internal/metrics"
	"github.com/BaSui01/tokencounter/internal/server"
	"github.com/BaSui01/tokencounter/internal/telemetry"
	"github.com/BaSui01/tokencounter/internal/tlsutil"
	"github.com/BaSui01/tokencounter/tokenizer"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 TokenCounter 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 可替换, 测试里注入隔离的 registry
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	// 非空时跳过 tokenizer.Load
	registry *tokenizer.Registry

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// Handlers
	healthHandler *handlers.HealthHandler
	tokenHandler  *handlers.TokenHandler
	uiHandler     *handlers.UIHandler

	dispatcher       *tokenizer.Dispatcher
	metricsCollector *metrics.Collector
	otelProviders    *telemetry.Providers

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 加载分词后端并启动所有服务. 后端加载失败时返回错误, 不启动监听.
func (s *Server) Start(ctx context.Context) error {
	// 1. 遥测 (失败只告警)
	providers, err := telemetry.Init(ctx, s.cfg.Telemetry, Version, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
		providers = &telemetry.Providers{}
	}
	s.otelProviders = providers

	// 2. 指标收集器
	s.metricsCollector = metrics.NewCollectorWithRegisterer("tokencounter", s.registerer, s.logger)

	// 3. 分词后端
	if s.registry == nil {
		reg, err := tokenizer.Load(ctx, s.cfg.Tokenizers, s.logger)
		if err != nil {
			return fmt.Errorf("failed to load tokenizers: %w", err)
		}
		s.registry = reg
	}
	for _, info := range s.registry.Describe() {
		s.metricsCollector.RecordTokenizerLoaded(info.Key, info.VocabSize)
	}

	s.dispatcher = tokenizer.NewDispatcher(s.registry, s.logger,
		tokenizer.WithObserver(s.metricsCollector),
		tokenizer.WithTracer(s.otelProviders.Tracer(telemetry.TracerName)),
	)

	// 4. Handlers
	s.initHandlers()

	// 5. HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 6. Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Strings("tokenizers", s.registry.Keys()),
	)
	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewTokenizerHealthCheck(s.registry))

	s.tokenHandler = handlers.NewTokenHandler(s.dispatcher, s.cfg.Server.MaxBodyBytes, s.logger)
	if s.cfg.UI.Enabled {
		s.uiHandler = handlers.NewUIHandler(s.dispatcher, s.cfg.UI.DefaultTokenizer, s.cfg.Server.MaxBodyBytes, s.logger)
	}

	s.logger.Info("Handlers initialized", zap.Bool("ui_enabled", s.uiHandler != nil))
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// routes 注册全部路由
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// API
	mux.HandleFunc("/api/token", s.tokenHandler.HandleCountTokens)
	mux.HandleFunc("GET /api/tokenizers", s.tokenHandler.HandleListTokenizers)

	// 交互页面
	if s.uiHandler != nil {
		mux.Handle("/token", s.uiHandler)
		mux.Handle("GET /{$}", http.RedirectHandler("/token", http.StatusFound))
	}
	return mux
}

// handler 构建中间件链
func (s *Server) handler(ctx context.Context) http.Handler {
	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/token", "/"}

	rateLimiterCtx, rateLimiterCancel := context.WithCancel(ctx)
	s.rateLimiterCancel = rateLimiterCancel

	return Chain(s.routes(),
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(s.otelProviders.Tracer(telemetry.TracerName+"/http")),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.logger),
	)
}

func (s *Server) startHTTPServer() error {
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}
	if s.cfg.Server.TLSCertFile != "" {
		tlsConfig, err := tlsutil.ServerConfig(s.cfg.Server.TLSCertFile, s.cfg.Server.TLSKeyFile)
		if err != nil {
			return err
		}
		serverConfig.TLSConfig = tlsConfig
	}

	s.httpManager = server.NewManager("api", s.handler(context.Background()), serverConfig, s.logger)
	return s.httpManager.Start()
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 在独立端口暴露 /metrics; metrics_port 为 0 时不启动.
func (s *Server) startMetricsServer() error {
	if s.cfg.Server.MetricsPort == 0 {
		s.logger.Info("Metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager("metrics", mux, serverConfig, s.logger)
	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// Wait 阻塞直到 ctx 结束或任一服务异常退出, 然后关闭全部服务.
func (s *Server) Wait(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m == nil {
			continue
		}
		g.Go(func() error { return m.Wait(gctx) })
	}
	err := g.Wait()

	s.Shutdown()
	return err
}

// Shutdown 优雅关闭所有服务, 可重复调用
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 0. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 1. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 3. 刷新遥测数据
	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
