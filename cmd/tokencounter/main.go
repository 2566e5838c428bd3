// =============================================================================
// TokenCounter 主入口
// =============================================================================
// 服务入口点，包含 Token 计算 API、交互页面、健康检查、Prometheus 指标
//
// 使用方法:
//
//	tokencounter serve                       # 启动服务
//	tokencounter serve --config config.yaml  # 指定配置文件
//	tokencounter count "你好，世界"           # 在终端里计算 Token
//	tokencounter version                     # 显示版本信息
//	tokencounter health                      # 健康检查
// =============================================================================

// @title TokenCounter API
// @version 1.0.0
// @description Token 计算服务：按所选分词器计算文本的 Token 数量并返回 Token 列表。

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:7860
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/tokencounter/config"
	"github.com/BaSui01/tokencounter/internal/tlsutil"
	"github.com/BaSui01/tokencounter/tokenizer"
	"github.com/BaSui01/tokencounter/visualize"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "count":
		os.Exit(runCount(os.Args[2:], os.Stdin, os.Stdout, os.Stderr))
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// loadConfig 加载并验证配置
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	return loader.Load()
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting TokenCounter",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := NewServer(cfg, logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	// 等待关闭信号或服务错误
	if err := server.Wait(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("TokenCounter stopped")
}

// =============================================================================
// 🔢 count 命令
// =============================================================================

func runCount(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	key := fs.String("tokenizer", tokenizer.DefaultKey, "Tokenizer: deepseek3.1, tiktoken, gpt-oss-120b")
	plain := fs.Bool("plain", false, "Print one token per line instead of colours")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	text := strings.Join(fs.Args(), " ")
	if fs.NArg() == 0 {
		b, err := io.ReadAll(bufio.NewReader(stdin))
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read stdin: %v\n", err)
			return 1
		}
		text = string(b)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	// 命令行只输出告警
	cfg.Log.Level = "warn"
	cfg.Log.Format = "console"
	cfg.Log.OutputPaths = []string{"stderr"}
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	reg, err := tokenizer.Load(ctx, cfg.Tokenizers, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load tokenizers: %v\n", err)
		return 1
	}

	res, err := tokenizer.NewDispatcher(reg, logger).CountAndTokenize(ctx, text, *key)
	if err != nil {
		fmt.Fprintf(stderr, "Tokenization failed: %v\n", err)
		return 1
	}

	printCount(stdout, res, *plain)
	return 0
}

func printCount(w io.Writer, res *tokenizer.Result, plain bool) {
	fmt.Fprintf(w, "Tokenizer: %s\n", res.Backend)
	fmt.Fprintf(w, "Token 数量: %d\n", res.Count)
	if res.Count == 0 {
		return
	}
	fmt.Fprintln(w)
	if plain {
		for i, tok := range res.Tokens {
			fmt.Fprintf(w, "%4d  %q\n", i, tok)
		}
		return
	}
	fmt.Fprintln(w, visualize.RenderANSI(res.Tokens))
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:7860", "Server address")
	_ = fs.Parse(args)

	client := tlsutil.SecureHTTPClient(5 * time.Second)
	resp, err := client.Get(strings.TrimSuffix(*addr, "/") + "/ready")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("OK")
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("TokenCounter %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`TokenCounter - Token 计算服务

Usage:
  tokencounter <command> [options]

Commands:
  serve     Start the HTTP server (API + /token page)
  count     Count tokens of text given as arguments or on stdin
  version   Show version information
  health    Check server readiness
  help      Show this help message

Options for 'serve':
  --config <path>      Path to configuration file (YAML)

Options for 'count':
  --config <path>      Path to configuration file (YAML)
  --tokenizer <key>    deepseek3.1, tiktoken (default), gpt-oss-120b
  --plain              One token per line, no colours

Examples:
  tokencounter serve --config /etc/tokencounter/config.yaml
  tokencounter count --tokenizer deepseek3.1 "你好，今天过得怎么样？"
  echo "The quick brown fox" | tokencounter count
  tokencounter health --addr http://localhost:7860
  tokencounter version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	// Build 默认附加 caller 与 Error 级别堆栈, 由配置关闭
	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
