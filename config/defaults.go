// =============================================================================
// 📦 TokenCounter 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Tokenizers: DefaultTokenizersConfig(),
		UI:         DefaultUIConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:           7860,
		MetricsPort:        9091,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       60 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		RateLimitRPS:       0,
		RateLimitBurst:     50,
		CORSAllowedOrigins: []string{},
		APIKeys:            []string{},
		MaxBodyBytes:       4 << 20, // 4 MiB
	}
}

// DefaultTokenizersConfig 返回默认分词后端配置.
// tokenizer.json 默认放在工作目录下的 deepseek/ 与 gpt-oss-120b/ 中.
func DefaultTokenizersConfig() TokenizersConfig {
	return TokenizersConfig{
		Tiktoken: TiktokenConfig{
			Encoding: "cl100k_base",
			Offline:  true,
		},
		DeepSeek: HFTokenizerConfig{Path: "deepseek/tokenizer.json"},
		GPTOSS:   HFTokenizerConfig{Path: "gpt-oss-120b/tokenizer.json"},
	}
}

// DefaultUIConfig 返回默认页面配置
func DefaultUIConfig() UIConfig {
	return UIConfig{
		Enabled:          true,
		DefaultTokenizer: "deepseek3.1",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "tokencounter",
		SampleRate:   0.1,
	}
}
