// 配置加载器与校验测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	// 不指定配置文件，应该返回默认值
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 7860, cfg.Server.HTTPPort)
	assert.Equal(t, "cl100k_base", cfg.Tokenizers.Tiktoken.Encoding)
	assert.Equal(t, "deepseek3.1", cfg.UI.DefaultTokenizer)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_port: 8888
  read_timeout: 60s
  rate_limit_rps: 5.5
  cors_allowed_origins:
    - "https://example.com"
  api_keys: ["k1", "k2"]

tokenizers:
  tiktoken:
    encoding: "o200k_base"
    offline: false
  deepseek:
    path: "/srv/models/deepseek/tokenizer.json"
  gpt_oss:
    path: "/srv/models/gpt-oss/tokenizer.json"

ui:
  enabled: false
  default_tokenizer: "gpt-oss-120b"

log:
  level: "debug"
  format: "console"
`)

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// 验证 YAML 值覆盖了默认值
	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.InDelta(t, 5.5, cfg.Server.RateLimitRPS, 0.001)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)

	assert.Equal(t, "o200k_base", cfg.Tokenizers.Tiktoken.Encoding)
	assert.False(t, cfg.Tokenizers.Tiktoken.Offline)
	assert.Equal(t, "/srv/models/deepseek/tokenizer.json", cfg.Tokenizers.DeepSeek.Path)
	assert.Equal(t, "/srv/models/gpt-oss/tokenizer.json", cfg.Tokenizers.GPTOSS.Path)

	assert.False(t, cfg.UI.Enabled)
	assert.Equal(t, "gpt-oss-120b", cfg.UI.DefaultTokenizer)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	// 未出现在 YAML 中的字段保留默认值
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("TOKENCOUNTER_SERVER_HTTP_PORT", "7777")
	t.Setenv("TOKENCOUNTER_SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TOKENCOUNTER_SERVER_API_KEYS", "alpha, beta,,")
	t.Setenv("TOKENCOUNTER_SERVER_MAX_BODY_BYTES", "1024")
	t.Setenv("TOKENCOUNTER_TOKENIZERS_TIKTOKEN_OFFLINE", "false")
	t.Setenv("TOKENCOUNTER_TOKENIZERS_DEEPSEEK_PATH", "/env/deepseek.json")
	t.Setenv("TOKENCOUNTER_TOKENIZERS_GPT_OSS_PATH", "/env/gptoss.json")
	t.Setenv("TOKENCOUNTER_UI_DEFAULT_TOKENIZER", "tiktoken")
	t.Setenv("TOKENCOUNTER_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("TOKENCOUNTER_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Server.APIKeys)
	assert.Equal(t, int64(1024), cfg.Server.MaxBodyBytes)
	assert.False(t, cfg.Tokenizers.Tiktoken.Offline)
	assert.Equal(t, "/env/deepseek.json", cfg.Tokenizers.DeepSeek.Path)
	assert.Equal(t, "/env/gptoss.json", cfg.Tokenizers.GPTOSS.Path)
	assert.Equal(t, "tiktoken", cfg.UI.DefaultTokenizer)
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRate, 0.001)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_port: 8888
tokenizers:
  deepseek:
    path: "yaml-deepseek.json"
  gpt_oss:
    path: "yaml-gptoss.json"
`)

	// 环境变量应该覆盖 YAML
	t.Setenv("TOKENCOUNTER_SERVER_HTTP_PORT", "9999")
	t.Setenv("TOKENCOUNTER_TOKENIZERS_DEEPSEEK_PATH", "env-deepseek.json")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "env-deepseek.json", cfg.Tokenizers.DeepSeek.Path)
	// YAML 值应该保留（没有被环境变量覆盖）
	assert.Equal(t, "yaml-gptoss.json", cfg.Tokenizers.GPTOSS.Path)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")
	t.Setenv("MYAPP_UI_ENABLED", "false")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
	assert.False(t, cfg.UI.Enabled)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("TOKENCOUNTER_SERVER_HTTP_PORT", "not-a-number")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKENCOUNTER_SERVER_HTTP_PORT")
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Server.HTTPPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	t.Setenv("TOKENCOUNTER_SERVER_HTTP_PORT", "80")

	_, err := NewLoader().
		WithValidator(validator).
		Load()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLoader_ValidateAsValidator(t *testing.T) {
	t.Setenv("TOKENCOUNTER_UI_DEFAULT_TOKENIZER", "llama")

	_, err := NewLoader().
		WithValidator((*Config).Validate).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ui.default_tokenizer "llama"`)
}

func TestLoader_NonExistentFile(t *testing.T) {
	// 指定不存在的文件，应该使用默认值（不报错）
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 7860, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_port: [invalid
  this is not valid yaml
`)

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "invalid HTTP port (negative)",
			modify:  func(c *Config) { c.Server.HTTPPort = -1 },
			wantErr: "invalid HTTP port",
		},
		{
			name:    "invalid HTTP port (too large)",
			modify:  func(c *Config) { c.Server.HTTPPort = 70000 },
			wantErr: "invalid HTTP port",
		},
		{
			name:    "metrics port collides with HTTP port",
			modify:  func(c *Config) { c.Server.MetricsPort = c.Server.HTTPPort },
			wantErr: "metrics port must differ",
		},
		{
			name:   "metrics disabled",
			modify: func(c *Config) { c.Server.MetricsPort = 0 },
		},
		{
			name: "rate limit without burst",
			modify: func(c *Config) {
				c.Server.RateLimitRPS = 10
				c.Server.RateLimitBurst = 0
			},
			wantErr: "rate_limit_burst",
		},
		{
			name:    "zero body limit",
			modify:  func(c *Config) { c.Server.MaxBodyBytes = 0 },
			wantErr: "max_body_bytes",
		},
		{
			name:    "TLS cert without key",
			modify:  func(c *Config) { c.Server.TLSCertFile = "server.crt" },
			wantErr: "tls_cert_file and tls_key_file",
		},
		{
			name: "TLS cert and key",
			modify: func(c *Config) {
				c.Server.TLSCertFile = "server.crt"
				c.Server.TLSKeyFile = "server.key"
			},
		},
		{
			name:    "missing deepseek path",
			modify:  func(c *Config) { c.Tokenizers.DeepSeek.Path = "" },
			wantErr: "tokenizers.deepseek.path is required",
		},
		{
			name:    "missing gpt-oss path",
			modify:  func(c *Config) { c.Tokenizers.GPTOSS.Path = "" },
			wantErr: "tokenizers.gpt_oss.path is required",
		},
		{
			name:    "unknown UI default",
			modify:  func(c *Config) { c.UI.DefaultTokenizer = "DeepSeek3.1" },
			wantErr: "unknown ui.default_tokenizer",
		},
		{
			name:   "empty UI default",
			modify: func(c *Config) { c.UI.DefaultTokenizer = "" },
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "unknown log format",
		},
		{
			name:    "sample rate too high",
			modify:  func(c *Config) { c.Telemetry.SampleRate = 1.5 },
			wantErr: "sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.HTTPPort = 0
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
	assert.Contains(t, err.Error(), "unknown log format")
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_port: 8080
`)

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 8080, cfg.Server.HTTPPort)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml")

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	t.Setenv("TOKENCOUNTER_TOKENIZERS_TIKTOKEN_ENCODING", "p50k_base")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "p50k_base", cfg.Tokenizers.Tiktoken.Encoding)
}
