package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/tokencounter/api"
	"github.com/BaSui01/tokencounter/config"
	"github.com/BaSui01/tokencounter/internal/tlsutil"
	"github.com/BaSui01/tokencounter/testutil"
	"github.com/BaSui01/tokencounter/testutil/mocks"
)

// startTestServer 在随机端口启动服务, 使用模拟后端与独立的指标 registry.
func startTestServer(t *testing.T, mutate func(*config.Config)) (*Server, string, *prometheus.Registry) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.HTTPPort = 0
	cfg.Server.MetricsPort = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	if mutate != nil {
		mutate(cfg)
	}

	reg, err := mocks.NewRegistry()
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	s := NewServer(cfg, zap.NewNop())
	s.registry = reg
	s.registerer = promReg
	s.gatherer = promReg

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Shutdown)

	_, port, err := net.SplitHostPort(s.httpManager.Addr())
	require.NoError(t, err)
	return s, "http://127.0.0.1:" + port, promReg
}

func TestServer_CountTokensEndToEnd(t *testing.T) {
	_, base, promReg := startTestServer(t, nil)

	resp, err := http.Post(base+"/api/token", "application/json",
		strings.NewReader(`{"text":"héllo","tokenizer_type":"deepseek3.1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var out api.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 5, out.Count)
	assert.Equal(t, []string{"h", "é", "l", "l", "o"}, out.Tokens)

	expected := `
# HELP tokencounter_tokenize_requests_total Total number of tokenization calls
# TYPE tokencounter_tokenize_requests_total counter
tokencounter_tokenize_requests_total{backend="deepseek3.1",status="success"} 1
`
	assert.NoError(t, promtestutil.GatherAndCompare(promReg, strings.NewReader(expected),
		"tokencounter_tokenize_requests_total"))
}

func TestServer_UnknownTokenizerCountsFallback(t *testing.T) {
	_, base, promReg := startTestServer(t, nil)

	resp, err := http.Post(base+"/api/token", "application/json",
		strings.NewReader(`{"text":"ab","tokenizer_type":"gpt-4"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := promtestutil.GatherAndCount(promReg, "tokencounter_tokenizer_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestServer_TokenPage(t *testing.T) {
	_, base, _ := startTestServer(t, nil)

	resp, err := http.PostForm(base+"/token", url.Values{"text": {"ab"}, "tokenizer": {"gpt-oss-120b"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `id="token-count">2</div>`)
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "'unsafe-inline'")
}

func TestServer_RootRedirectsToPage(t *testing.T) {
	_, base, _ := startTestServer(t, nil)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(base + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/token", resp.Header.Get("Location"))
}

func TestServer_UIDisabled(t *testing.T) {
	_, base, _ := startTestServer(t, func(cfg *config.Config) {
		cfg.UI.Enabled = false
	})

	resp, err := http.Get(base + "/token")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Ready(t *testing.T) {
	_, base, _ := startTestServer(t, nil)

	resp, err := http.Get(base + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ListTokenizers(t *testing.T) {
	_, base, _ := startTestServer(t, nil)

	resp, err := http.Get(base + "/api/tokenizers")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Data api.TokenizersResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Data.Tokenizers, 3)
}

func TestServer_APIKeysProtectAPIOnly(t *testing.T) {
	_, base, _ := startTestServer(t, func(cfg *config.Config) {
		cfg.Server.APIKeys = []string{"k1"}
	})

	resp, err := http.Post(base+"/api/token", "application/json", strings.NewReader(`{"text":"a"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, base+"/api/token", strings.NewReader(`{"text":"a"}`))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "k1")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_WaitReturnsOnCancel(t *testing.T) {
	s, _, _ := startTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Wait(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
	assert.False(t, s.httpManager.IsRunning())
}

func TestServer_StartFailsWhenTokenizersMissing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.HTTPPort = 0
	cfg.Server.MetricsPort = 0
	cfg.Tokenizers.DeepSeek.Path = "/non/existent/tokenizer.json"

	promReg := prometheus.NewRegistry()
	s := NewServer(cfg, zap.NewNop())
	s.registerer = promReg
	s.gatherer = promReg

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load tokenizers")
	assert.Nil(t, s.httpManager)
}

func TestServer_ServesHTTPS(t *testing.T) {
	certFile, keyFile, pool := testutil.WriteSelfSignedCert(t)
	_, base, _ := startTestServer(t, func(cfg *config.Config) {
		cfg.Server.TLSCertFile = certFile
		cfg.Server.TLSKeyFile = keyFile
	})

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: tlsutil.SecureTransport(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}),
	}
	resp, err := client.Get(strings.Replace(base, "http://", "https://", 1) + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_StartFailsWithBadCertificate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.HTTPPort = 0
	cfg.Server.MetricsPort = 0
	cfg.Server.TLSCertFile = "/non/existent.crt"
	cfg.Server.TLSKeyFile = "/non/existent.key"

	reg, err := mocks.NewRegistry()
	require.NoError(t, err)
	promReg := prometheus.NewRegistry()
	s := NewServer(cfg, zap.NewNop())
	s.registry = reg
	s.registerer = promReg
	s.gatherer = promReg

	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load TLS key pair")
}
