package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/tokencounter/config"
	"github.com/BaSui01/tokencounter/testutil/fixtures"
	"github.com/BaSui01/tokencounter/tokenizer"
)

// writeCountConfig 写一个指向 fixture tokenizer.json 的配置文件
func writeCountConfig(t *testing.T) string {
	t.Helper()
	bpe := fixtures.ByteLevelBPE(fixtures.BPEOptions{Words: []string{"你好", "，"}})
	deepseek := fixtures.WriteTokenizerJSON(t, "deepseek", bpe)
	gptoss := fixtures.WriteTokenizerJSON(t, "gpt-oss", bpe)

	content := fmt.Sprintf(`
tokenizers:
  tiktoken:
    encoding: cl100k_base
    offline: true
  deepseek:
    path: %q
  gpt_oss:
    path: %q
`, deepseek, gptoss)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCount_Plain(t *testing.T) {
	cfgPath := writeCountConfig(t)
	var stdout, stderr bytes.Buffer

	code := runCount([]string{"--config", cfgPath, "--tokenizer", "deepseek3.1", "--plain", "你好，"}, nil, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Tokenizer: deepseek3.1")
	assert.Contains(t, out, "Token 数量: 2")
	assert.Contains(t, out, `"你好"`)
	assert.Contains(t, out, `"，"`)
}

func TestRunCount_Stdin(t *testing.T) {
	cfgPath := writeCountConfig(t)
	var stdout, stderr bytes.Buffer

	code := runCount([]string{"--config", cfgPath, "--plain"},
		strings.NewReader("The quick brown fox jumps over the lazy dog."), &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Tokenizer: tiktoken")
	assert.Contains(t, stdout.String(), "Token 数量: 10")
}

func TestRunCount_UnknownTokenizerFallsBack(t *testing.T) {
	cfgPath := writeCountConfig(t)
	var stdout, stderr bytes.Buffer

	code := runCount([]string{"--config", cfgPath, "--tokenizer", "gpt-4", "hello"}, nil, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Tokenizer: "+tokenizer.DefaultKey)
}

func TestRunCount_EmptyInput(t *testing.T) {
	cfgPath := writeCountConfig(t)
	var stdout, stderr bytes.Buffer

	code := runCount([]string{"--config", cfgPath}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Token 数量: 0")
}

func TestRunCount_MissingTokenizerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tokenizers:\n  deepseek:\n    path: /non/existent.json\n"), 0o644))
	var stdout, stderr bytes.Buffer

	code := runCount([]string{"--config", path, "hi"}, nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Failed to load tokenizers")
}

func TestRunCount_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, runCount([]string{"--nope"}, nil, &stdout, &stderr))
}

func TestInitLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger := initLogger(config.LogConfig{Level: "debug", Format: format, OutputPaths: []string{"stderr"}})
		require.NotNil(t, logger)
		assert.True(t, logger.Core().Enabled(-1))
	}

	logger := initLogger(config.LogConfig{Level: "bogus"})
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(0))
}
