// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和断言
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	testutil.AssertFragmentsTile(t, text, result.Tokens)
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🔤 分词断言
// =============================================================================

// AssertFragmentsTile 断言片段按顺序拼接后恰好还原输入.
// 只适用于没有字符被拆成多个 token 的情况, 否则该字符会重复出现.
func AssertFragmentsTile(t *testing.T, text string, fragments []string) {
	t.Helper()
	if joined := strings.Join(fragments, ""); joined != text {
		t.Errorf("fragments do not tile the input:\ninput:  %q\njoined: %q", text, joined)
	}
}

// AssertValidUTF8 断言每个片段都是合法 UTF-8.
func AssertValidUTF8(t *testing.T, fragments []string) {
	t.Helper()
	for i, f := range fragments {
		if !utf8.ValidString(f) {
			t.Errorf("fragment[%d] %q is not valid UTF-8", i, f)
		}
	}
}

// =============================================================================
// ⏱️ 时间辅助
// =============================================================================

// WaitFor 等待条件满足或超时
func WaitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// =============================================================================
// 🔧 测试数据辅助
// =============================================================================

// MustJSON 将值转换为 JSON 字符串，失败时 panic
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
