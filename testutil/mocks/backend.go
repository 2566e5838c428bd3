// 分词后端的测试模拟实现.
//
// 支持带偏移 / 无偏移两种形态, 以及错误与 panic 注入.
package mocks

import (
	"sync"
	"unicode/utf8"

	"github.com/BaSui01/tokencounter/tokenizer"
)

// --- 调用记录 ---

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, text)
}

// Calls 返回每次 Encode 收到的文本.
func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount 返回 Encode 的调用次数.
func (r *recorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// --- RuneBackend ---

// RuneBackend 每个字符一个 token, 提供字节偏移.
// 非法字节各自成为一个 token.
type RuneBackend struct {
	recorder
	name string
}

// NewRuneBackend 创建 RuneBackend.
func NewRuneBackend(name string) *RuneBackend {
	return &RuneBackend{name: name}
}

func (b *RuneBackend) Name() string { return b.name }

func (b *RuneBackend) Encode(text string) (tokenizer.Encoding, error) {
	b.record(text)
	enc := tokenizer.Encoding{Spans: []tokenizer.Span{}}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		enc.IDs = append(enc.IDs, int(r))
		enc.Spans = append(enc.Spans, tokenizer.Span{Start: i, End: i + size})
		i += size
	}
	return enc, nil
}

// --- ByteBackend ---

// ByteBackend 每个字节一个 token (ID 即字节值), 不提供偏移.
// 多字节字符因此被拆开, 解码出的片段不是合法 UTF-8.
type ByteBackend struct {
	recorder
	name string
}

// NewByteBackend 创建 ByteBackend.
func NewByteBackend(name string) *ByteBackend {
	return &ByteBackend{name: name}
}

func (b *ByteBackend) Name() string { return b.name }

func (b *ByteBackend) Encode(text string) (tokenizer.Encoding, error) {
	b.record(text)
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i])
	}
	return tokenizer.Encoding{IDs: ids}, nil
}

func (b *ByteBackend) DecodeToken(id int) []byte {
	return []byte{byte(id)}
}

func (b *ByteBackend) VocabSize() int { return 256 }

// --- FuncBackend ---

// FuncBackend 由调用方提供 Encode 行为, 用于注入错误、panic 或越界偏移.
type FuncBackend struct {
	recorder
	name   string
	encode func(text string) (tokenizer.Encoding, error)
}

// NewFuncBackend 创建 FuncBackend.
func NewFuncBackend(name string, encode func(text string) (tokenizer.Encoding, error)) *FuncBackend {
	return &FuncBackend{name: name, encode: encode}
}

// NewErrorBackend 返回总是失败的后端.
func NewErrorBackend(name string, err error) *FuncBackend {
	return NewFuncBackend(name, func(string) (tokenizer.Encoding, error) {
		return tokenizer.Encoding{}, err
	})
}

// NewPanicBackend 返回总是 panic 的后端.
func NewPanicBackend(name string, v any) *FuncBackend {
	return NewFuncBackend(name, func(string) (tokenizer.Encoding, error) {
		panic(v)
	})
}

func (b *FuncBackend) Name() string { return b.name }

func (b *FuncBackend) Encode(text string) (tokenizer.Encoding, error) {
	b.record(text)
	return b.encode(text)
}

// --- 注册表 ---

// NewRegistry 用三个模拟后端构建完整注册表:
// tiktoken 为 ByteBackend, 其余为 RuneBackend.
func NewRegistry() (*tokenizer.Registry, error) {
	return tokenizer.NewRegistry(map[string]tokenizer.Backend{
		tokenizer.KeyTiktoken: NewByteBackend("mock-bytes"),
		tokenizer.KeyDeepSeek: NewRuneBackend("mock-runes-deepseek"),
		tokenizer.KeyGPTOSS:   NewRuneBackend("mock-runes-gptoss"),
	})
}
