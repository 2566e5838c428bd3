package tokenizer

// 后端键是封闭集合, 不支持运行时增删.
const (
	KeyTiktoken = "tiktoken"
	KeyDeepSeek = "deepseek3.1"
	KeyGPTOSS   = "gpt-oss-120b"

	// DefaultKey 是未知键静默回退的目标.
	DefaultKey = KeyTiktoken
)

// Keys 按界面展示顺序返回全部后端键.
func Keys() []string {
	return []string{KeyDeepSeek, KeyTiktoken, KeyGPTOSS}
}

// IsKnownKey 判断 key 是否属于封闭集合 (精确匹配, 区分大小写).
func IsKnownKey(key string) bool {
	switch key {
	case KeyTiktoken, KeyDeepSeek, KeyGPTOSS:
		return true
	}
	return false
}

// Span 是 token 在输入文本中的字节区间 [Start, End).
type Span struct {
	Start int
	End   int
}

// Encoding 是一次编码的结果.
// 基于偏移的后端为每个 ID 给出一个 Span; 无偏移的后端 Spans 为 nil.
type Encoding struct {
	IDs   []int
	Spans []Span
}

// Backend 是统一的分词后端接口. 实现必须是只读的, 可并发调用.
type Backend interface {
	// Name 返回后端的描述性名称.
	Name() string

	// Encode 将文本编码为 token 序列.
	Encode(text string) (Encoding, error)
}

// TokenDecoder 由无偏移的后端实现, 把单个 token 解码为原始字节.
// 返回的字节可能不是合法 UTF-8 (多字节字符被拆到多个 token 中).
type TokenDecoder interface {
	DecodeToken(id int) []byte
}

// VocabSizer 由能报告词表大小的后端实现.
type VocabSizer interface {
	VocabSize() int
}
