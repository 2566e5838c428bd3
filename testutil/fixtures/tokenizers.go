// =============================================================================
// 📦 测试数据工厂 - tokenizer.json
// =============================================================================
// 生成小型 HuggingFace tokenizer.json, 让测试无需下载真实模型文件
// =============================================================================
package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BaSui01/tokencounter/tokenizer/hftokenizer"
)

// ExampleInputs 是交互页面上的三个示例输入.
var ExampleInputs = []string{
	"你好，今天过得怎么样？",
	"The quick brown fox jumps over the lazy dog.",
	"这是一个较长的示例文本，用于演示此工具的 Token 计算功能。如您所见，文本越长，Token 数量越多。",
}

// BPEOptions 描述一个字节级 BPE tokenizer.json.
type BPEOptions struct {
	// Words 中每个词都会通过逐字节的 merges 合并成单个 token.
	Words []string
	// BOS 非空时通过 TemplateProcessing 在开头添加该特殊 token.
	BOS string
}

// ByteLevelBPE 生成 GPT-2 风格的 tokenizer.json: 完整字节字母表 + Words 的 merges.
func ByteLevelBPE(opts BPEOptions) []byte {
	alphabet := hftokenizer.ByteLevelAlphabet()
	toLevel := func(s string) string {
		out := ""
		for i := 0; i < len(s); i++ {
			out += alphabet[s[i]]
		}
		return out
	}

	vocab := make(map[string]int, 256+len(opts.Words)*8)
	for b, sym := range alphabet {
		vocab[sym] = b
	}
	merges := []string{}
	for _, w := range opts.Words {
		for k := 2; k <= len(w); k++ {
			left, right := toLevel(w[:k-1]), toLevel(w[k-1:k])
			if _, ok := vocab[left+right]; ok {
				continue
			}
			vocab[left+right] = len(vocab)
			merges = append(merges, left+" "+right)
		}
	}

	doc := map[string]any{
		"version":      "1.0",
		"added_tokens": []any{},
		"normalizer":   nil,
		"pre_tokenizer": map[string]any{
			"type": "Sequence",
			"pretokenizers": []any{
				map[string]any{"type": "Split", "pattern": map[string]any{"Regex": `\p{N}{1,3}`}, "behavior": "Isolated", "invert": false},
				map[string]any{"type": "ByteLevel", "add_prefix_space": false, "trim_offsets": true, "use_regex": true},
			},
		},
		"post_processor": nil,
		"decoder":        map[string]any{"type": "ByteLevel"},
		"model": map[string]any{
			"type":   "BPE",
			"vocab":  vocab,
			"merges": merges,
		},
	}

	if opts.BOS != "" {
		id := len(vocab)
		vocab[opts.BOS] = id
		doc["added_tokens"] = []any{map[string]any{
			"id": id, "content": opts.BOS, "single_word": false, "lstrip": false,
			"rstrip": false, "normalized": false, "special": true,
		}}
		doc["post_processor"] = map[string]any{
			"type": "TemplateProcessing",
			"single": []any{
				map[string]any{"SpecialToken": map[string]any{"id": opts.BOS, "type_id": 0}},
				map[string]any{"Sequence": map[string]any{"id": "A", "type_id": 0}},
			},
			"special_tokens": map[string]any{
				opts.BOS: map[string]any{"id": opts.BOS, "ids": []int{id}, "tokens": []string{opts.BOS}},
			},
		}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return out
}

// WriteTokenizerJSON 把内容写入测试临时目录并返回路径.
func WriteTokenizerJSON(t testing.TB, name string, content []byte) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	path := filepath.Join(dir, "tokenizer.json")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
