package tokenizer

import (
	"fmt"

	"github.com/BaSui01/tokencounter/tokenizer/hftokenizer"
)

// HFBackend 基于 HuggingFace tokenizer.json 的后端, 提供字节偏移.
// 偏移总落在字符边界上: 一个字符被拆成多个 token 时, 每个 token 都指向整个字符,
// 所以相邻区间可能重叠. 按原库默认行为添加特殊 token (如 BOS), 这些 token 的区间为空.
type HFBackend struct {
	name string
	tok  *hftokenizer.Tokenizer
}

// NewHFBackend 从本地 tokenizer.json 加载后端.
func NewHFBackend(name, path string) (*HFBackend, error) {
	tok, err := hftokenizer.NewFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s tokenizer.json: %w", name, err)
	}
	return &HFBackend{name: name, tok: tok}, nil
}

// NewHFBackendFromContent 从内存中的 tokenizer.json 内容创建后端.
func NewHFBackendFromContent(name string, content []byte) (*HFBackend, error) {
	tok, err := hftokenizer.NewFromContent(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s tokenizer.json: %w", name, err)
	}
	return &HFBackend{name: name, tok: tok}, nil
}

func (b *HFBackend) Name() string {
	return fmt.Sprintf("huggingface[%s/%s]", b.name, b.tok.ModelType())
}

func (b *HFBackend) Encode(text string) (Encoding, error) {
	res, err := b.tok.EncodeWithSpans(text)
	if err != nil {
		return Encoding{}, err
	}
	spans := make([]Span, len(res.Spans))
	for i, s := range res.Spans {
		spans[i] = Span{Start: s.Start, End: s.End}
	}
	return Encoding{IDs: res.IDs, Spans: spans}, nil
}

func (b *HFBackend) VocabSize() int {
	return b.tok.VocabSize()
}
