package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenBackend 基于 tiktoken 的 BPE 后端 (默认 cl100k_base).
// 它不提供偏移, 片段通过逐个解码 token 得到.
type TiktokenBackend struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewTiktokenBackend 立即加载编码表; 失败即返回错误, 不做懒加载.
func NewTiktokenBackend(encoding string) (*TiktokenBackend, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("init tiktoken encoding %s: %w", encoding, err)
	}
	return &TiktokenBackend{encoding: encoding, enc: enc}, nil
}

func (b *TiktokenBackend) Name() string {
	return fmt.Sprintf("tiktoken[%s]", b.encoding)
}

// Encode 把特殊 token 文本当作普通文本编码, 因此不会因输入内容失败.
func (b *TiktokenBackend) Encode(text string) (Encoding, error) {
	return Encoding{IDs: b.enc.Encode(text, nil, nil)}, nil
}

// DecodeToken 返回单个 token 的原始字节.
func (b *TiktokenBackend) DecodeToken(id int) []byte {
	return []byte(b.enc.Decode([]int{id}))
}
