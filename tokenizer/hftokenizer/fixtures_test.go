package hftokenizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// bl converts raw text to its byte-level alphabet form.
func bl(s string) string {
	out := ""
	for i := 0; i < len(s); i++ {
		out += byteToUnicode[s[i]]
	}
	return out
}

// byteLevelBPE describes a small GPT-2 style tokenizer: the full byte
// alphabet plus merges that build each of words byte by byte.
type byteLevelBPE struct {
	words         []string
	preTokenizer  any
	postProcessor any
	addedTokens   []AddedToken
	pairMerges    bool
}

func (f byteLevelBPE) json(t *testing.T) []byte {
	t.Helper()
	vocab := make(map[string]int, 256)
	for b := 0; b < 256; b++ {
		vocab[byteToUnicode[b]] = b
	}
	var merges []any
	for _, w := range f.words {
		for k := 2; k <= len(w); k++ {
			left, right := bl(w[:k-1]), bl(w[k-1:k])
			merged := left + right
			if _, ok := vocab[merged]; ok {
				continue
			}
			vocab[merged] = len(vocab)
			if f.pairMerges {
				merges = append(merges, []string{left, right})
			} else {
				merges = append(merges, left+" "+right)
			}
		}
	}
	for _, at := range f.addedTokens {
		vocab[at.Content] = at.ID
	}
	pre := f.preTokenizer
	if pre == nil {
		pre = map[string]any{"type": "ByteLevel", "add_prefix_space": false, "use_regex": true}
	}
	doc := map[string]any{
		"version":        "1.0",
		"added_tokens":   f.addedTokens,
		"normalizer":     nil,
		"pre_tokenizer":  pre,
		"post_processor": f.postProcessor,
		"decoder":        map[string]any{"type": "ByteLevel"},
		"model": map[string]any{
			"type":   "BPE",
			"vocab":  vocab,
			"merges": merges,
		},
	}
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func (f byteLevelBPE) build(t *testing.T, opts ...Option) *Tokenizer {
	t.Helper()
	tok, err := NewFromContent(f.json(t), opts...)
	require.NoError(t, err)
	return tok
}

// fragments slices text by the spans of res.
func fragments(text string, res EncodingResult) []string {
	out := make([]string, len(res.Spans))
	for i, s := range res.Spans {
		out[i] = text[s.Start:s.End]
	}
	return out
}

func texts(pieces []normalizedString) []string {
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.text
	}
	return out
}

func strPtr(s string) *string { return &s }
