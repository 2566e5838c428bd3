package hftokenizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteLevelBPE_SpansTileInput(t *testing.T) {
	tok := byteLevelBPE{words: []string{"Hello", " 你好"}}.build(t)

	text := "Hello 你好!"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	assert.Equal(t, []TokenSpan{{0, 5}, {5, 12}, {12, 13}}, res.Spans)
	assert.Equal(t, []string{"Hello", " 你好", "!"}, fragments(text, res))
	assert.Len(t, res.IDs, 3)

	id, ok := tok.TokenToID(bl(" 你好"))
	require.True(t, ok)
	assert.Equal(t, id, res.IDs[1])
}

func TestByteLevelBPE_UnmergedCharacterSplitsIntoBytes(t *testing.T) {
	tok := byteLevelBPE{}.build(t)

	text := "你"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	// Each byte token reports the whole character it belongs to.
	assert.Equal(t, []int{0xe4, 0xbd, 0xa0}, res.IDs)
	assert.Equal(t, []TokenSpan{{0, 3}, {0, 3}, {0, 3}}, res.Spans)
	assert.Equal(t, []string{"你", "你", "你"}, fragments(text, res))
}

func TestByteLevelBPE_SplitCharactersKeepWholeRunes(t *testing.T) {
	tok := byteLevelBPE{}.build(t)

	tests := []struct {
		name  string
		text  string
		spans []TokenSpan
		want  []string
	}{
		{
			name:  "emoji",
			text:  "😀",
			spans: []TokenSpan{{0, 4}, {0, 4}, {0, 4}, {0, 4}},
			want:  []string{"😀", "😀", "😀", "😀"},
		},
		{
			name:  "cjk between ascii",
			text:  "a 龘 b",
			spans: []TokenSpan{{0, 1}, {1, 2}, {2, 5}, {2, 5}, {2, 5}, {5, 6}, {6, 7}},
			want:  []string{"a", " ", "龘", "龘", "龘", " ", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tok.EncodeWithSpans(tt.text)
			require.NoError(t, err)

			assert.Equal(t, tt.spans, res.Spans)
			got := fragments(tt.text, res)
			assert.Equal(t, tt.want, got)
			for _, f := range got {
				assert.True(t, utf8.ValidString(f), "fragment %q", f)
			}
		})
	}
}

func TestWidenToRunes(t *testing.T) {
	text := "a\xff龘"
	spans := []TokenSpan{{0, 1}, {1, 2}, {3, 4}, {0, 0}, {4, 5}}
	widenToRunes(text, spans)

	// ill-formed bytes stay single, empty spans stay empty
	assert.Equal(t, []TokenSpan{{0, 1}, {1, 2}, {2, 5}, {0, 0}, {2, 5}}, spans)
}

func TestByteLevelBPE_InvalidUTF8(t *testing.T) {
	tok := byteLevelBPE{words: []string{"ab"}}.build(t)

	text := "ab\xffc"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	assert.Equal(t, text, strings.Join(fragments(text, res), ""))
	assert.Contains(t, res.IDs, 0xff)
}

func TestByteLevelBPE_PairMerges(t *testing.T) {
	tok := byteLevelBPE{words: []string{"quick"}, pairMerges: true}.build(t)

	ids, err := tok.Encode("quick")
	require.NoError(t, err)
	require.Len(t, ids, 1)

	got, ok := tok.IDToToken(ids[0])
	require.True(t, ok)
	assert.Equal(t, "quick", got)
}

func TestByteLevelBPE_AddPrefixSpaceIsNotAttributedToInput(t *testing.T) {
	tok := byteLevelBPE{
		words:        []string{" hi"},
		preTokenizer: map[string]any{"type": "ByteLevel", "add_prefix_space": true, "use_regex": true},
	}.build(t)

	text := "hi"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	require.Len(t, res.IDs, 1)
	assert.Equal(t, []TokenSpan{{0, 2}}, res.Spans)
}

func TestTemplateProcessing_AddsBOSWithEmptySpan(t *testing.T) {
	bos := AddedToken{ID: 1000, Content: "<bos>", Special: true}
	f := byteLevelBPE{
		words:       []string{"hi"},
		addedTokens: []AddedToken{bos},
		postProcessor: map[string]any{
			"type": "TemplateProcessing",
			"single": []any{
				map[string]any{"SpecialToken": map[string]any{"id": "<bos>", "type_id": 0}},
				map[string]any{"Sequence": map[string]any{"id": "A", "type_id": 0}},
			},
			"special_tokens": map[string]any{
				"<bos>": map[string]any{"id": "<bos>", "ids": []int{1000}, "tokens": []string{"<bos>"}},
			},
		},
	}

	res, err := f.build(t).EncodeWithSpans("hi")
	require.NoError(t, err)
	assert.Equal(t, 1000, res.IDs[0])
	assert.Equal(t, []TokenSpan{{0, 0}, {0, 2}}, res.Spans)
	assert.Equal(t, []string{"", "hi"}, fragments("hi", res))

	res, err = f.build(t, WithAddSpecialTokens(false)).EncodeWithSpans("hi")
	require.NoError(t, err)
	assert.Len(t, res.IDs, 1)

	_, err = f.build(t).EncodeWithSpans("")
	require.NoError(t, err)
}

func TestAddedTokens_MatchedWholeInInput(t *testing.T) {
	eot := AddedToken{ID: 2000, Content: "<|eot|>", Special: true}
	tok := byteLevelBPE{addedTokens: []AddedToken{eot}}.build(t)

	text := "a<|eot|>b"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "<|eot|>", "b"}, fragments(text, res))
	assert.Equal(t, 2000, res.IDs[1])
}

func TestAddedTokens_Strip(t *testing.T) {
	mask := AddedToken{ID: 3000, Content: "<mask>", Lstrip: true, Rstrip: true, Special: true}
	tok := byteLevelBPE{addedTokens: []AddedToken{mask}}.build(t)

	text := "a <mask> b"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", " <mask> ", "b"}, fragments(text, res))
}

func TestSplitSequence_DeepSeekStyle(t *testing.T) {
	tok := byteLevelBPE{
		preTokenizer: map[string]any{
			"type": "Sequence",
			"pretokenizers": []any{
				map[string]any{"type": "Split", "pattern": map[string]any{"Regex": `\p{N}{1,3}`}, "behavior": "Isolated", "invert": false},
				map[string]any{"type": "Split", "pattern": map[string]any{"Regex": `[一-龥]+`}, "behavior": "Isolated", "invert": false},
				map[string]any{"type": "ByteLevel", "add_prefix_space": false, "use_regex": false},
			},
		},
		words: []string{"123", "45", "你好"},
	}.build(t)

	text := "12345你好"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"123", "45", "你好"}, fragments(text, res))
}

func TestNewFromContent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{`},
		{"unknown model", `{"model": {"type": "Mystery"}}`},
		{"unsupported normalizer", `{"normalizer": {"type": "Precompiled"}, "model": {"type": "BPE", "vocab": {}, "merges": []}}`},
		{"merge outside vocab", `{"model": {"type": "BPE", "vocab": {"a": 0}, "merges": ["a b"]}}`},
		{"bad split regex", `{"pre_tokenizer": {"type": "Split", "pattern": {"Regex": "("}}, "model": {"type": "BPE", "vocab": {}, "merges": []}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromContent([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestNewFromFile_Missing(t *testing.T) {
	_, err := NewFromFile(t.TempDir() + "/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
}

func TestWordPiece(t *testing.T) {
	content := `{
  "normalizer": {"type": "BertNormalizer", "lowercase": true, "clean_text": true},
  "pre_tokenizer": {"type": "BertPreTokenizer"},
  "post_processor": {"type": "BertProcessing", "sep": ["[SEP]", 102], "cls": ["[CLS]", 101]},
  "model": {
    "type": "WordPiece",
    "unk_token": "[UNK]",
    "continuing_subword_prefix": "##",
    "max_input_chars_per_word": 100,
    "vocab": {"[UNK]": 100, "[CLS]": 101, "[SEP]": 102, "un": 1, "##aff": 2, "##able": 3, "!": 4}
  }
}`
	tok, err := NewFromContent([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, "WordPiece", tok.ModelType())

	text := "Unaffable xyz!"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	assert.Equal(t, []int{101, 1, 2, 3, 100, 4, 102}, res.IDs)
	assert.Equal(t, []string{"", "Un", "aff", "able", "xyz", "!", ""}, fragments(text, res))
}

func TestUnigram(t *testing.T) {
	content := `{
  "pre_tokenizer": {"type": "Metaspace", "replacement": "▁", "prepend_scheme": "always"},
  "model": {
    "type": "Unigram",
    "unk_id": 0,
    "vocab": [["<unk>", 0.0], ["▁", -2.0], ["a", -1.0], ["b", -1.0], ["ab", -1.5], ["▁ab", -1.0]]
  }
}`
	tok, err := NewFromContent([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, 6, tok.VocabSize())

	text := "ab abcc"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	// "▁ab" | "▁ab" "<unk>" where the unknown "cc" is fused.
	assert.Equal(t, []int{5, 5, 0}, res.IDs)
	assert.Equal(t, []string{"ab", " ab", "cc"}, fragments(text, res))
}

func TestBPE_MergeRankOrder(t *testing.T) {
	content := `{
  "model": {
    "type": "BPE",
    "vocab": {"a": 0, "b": 1, "c": 2, "ab": 3, "bc": 4},
    "merges": ["b c", "a b"]
  }
}`
	tok, err := NewFromContent([]byte(content))
	require.NoError(t, err)

	ids, err := tok.Encode("abc")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4}, ids)

	ids, err = tok.Encode("abab")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, ids)
}

func TestBPE_ByteFallbackAndUnk(t *testing.T) {
	content := `{
  "model": {
    "type": "BPE",
    "unk_token": "<unk>",
    "fuse_unk": true,
    "byte_fallback": true,
    "vocab": {"<unk>": 0, "a": 1, "<0xC3>": 2, "<0xA9>": 3},
    "merges": []
  }
}`
	tok, err := NewFromContent([]byte(content))
	require.NoError(t, err)

	text := "aéxy"
	res, err := tok.EncodeWithSpans(text)
	require.NoError(t, err)

	// é falls back to bytes, x and y have no bytes and fuse into one <unk>.
	assert.Equal(t, []int{1, 2, 3, 0}, res.IDs)
	assert.Equal(t, []TokenSpan{{0, 1}, {1, 3}, {1, 3}, {3, 5}}, res.Spans)
}

func TestBPE_IgnoreMerges(t *testing.T) {
	content := `{
  "model": {
    "type": "BPE",
    "ignore_merges": true,
    "vocab": {"a": 0, "b": 1, "c": 2, "abc": 3},
    "merges": []
  }
}`
	tok, err := NewFromContent([]byte(content))
	require.NoError(t, err)

	ids, err := tok.Encode("abc")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, ids)
}
