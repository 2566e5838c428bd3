package hftokenizer

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// TokenizerJSON represents the structure of HuggingFace's tokenizer.json file.
type TokenizerJSON struct {
	Version       string          `json:"version"`
	Truncation    json.RawMessage `json:"truncation"`
	Padding       json.RawMessage `json:"padding"`
	AddedTokens   []AddedToken    `json:"added_tokens"`
	Normalizer    *Normalizer     `json:"normalizer"`
	PreTokenizer  *PreTokenizer   `json:"pre_tokenizer"`
	PostProcessor *PostProcessor  `json:"post_processor"`
	Decoder       json.RawMessage `json:"decoder"`
	Model         Model           `json:"model"`
}

// AddedToken represents a token added to the vocabulary on top of the model,
// usually a special token.
type AddedToken struct {
	ID         int    `json:"id"`
	Content    string `json:"content"`
	SingleWord bool   `json:"single_word"`
	Lstrip     bool   `json:"lstrip"`
	Rstrip     bool   `json:"rstrip"`
	Normalized bool   `json:"normalized"`
	Special    bool   `json:"special"`
}

// Normalizer represents the normalizer configuration.
type Normalizer struct {
	Type        string       `json:"type"`
	Normalizers []Normalizer `json:"normalizers"`

	// BertNormalizer
	CleanText          bool  `json:"clean_text"`
	HandleChineseChars bool  `json:"handle_chinese_chars"`
	StripAccents       *bool `json:"strip_accents"`
	Lowercase          bool  `json:"lowercase"`

	// Replace
	Pattern *Pattern `json:"pattern"`
	Content string   `json:"content"`

	// Prepend
	Prepend string `json:"prepend"`

	// Strip
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Pattern for regex or literal based operations. Exactly one of Regex and
// String is set.
type Pattern struct {
	Regex  *string `json:"Regex,omitempty"`
	String *string `json:"String,omitempty"`
}

// PreTokenizer represents the pre-tokenizer configuration.
type PreTokenizer struct {
	Type          string         `json:"type"`
	PreTokenizers []PreTokenizer `json:"pretokenizers"`

	// ByteLevel
	AddPrefixSpace bool  `json:"add_prefix_space"`
	TrimOffsets    bool  `json:"trim_offsets"`
	UseRegex       *bool `json:"use_regex"`

	// Split, Punctuation
	Pattern  *Pattern `json:"pattern"`
	Behavior string   `json:"behavior"`
	Invert   bool     `json:"invert"`

	// Digits
	IndividualDigits bool `json:"individual_digits"`

	// Metaspace
	Replacement   string `json:"replacement"`
	PrependScheme string `json:"prepend_scheme"`
	Split         *bool  `json:"split"`

	// CharDelimiterSplit
	Delimiter string `json:"delimiter"`
}

// PostProcessor represents the post-processor configuration.
type PostProcessor struct {
	Type string `json:"type"`

	// TemplateProcessing
	Single        []TemplatePiece                 `json:"single"`
	SpecialTokens map[string]PostProcSpecialToken `json:"special_tokens"`

	// BertProcessing, RobertaProcessing
	Sep *TokenRef `json:"sep"`
	Cls *TokenRef `json:"cls"`

	// Sequence
	Processors []PostProcessor `json:"processors"`
}

// TemplatePiece is one item of a TemplateProcessing template: either a
// special token or the placeholder for the encoded sequence.
type TemplatePiece struct {
	SpecialToken *struct {
		ID     string `json:"id"`
		TypeID int    `json:"type_id"`
	} `json:"SpecialToken,omitempty"`
	Sequence *struct {
		ID     string `json:"id"`
		TypeID int    `json:"type_id"`
	} `json:"Sequence,omitempty"`
}

// PostProcSpecialToken defines a special token for post-processing.
type PostProcSpecialToken struct {
	ID     string   `json:"id"`
	IDs    []int    `json:"ids"`
	Tokens []string `json:"tokens"`
}

// TokenRef is a (content, id) pair, serialized as a two element JSON array.
type TokenRef struct {
	Content string
	ID      int
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *TokenRef) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "token reference must be a [content, id] array")
	}
	if len(raw) != 2 {
		return errors.Errorf("token reference must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Content); err != nil {
		return errors.Wrap(err, "token reference content")
	}
	if err := json.Unmarshal(raw[1], &r.ID); err != nil {
		return errors.Wrap(err, "token reference id")
	}
	return nil
}

// Model represents the tokenizer model (BPE, WordPiece or Unigram).
//
// Vocab and Merges are kept raw because their shape depends on the model
// type: BPE and WordPiece use a {token: id} object, Unigram uses a list of
// [piece, score] pairs; merges are either "a b" strings or ["a", "b"] pairs.
type Model struct {
	Type                    string          `json:"type"`
	Vocab                   json.RawMessage `json:"vocab"`
	Merges                  json.RawMessage `json:"merges"`
	UnkToken                string          `json:"unk_token"`
	UnkID                   *int            `json:"unk_id"`
	ContinuingSubwordPrefix string          `json:"continuing_subword_prefix"`
	EndOfWordSuffix         string          `json:"end_of_word_suffix"`
	MaxInputCharsPerWord    int             `json:"max_input_chars_per_word"`
	FuseUnk                 bool            `json:"fuse_unk"`
	ByteFallback            bool            `json:"byte_fallback"`
	IgnoreMerges            bool            `json:"ignore_merges"`
	Dropout                 *float64        `json:"dropout"`
}

// modelType returns the declared model type, inferring it for older files
// that omit the field.
func (m *Model) modelType() string {
	if m.Type != "" {
		return m.Type
	}
	trimmed := strings.TrimSpace(string(m.Vocab))
	switch {
	case len(m.Merges) > 0 && string(m.Merges) != "null":
		return "BPE"
	case strings.HasPrefix(trimmed, "["):
		return "Unigram"
	case m.ContinuingSubwordPrefix != "" || m.MaxInputCharsPerWord > 0:
		return "WordPiece"
	}
	return ""
}

// vocabMap decodes a {token: id} vocabulary.
func (m *Model) vocabMap() (map[string]int, error) {
	vocab := make(map[string]int)
	if len(m.Vocab) == 0 {
		return vocab, nil
	}
	if err := json.Unmarshal(m.Vocab, &vocab); err != nil {
		return nil, errors.Wrap(err, "failed to parse model vocab")
	}
	return vocab, nil
}

// unigramPiece is one entry of a Unigram vocabulary.
type unigramPiece struct {
	Piece string
	Score float64
}

// vocabList decodes a [[piece, score], ...] vocabulary.
func (m *Model) vocabList() ([]unigramPiece, error) {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(m.Vocab, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse unigram vocab")
	}
	pieces := make([]unigramPiece, len(raw))
	for i, entry := range raw {
		if len(entry) != 2 {
			return nil, errors.Errorf("unigram vocab entry %d has %d elements, want 2", i, len(entry))
		}
		if err := json.Unmarshal(entry[0], &pieces[i].Piece); err != nil {
			return nil, errors.Wrapf(err, "unigram vocab entry %d piece", i)
		}
		if err := json.Unmarshal(entry[1], &pieces[i].Score); err != nil {
			return nil, errors.Wrapf(err, "unigram vocab entry %d score", i)
		}
	}
	return pieces, nil
}

// mergePairs decodes the BPE merges in either of the two serialized forms.
func (m *Model) mergePairs() ([][2]string, error) {
	if len(m.Merges) == 0 || string(m.Merges) == "null" {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(m.Merges, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse merges")
	}
	pairs := make([][2]string, 0, len(raw))
	for i, item := range raw {
		var line string
		if err := json.Unmarshal(item, &line); err == nil {
			parts := strings.Split(line, " ")
			if len(parts) != 2 {
				return nil, errors.Errorf("merge %d %q is not a pair", i, line)
			}
			pairs = append(pairs, [2]string{parts[0], parts[1]})
			continue
		}
		var pair []string
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) != 2 {
			return nil, errors.Errorf("merge %d is neither a string nor a pair", i)
		}
		pairs = append(pairs, [2]string{pair[0], pair[1]})
	}
	return pairs, nil
}
