// Package hftokenizer implements a tokenizer for HuggingFace's tokenizer.json
// format, the one used by the "fast" tokenizers library.
//
// It follows the library's pipeline: added tokens are cut out first, the rest
// is normalized, pre-tokenized and fed to the model (BPE, WordPiece or
// Unigram), then the post-processor adds special tokens. Every token carries
// the byte span of the input it was produced from, widened to whole
// characters, so callers can slice the original text directly.
package hftokenizer

import (
	"encoding/json"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// TokenSpan is the byte span [Start, End) of a token in the original text.
// Tokens that do not come from the input, such as a BOS added by the
// post-processor, have the empty span (0, 0).
type TokenSpan struct {
	Start int
	End   int
}

// EncodingResult contains token IDs with their spans in the original text.
type EncodingResult struct {
	IDs   []int
	Spans []TokenSpan
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithAddSpecialTokens controls whether the post-processor runs. It is on by
// default, as in the reference library.
func WithAddSpecialTokens(add bool) Option {
	return func(t *Tokenizer) { t.addSpecialTokens = add }
}

// Tokenizer is an immutable tokenizer built from a tokenizer.json file. It is
// safe for concurrent use.
type Tokenizer struct {
	modelType        string
	model            model
	added            *addedVocabulary
	addedByID        map[int]string
	addedByContent   map[string]int
	normalizer       normalizer
	preTokenizer     preTokenizer
	postProcessor    postProcessor
	addSpecialTokens bool
}

// NewFromFile creates a tokenizer from a local tokenizer.json file path.
func NewFromFile(filePath string, opts ...Option) (*Tokenizer, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer.json file %q", filePath)
	}
	return NewFromContent(content, opts...)
}

// NewFromContent creates a tokenizer from tokenizer.json content.
func NewFromContent(content []byte, opts ...Option) (*Tokenizer, error) {
	var tj TokenizerJSON
	if err := json.Unmarshal(content, &tj); err != nil {
		return nil, errors.Wrap(err, "failed to parse tokenizer.json")
	}
	return newTokenizer(&tj, opts...)
}

func newTokenizer(tj *TokenizerJSON, opts ...Option) (*Tokenizer, error) {
	t := &Tokenizer{
		modelType:        tj.Model.modelType(),
		added:            newAddedVocabulary(tj.AddedTokens),
		addedByID:        make(map[int]string, len(tj.AddedTokens)),
		addedByContent:   make(map[string]int, len(tj.AddedTokens)),
		addSpecialTokens: true,
	}
	for _, at := range tj.AddedTokens {
		t.addedByID[at.ID] = at.Content
		t.addedByContent[at.Content] = at.ID
	}

	var err error
	switch t.modelType {
	case "BPE":
		t.model, err = newBPEModel(&tj.Model)
	case "WordPiece":
		t.model, err = newWordPieceModel(&tj.Model)
	case "Unigram":
		t.model, err = newUnigramModel(&tj.Model)
	default:
		err = errors.Errorf("unsupported model type %q", tj.Model.Type)
	}
	if err != nil {
		return nil, errors.Wrap(err, "model")
	}
	if t.normalizer, err = buildNormalizer(tj.Normalizer); err != nil {
		return nil, errors.Wrap(err, "normalizer")
	}
	if t.preTokenizer, err = buildPreTokenizer(tj.PreTokenizer); err != nil {
		return nil, errors.Wrap(err, "pre_tokenizer")
	}
	if t.postProcessor, err = buildPostProcessor(tj.PostProcessor); err != nil {
		return nil, errors.Wrap(err, "post_processor")
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Encode returns the token IDs of text.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	res, err := t.EncodeWithSpans(text)
	if err != nil {
		return nil, err
	}
	return res.IDs, nil
}

// EncodeWithSpans returns the token IDs of text along with the byte span each
// token was produced from. Spans always fall on character boundaries: when the
// model splits one character across several tokens, each of them reports the
// whole character, so consecutive spans may overlap (or repeat). Otherwise
// they never overlap unless a normalizer merged input characters.
func (t *Tokenizer) EncodeWithSpans(text string) (EncodingResult, error) {
	var res EncodingResult
	for _, seg := range t.added.split(text) {
		if seg.added {
			res.IDs = append(res.IDs, seg.id)
			res.Spans = append(res.Spans, TokenSpan{Start: seg.start, End: seg.end})
			continue
		}
		if err := t.encodeSegment(text[seg.start:seg.end], seg.start, &res); err != nil {
			return EncodingResult{}, err
		}
	}
	if t.addSpecialTokens && t.postProcessor != nil {
		res = t.postProcessor(res)
	}
	widenToRunes(text, res.Spans)
	return res, nil
}

// widenToRunes grows every non-empty span outward to the enclosing character
// boundaries of text. Ill-formed bytes count as one-byte characters.
func widenToRunes(text string, spans []TokenSpan) {
	// every character is a single byte
	if len(spans) == 0 || len(text) == utf8.RuneCountInString(text) {
		return
	}
	boundary := make([]bool, len(text)+1)
	for i := 0; i < len(text); {
		boundary[i] = true
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	boundary[len(text)] = true

	for i := range spans {
		s := &spans[i]
		if s.Start == s.End || s.Start < 0 || s.End > len(text) {
			continue
		}
		for s.Start > 0 && !boundary[s.Start] {
			s.Start--
		}
		for s.End < len(text) && !boundary[s.End] {
			s.End++
		}
	}
}

func (t *Tokenizer) encodeSegment(segment string, offset int, res *EncodingResult) error {
	n := newNormalizedString(segment, offset)
	var err error
	if t.normalizer != nil {
		if n, err = t.normalizer(n); err != nil {
			return errors.Wrap(err, "normalize")
		}
	}
	words := []normalizedString{n}
	if t.preTokenizer != nil {
		if words, err = t.preTokenizer(n); err != nil {
			return errors.Wrap(err, "pre-tokenize")
		}
	}
	for _, word := range words {
		tokens, err := t.model.tokenize(word.text)
		if err != nil {
			return errors.Wrapf(err, "tokenize %q", word.text)
		}
		for _, tok := range tokens {
			orig := word.originalRange(tok.start, tok.end)
			res.IDs = append(res.IDs, tok.id)
			res.Spans = append(res.Spans, TokenSpan{Start: orig.start, End: orig.end})
		}
	}
	return nil
}

// ModelType returns the model type: "BPE", "WordPiece" or "Unigram".
func (t *Tokenizer) ModelType() string {
	return t.modelType
}

// VocabSize returns the number of distinct tokens, added tokens included.
func (t *Tokenizer) VocabSize() int {
	size := t.model.vocabSize()
	for content := range t.addedByContent {
		if _, ok := t.model.tokenToID(content); !ok {
			size++
		}
	}
	return size
}

// TokenToID returns the ID of a token string.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	if id, ok := t.addedByContent[token]; ok {
		return id, true
	}
	return t.model.tokenToID(token)
}

// IDToToken returns the token string of an ID.
func (t *Tokenizer) IDToToken(id int) (string, bool) {
	if tok, ok := t.addedByID[id]; ok {
		return tok, true
	}
	return t.model.idToToken(id)
}
