package hftokenizer

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// wordPieceModel implements greedy longest-match-first subword splitting.
type wordPieceModel struct {
	vocabulary
	unkID    int
	prefix   string
	maxChars int
}

func newWordPieceModel(cfg *Model) (*wordPieceModel, error) {
	ids, err := cfg.vocabMap()
	if err != nil {
		return nil, err
	}
	m := &wordPieceModel{
		vocabulary: newVocabulary(ids),
		unkID:      -1,
		prefix:     cfg.ContinuingSubwordPrefix,
		maxChars:   cfg.MaxInputCharsPerWord,
	}
	if m.prefix == "" && cfg.Type == "WordPiece" {
		m.prefix = "##"
	}
	if m.maxChars <= 0 {
		m.maxChars = 100
	}
	unk := cfg.UnkToken
	if unk == "" {
		unk = "[UNK]"
	}
	if id, ok := ids[unk]; ok {
		m.unkID = id
	}
	return m, nil
}

func (m *wordPieceModel) unknown(word string) ([]modelToken, error) {
	if m.unkID < 0 {
		return nil, errors.Errorf("word %q cannot be tokenized and the vocabulary has no unknown token", word)
	}
	return []modelToken{{id: m.unkID, start: 0, end: len(word)}}, nil
}

func (m *wordPieceModel) tokenize(word string) ([]modelToken, error) {
	if word == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(word) > m.maxChars {
		return m.unknown(word)
	}
	var out []modelToken
	for start := 0; start < len(word); {
		end := len(word)
		found := false
		for end > start {
			sub := word[start:end]
			if start > 0 {
				sub = m.prefix + sub
			}
			if id, ok := m.ids[sub]; ok {
				out = append(out, modelToken{id: id, start: start, end: end})
				found = true
				break
			}
			_, size := utf8.DecodeLastRuneInString(word[start:end])
			end -= size
		}
		if !found {
			return m.unknown(word)
		}
		start = end
	}
	return out, nil
}
