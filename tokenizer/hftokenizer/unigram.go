package hftokenizer

import (
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// unkPenalty is subtracted from the lowest piece score to price an unknown
// character, so known pieces are always preferred.
const unkPenalty = 10.0

// unigramModel segments words with the Viterbi path of highest total score.
type unigramModel struct {
	ids          map[string]int
	pieces       []unigramPiece
	unkID        int
	byteFallback bool
	minScore     float64
	maxRunes     int
}

func newUnigramModel(cfg *Model) (*unigramModel, error) {
	pieces, err := cfg.vocabList()
	if err != nil {
		return nil, err
	}
	m := &unigramModel{
		ids:          make(map[string]int, len(pieces)),
		pieces:       pieces,
		unkID:        -1,
		byteFallback: cfg.ByteFallback,
		minScore:     math.Inf(1),
	}
	for id, p := range pieces {
		if _, dup := m.ids[p.Piece]; !dup {
			m.ids[p.Piece] = id
		}
		if p.Score < m.minScore {
			m.minScore = p.Score
		}
		if n := utf8.RuneCountInString(p.Piece); n > m.maxRunes {
			m.maxRunes = n
		}
	}
	if cfg.UnkID != nil {
		if *cfg.UnkID < 0 || *cfg.UnkID >= len(pieces) {
			return nil, errors.Errorf("unk_id %d is out of range", *cfg.UnkID)
		}
		m.unkID = *cfg.UnkID
	}
	return m, nil
}

func (m *unigramModel) tokenToID(token string) (int, bool) {
	id, ok := m.ids[token]
	return id, ok
}

func (m *unigramModel) idToToken(id int) (string, bool) {
	if id < 0 || id >= len(m.pieces) {
		return "", false
	}
	return m.pieces[id].Piece, true
}

func (m *unigramModel) vocabSize() int { return len(m.pieces) }

func (m *unigramModel) tokenize(word string) ([]modelToken, error) {
	if word == "" {
		return nil, nil
	}
	pos := runeByteOffsets(word)
	n := len(pos) - 1

	best := make([]float64, n+1)
	from := make([]int, n+1)
	ids := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(-1)
	}
	for i := 0; i < n; i++ {
		if math.IsInf(best[i], -1) {
			continue
		}
		single := false
		for l := 1; l <= m.maxRunes && i+l <= n; l++ {
			id, ok := m.ids[word[pos[i]:pos[i+l]]]
			if !ok {
				continue
			}
			if l == 1 {
				single = true
			}
			if s := best[i] + m.pieces[id].Score; s > best[i+l] {
				best[i+l], from[i+l], ids[i+l] = s, i, id
			}
		}
		if !single {
			if s := best[i] + m.minScore - unkPenalty; s > best[i+1] {
				best[i+1], from[i+1], ids[i+1] = s, i, m.unkID
			}
		}
	}

	var path []modelToken
	for e := n; e > 0; e = from[e] {
		path = append(path, modelToken{id: ids[e], start: pos[from[e]], end: pos[e]})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	// Consecutive unknowns fuse into one token before byte fallback.
	out := make([]modelToken, 0, len(path))
	for _, tok := range path {
		if tok.id == m.unkID && len(out) > 0 && out[len(out)-1].id == m.unkID {
			out[len(out)-1].end = tok.end
			continue
		}
		out = append(out, tok)
	}

	final := make([]modelToken, 0, len(out))
	for _, tok := range out {
		if tok.id != m.unkID {
			final = append(final, tok)
			continue
		}
		if m.byteFallback {
			if bytes, ok := lookupByteTokens(m.ids, word[tok.start:tok.end]); ok {
				for j, id := range bytes {
					final = append(final, modelToken{id: id, start: tok.start + j, end: tok.start + j + 1})
				}
				continue
			}
		}
		if m.unkID < 0 {
			return nil, errors.Errorf("word %q cannot be tokenized and the vocabulary has no unknown token", word)
		}
		final = append(final, tok)
	}
	return final, nil
}
