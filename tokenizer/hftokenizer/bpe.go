package hftokenizer

import (
	"container/heap"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// modelToken is one token produced by a model, with its byte range inside
// the word it was cut from.
type modelToken struct {
	id         int
	start, end int
}

// model turns a single pre-tokenized word into tokens.
type model interface {
	tokenize(word string) ([]modelToken, error)
	tokenToID(token string) (int, bool)
	idToToken(id int) (string, bool)
	vocabSize() int
}

// vocabulary is the shared token <-> id table of BPE and WordPiece.
type vocabulary struct {
	ids    map[string]int
	tokens map[int]string
}

func newVocabulary(ids map[string]int) vocabulary {
	tokens := make(map[int]string, len(ids))
	for tok, id := range ids {
		tokens[id] = tok
	}
	return vocabulary{ids: ids, tokens: tokens}
}

func (v vocabulary) tokenToID(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

func (v vocabulary) idToToken(id int) (string, bool) {
	tok, ok := v.tokens[id]
	return tok, ok
}

func (v vocabulary) vocabSize() int { return len(v.ids) }

type bpeMerge struct {
	rank int
	id   int
}

// bpeModel is a byte pair encoding model.
type bpeModel struct {
	vocabulary
	merges       map[[2]int]bpeMerge
	unkID        int
	prefix       string
	suffix       string
	fuseUnk      bool
	byteFallback bool
	ignoreMerges bool
}

func newBPEModel(cfg *Model) (*bpeModel, error) {
	ids, err := cfg.vocabMap()
	if err != nil {
		return nil, err
	}
	pairs, err := cfg.mergePairs()
	if err != nil {
		return nil, err
	}
	m := &bpeModel{
		vocabulary:   newVocabulary(ids),
		merges:       make(map[[2]int]bpeMerge, len(pairs)),
		unkID:        -1,
		prefix:       cfg.ContinuingSubwordPrefix,
		suffix:       cfg.EndOfWordSuffix,
		fuseUnk:      cfg.FuseUnk,
		byteFallback: cfg.ByteFallback,
		ignoreMerges: cfg.IgnoreMerges,
	}
	if cfg.UnkToken != "" {
		id, ok := ids[cfg.UnkToken]
		if !ok {
			return nil, errors.Errorf("unk_token %q is not in the vocabulary", cfg.UnkToken)
		}
		m.unkID = id
	}
	for rank, pair := range pairs {
		a, okA := ids[pair[0]]
		b, okB := ids[pair[1]]
		if !okA || !okB {
			return nil, errors.Errorf("merge %d (%q, %q) uses a token missing from the vocabulary", rank, pair[0], pair[1])
		}
		merged := pair[0] + strings.TrimPrefix(pair[1], m.prefix)
		id, ok := ids[merged]
		if !ok {
			return nil, errors.Errorf("merge %d result %q is not in the vocabulary", rank, merged)
		}
		key := [2]int{a, b}
		if _, dup := m.merges[key]; !dup {
			m.merges[key] = bpeMerge{rank: rank, id: id}
		}
	}
	return m, nil
}

func (m *bpeModel) tokenize(word string) ([]modelToken, error) {
	if word == "" {
		return nil, nil
	}
	if m.ignoreMerges {
		if id, ok := m.ids[word]; ok {
			return []modelToken{{id: id, start: 0, end: len(word)}}, nil
		}
	}
	symbols := m.initialSymbols(word)
	return m.merge(symbols), nil
}

// initialSymbols splits word into one symbol per character, falling back to
// byte tokens or the unknown token for characters outside the vocabulary.
// Characters with no representation at all are dropped.
func (m *bpeModel) initialSymbols(word string) []modelToken {
	symbols := make([]modelToken, 0, utf8.RuneCountInString(word))
	lastUnk := false
	for i := 0; i < len(word); {
		_, size := utf8.DecodeRuneInString(word[i:])
		piece := word[i : i+size]
		if i > 0 {
			piece = m.prefix + piece
		}
		if i+size == len(word) {
			piece += m.suffix
		}
		if id, ok := m.ids[piece]; ok {
			symbols = append(symbols, modelToken{id: id, start: i, end: i + size})
			lastUnk = false
		} else if bytes, ok := m.byteTokens(word[i : i+size]); ok {
			for j, id := range bytes {
				symbols = append(symbols, modelToken{id: id, start: i + j, end: i + j + 1})
			}
			lastUnk = false
		} else if m.unkID >= 0 {
			if m.fuseUnk && lastUnk {
				symbols[len(symbols)-1].end = i + size
			} else {
				symbols = append(symbols, modelToken{id: m.unkID, start: i, end: i + size})
			}
			lastUnk = true
		}
		i += size
	}
	return symbols
}

// byteTokens maps every byte of s to its <0xXX> token when byte fallback is
// enabled and all of them exist.
func (m *bpeModel) byteTokens(s string) ([]int, bool) {
	if !m.byteFallback {
		return nil, false
	}
	return lookupByteTokens(m.ids, s)
}

func lookupByteTokens(ids map[string]int, s string) ([]int, bool) {
	out := make([]int, 0, len(s))
	for i := 0; i < len(s); i++ {
		id, ok := ids[fmt.Sprintf("<0x%02X>", s[i])]
		if !ok {
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}

// merge applies merges lowest rank first, leftmost first among equal
// ranks, over a linked list of symbols.
func (m *bpeModel) merge(tokens []modelToken) []modelToken {
	if len(tokens) < 2 {
		return tokens
	}
	symbols := make([]bpeSymbol, len(tokens))
	for i, t := range tokens {
		symbols[i] = bpeSymbol{modelToken: t, prev: i - 1, next: i + 1}
	}
	symbols[len(symbols)-1].next = -1

	queue := &mergeQueue{}
	push := func(left int) {
		if left < 0 {
			return
		}
		right := symbols[left].next
		if right < 0 {
			return
		}
		if mg, ok := m.merges[[2]int{symbols[left].id, symbols[right].id}]; ok {
			heap.Push(queue, mergeCandidate{rank: mg.rank, left: left, leftID: symbols[left].id, rightID: symbols[right].id, id: mg.id})
		}
	}
	for i := range symbols {
		push(i)
	}

	for queue.Len() > 0 {
		c := heap.Pop(queue).(mergeCandidate)
		left := &symbols[c.left]
		if left.dead || left.id != c.leftID || left.next < 0 {
			continue
		}
		right := &symbols[left.next]
		if right.id != c.rightID {
			continue
		}
		left.id = c.id
		left.end = right.end
		left.next = right.next
		right.dead = true
		if left.next >= 0 {
			symbols[left.next].prev = c.left
		}
		push(left.prev)
		push(c.left)
	}

	out := tokens[:0]
	for i := 0; i >= 0; i = symbols[i].next {
		out = append(out, symbols[i].modelToken)
	}
	return out
}

type bpeSymbol struct {
	modelToken
	prev, next int
	dead       bool
}

type mergeCandidate struct {
	rank, left      int
	leftID, rightID int
	id              int
}

// mergeQueue is a min-heap of merge candidates ordered by rank, then position.
type mergeQueue []mergeCandidate

func (q mergeQueue) Len() int { return len(q) }
func (q mergeQueue) Less(i, j int) bool {
	if q[i].rank != q[j].rank {
		return q[i].rank < q[j].rank
	}
	return q[i].left < q[j].left
}
func (q mergeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *mergeQueue) Push(x any)   { *q = append(*q, x.(mergeCandidate)) }
func (q *mergeQueue) Pop() any {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}
