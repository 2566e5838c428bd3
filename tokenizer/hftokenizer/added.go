package hftokenizer

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// addedVocabulary finds added tokens in raw input so they are emitted whole
// and never reach the model.
type addedVocabulary struct {
	byFirstByte map[byte][]AddedToken
}

func newAddedVocabulary(tokens []AddedToken) *addedVocabulary {
	v := &addedVocabulary{byFirstByte: make(map[byte][]AddedToken)}
	for _, t := range tokens {
		if t.Content == "" {
			continue
		}
		v.byFirstByte[t.Content[0]] = append(v.byFirstByte[t.Content[0]], t)
	}
	for _, list := range v.byFirstByte {
		// Longest first, so "<|endoftext|>" wins over "<|".
		sort.SliceStable(list, func(i, j int) bool {
			return len(list[i].Content) > len(list[j].Content)
		})
	}
	return v
}

// textSegment is a byte range of the input that is either an added token or
// plain text to be normalized and tokenized.
type textSegment struct {
	start, end int
	added      bool
	id         int
}

// split cuts text into plain and added-token segments, left to right.
func (v *addedVocabulary) split(text string) []textSegment {
	if len(v.byFirstByte) == 0 {
		return []textSegment{{start: 0, end: len(text)}}
	}
	var out []textSegment
	plainStart := 0
	for i := 0; i < len(text); {
		tok, ok := v.matchAt(text, i)
		if !ok {
			i++
			continue
		}
		start, end := i, i+len(tok.Content)
		if tok.Lstrip {
			for start > plainStart {
				r, size := utf8.DecodeLastRuneInString(text[plainStart:start])
				if !unicode.IsSpace(r) {
					break
				}
				start -= size
			}
		}
		if tok.Rstrip {
			for end < len(text) {
				r, size := utf8.DecodeRuneInString(text[end:])
				if !unicode.IsSpace(r) {
					break
				}
				end += size
			}
		}
		if start > plainStart {
			out = append(out, textSegment{start: plainStart, end: start})
		}
		out = append(out, textSegment{start: start, end: end, added: true, id: tok.ID})
		plainStart, i = end, end
	}
	if plainStart < len(text) {
		out = append(out, textSegment{start: plainStart, end: len(text)})
	}
	return out
}

func (v *addedVocabulary) matchAt(text string, i int) (AddedToken, bool) {
	for _, tok := range v.byFirstByte[text[i]] {
		if len(text)-i < len(tok.Content) || text[i:i+len(tok.Content)] != tok.Content {
			continue
		}
		if tok.SingleWord && !isWordBoundary(text, i, i+len(tok.Content)) {
			continue
		}
		return tok, true
	}
	return AddedToken{}, false
}

// isWordBoundary reports whether [start, end) is not glued to word
// characters on either side.
func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
