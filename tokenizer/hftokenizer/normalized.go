package hftokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"
)

// span is a half-open byte range [start, end) of the original input.
type span struct {
	start, end int
}

// normalizedString is a (possibly transformed) piece of the input together
// with, for every byte of text, the range of original input bytes it came
// from. Bytes inserted by a normalizer carry an empty range positioned at the
// insertion point, so they never claim input they did not consume.
type normalizedString struct {
	text  string
	align []span
}

// newNormalizedString wraps s, which starts at byte offset of the input.
func newNormalizedString(s string, offset int) normalizedString {
	align := make([]span, len(s))
	for i := range align {
		align[i] = span{offset + i, offset + i + 1}
	}
	return normalizedString{text: s, align: align}
}

func (n normalizedString) slice(start, end int) normalizedString {
	return normalizedString{text: n.text[start:end], align: n.align[start:end]}
}

// originalRange maps bytes [start, end) of the normalized text back to the
// original input. The result is the smallest range covering every consumed
// byte; a range made only of inserted bytes collapses to its insertion point.
func (n normalizedString) originalRange(start, end int) span {
	out := span{-1, -1}
	for _, a := range n.align[start:end] {
		if a.start == a.end {
			continue
		}
		if out.start < 0 || a.start < out.start {
			out.start = a.start
		}
		if a.end > out.end {
			out.end = a.end
		}
	}
	if out.start >= 0 {
		return out
	}
	if start < len(n.align) {
		p := n.align[start].start
		return span{p, p}
	}
	if len(n.align) > 0 {
		p := n.align[len(n.align)-1].end
		return span{p, p}
	}
	return span{0, 0}
}

// alignedBuilder accumulates a new normalizedString.
type alignedBuilder struct {
	text  []byte
	align []span
}

func (b *alignedBuilder) write(s string, a span) {
	b.text = append(b.text, s...)
	for range len(s) {
		b.align = append(b.align, a)
	}
}

func (b *alignedBuilder) copyFrom(n normalizedString, start, end int) {
	b.text = append(b.text, n.text[start:end]...)
	b.align = append(b.align, n.align[start:end]...)
}

func (b *alignedBuilder) build() normalizedString {
	return normalizedString{text: string(b.text), align: b.align}
}

// mapRunes rewrites every rune with f. Runes that f leaves unchanged keep
// their byte exact alignment; ill-formed bytes are passed through untouched.
func (n normalizedString) mapRunes(f func(r rune) string) normalizedString {
	var b alignedBuilder
	for i := 0; i < len(n.text); {
		r, size := utf8.DecodeRuneInString(n.text[i:])
		orig := n.text[i : i+size]
		if r == utf8.RuneError && size == 1 {
			b.copyFrom(n, i, i+size)
			i += size
			continue
		}
		if out := f(r); out == orig {
			b.copyFrom(n, i, i+size)
		} else {
			b.write(out, n.originalRange(i, i+size))
		}
		i += size
	}
	return b.build()
}

// normalizeForm applies a Unicode normalization form segment by segment.
func (n normalizedString) normalizeForm(form norm.Form) normalizedString {
	if form.IsNormalString(n.text) {
		return n
	}
	var b alignedBuilder
	var it norm.Iter
	it.InitString(form, n.text)
	for !it.Done() {
		start := it.Pos()
		// An expansion such as ﬁ -> fi may arrive in several segments;
		// only the last one advances Pos.
		seg := append([]byte(nil), it.Next()...)
		for !it.Done() && it.Pos() == start {
			seg = append(seg, it.Next()...)
		}
		b.writeRemapped(n, start, it.Pos(), string(seg))
	}
	return b.build()
}

// writeRemapped writes out as the replacement of n's bytes [start, end).
// The prefix and suffix shared with the original keep exact alignment, the
// changed middle maps to the range it replaced.
func (b *alignedBuilder) writeRemapped(n normalizedString, start, end int, out string) {
	orig := n.text[start:end]
	if out == orig {
		b.copyFrom(n, start, end)
		return
	}
	p := 0
	for p < len(out) && p < len(orig) && out[p] == orig[p] {
		p++
	}
	for p > 0 && p < len(orig) && !utf8.RuneStart(orig[p]) {
		p--
	}
	s := 0
	for s < len(out)-p && s < len(orig)-p && out[len(out)-1-s] == orig[len(orig)-1-s] {
		s++
	}
	for s > 0 && !(utf8.RuneStart(orig[len(orig)-s]) && utf8.RuneStart(out[len(out)-s])) {
		s--
	}
	b.copyFrom(n, start, start+p)
	b.write(out[p:len(out)-s], n.originalRange(start+p, end-s))
	b.copyFrom(n, end-s, end)
}

// replaceRanges substitutes repl for every byte range in matches, which must be
// sorted and non-overlapping.
func (n normalizedString) replaceRanges(matches [][2]int, repl string) normalizedString {
	if len(matches) == 0 {
		return n
	}
	var b alignedBuilder
	prev := 0
	for _, m := range matches {
		b.copyFrom(n, prev, m[0])
		b.write(repl, n.originalRange(m[0], m[1]))
		prev = m[1]
	}
	b.copyFrom(n, prev, len(n.text))
	return b.build()
}

// replaceString substitutes repl for every occurrence of old.
func (n normalizedString) replaceString(old, repl string) normalizedString {
	if old == "" {
		return n
	}
	var matches [][2]int
	for i := 0; i < len(n.text); {
		j := strings.Index(n.text[i:], old)
		if j < 0 {
			break
		}
		matches = append(matches, [2]int{i + j, i + j + len(old)})
		i += j + len(old)
	}
	return n.replaceRanges(matches, repl)
}

// prepend inserts s in front of a non-empty string.
func (n normalizedString) prepend(s string) normalizedString {
	if n.text == "" || s == "" {
		return n
	}
	var b alignedBuilder
	p := n.align[0].start
	b.write(s, span{p, p})
	b.copyFrom(n, 0, len(n.text))
	return b.build()
}

// strip removes leading and/or trailing white space.
func (n normalizedString) strip(left, right bool) normalizedString {
	start, end := 0, len(n.text)
	if left {
		start = len(n.text) - len(strings.TrimLeftFunc(n.text, unicode.IsSpace))
	}
	if right {
		end = len(strings.TrimRightFunc(n.text[start:], unicode.IsSpace)) + start
	}
	return n.slice(start, end)
}

// findAll returns the byte ranges of all non-empty matches of re in s.
//
// regexp2 reports positions in runes, so they are translated back to bytes.
func findAll(re *regexp2.Regexp, s string) ([][2]int, error) {
	if s == "" {
		return nil, nil
	}
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return nil, err
	}
	offsets := runeByteOffsets(s)
	var out [][2]int
	for m != nil {
		start, end := offsets[m.Index], offsets[m.Index+m.Length]
		if end > start {
			out = append(out, [2]int{start, end})
		}
		if m, err = re.FindNextMatch(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// runeByteOffsets returns the byte offset of every rune of s plus len(s).
// Ill-formed bytes count as one rune each, like a []rune conversion.
func runeByteOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}

// compilePattern compiles a tokenizer.json pattern; literal strings are
// escaped.
func compilePattern(p *Pattern) (*regexp2.Regexp, error) {
	switch {
	case p == nil:
		return nil, errMissingPattern
	case p.Regex != nil:
		return regexp2.Compile(*p.Regex, regexp2.None)
	case p.String != nil:
		return regexp2.Compile(regexp2.Escape(*p.String), regexp2.None)
	}
	return nil, errMissingPattern
}
