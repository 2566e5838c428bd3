package hftokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitOnMatches_Behaviors(t *testing.T) {
	text := "the-final--countdown"
	n := newNormalizedString(text, 0)
	matches := [][2]int{{3, 4}, {9, 10}, {10, 11}}

	tests := []struct {
		behavior splitBehavior
		want     []string
	}{
		{behaviorRemoved, []string{"the", "final", "countdown"}},
		{behaviorIsolated, []string{"the", "-", "final", "-", "-", "countdown"}},
		{behaviorMergedWithPrevious, []string{"the-", "final-", "-", "countdown"}},
		{behaviorMergedWithNext, []string{"the", "-final", "-", "-countdown"}},
		{behaviorContiguous, []string{"the", "-", "final", "--", "countdown"}},
	}
	for _, tt := range tests {
		got := texts(splitOnMatches(n, matches, tt.behavior, false))
		assert.Equal(t, tt.want, got, "behavior %d", tt.behavior)
	}
}

func TestPreTokenizer_Whitespace(t *testing.T) {
	pre, err := buildPreTokenizer(&PreTokenizer{Type: "Whitespace"})
	require.NoError(t, err)

	pieces, err := pre(newNormalizedString("Hey friend!  How are you?!?", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hey", "friend", "!", "How", "are", "you", "?!?"}, texts(pieces))
}

func TestPreTokenizer_SplitKeepsOffsets(t *testing.T) {
	pre, err := buildPreTokenizer(&PreTokenizer{
		Type:     "Split",
		Pattern:  &Pattern{Regex: strPtr(`\p{N}{1,3}`)},
		Behavior: "Isolated",
	})
	require.NoError(t, err)

	// Offsets of the second segment start at 10, as if it followed other text.
	pieces, err := pre(newNormalizedString("数字12345", 10))
	require.NoError(t, err)
	require.Equal(t, []string{"数字", "123", "45"}, texts(pieces))

	assert.Equal(t, span{10, 16}, pieces[0].originalRange(0, len(pieces[0].text)))
	assert.Equal(t, span{16, 19}, pieces[1].originalRange(0, 3))
	assert.Equal(t, span{19, 21}, pieces[2].originalRange(0, 2))
}

func TestPreTokenizer_Lookahead(t *testing.T) {
	pre, err := buildPreTokenizer(&PreTokenizer{
		Type:    "Split",
		Pattern: &Pattern{Regex: strPtr(`\s+(?!\S)|\s+|\S+`)},
	})
	require.NoError(t, err)

	pieces, err := pre(newNormalizedString("a   b", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "  ", " ", "b"}, texts(pieces))
}

func TestPreTokenizer_Digits(t *testing.T) {
	individual, err := buildPreTokenizer(&PreTokenizer{Type: "Digits", IndividualDigits: true})
	require.NoError(t, err)
	grouped, err := buildPreTokenizer(&PreTokenizer{Type: "Digits"})
	require.NoError(t, err)

	pieces, err := individual(newNormalizedString("a12b", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "2", "b"}, texts(pieces))

	pieces, err = grouped(newNormalizedString("a12b", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "12", "b"}, texts(pieces))
}

func TestPreTokenizer_Metaspace(t *testing.T) {
	pre, err := buildPreTokenizer(&PreTokenizer{Type: "Metaspace", Replacement: "▁", AddPrefixSpace: true})
	require.NoError(t, err)

	pieces, err := pre(newNormalizedString("Hey friend", 0))
	require.NoError(t, err)
	require.Equal(t, []string{"▁Hey", "▁friend"}, texts(pieces))

	// The prefix is inserted, the second marker stands for the real space.
	assert.Equal(t, span{0, 3}, pieces[0].originalRange(0, len(pieces[0].text)))
	assert.Equal(t, span{3, 10}, pieces[1].originalRange(0, len(pieces[1].text)))
}

func TestPreTokenizer_Punctuation(t *testing.T) {
	pre, err := buildPreTokenizer(&PreTokenizer{Type: "Punctuation"})
	require.NoError(t, err)

	pieces, err := pre(newNormalizedString("Hey, you!", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hey", ",", " you", "!"}, texts(pieces))
}

func TestPreTokenizer_Invert(t *testing.T) {
	pre, err := buildPreTokenizer(&PreTokenizer{
		Type:     "Split",
		Pattern:  &Pattern{Regex: strPtr(` +`)},
		Behavior: "Removed",
		Invert:   true,
	})
	require.NoError(t, err)

	pieces, err := pre(newNormalizedString("a b  c", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{" ", "  "}, texts(pieces))
}

func TestPreTokenizer_Unsupported(t *testing.T) {
	_, err := buildPreTokenizer(&PreTokenizer{Type: "UnicodeScripts"})
	assert.Error(t, err)

	_, err = buildPreTokenizer(&PreTokenizer{Type: "Split", Pattern: &Pattern{Regex: strPtr("a")}, Behavior: "Sideways"})
	assert.Error(t, err)
}

func TestFindAll_RuneToByteOffsets(t *testing.T) {
	re, err := compilePattern(&Pattern{Regex: strPtr(`[一-龥]+`)})
	require.NoError(t, err)

	got, err := findAll(re, "ab你好cd世界")
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 8}, {10, 16}}, got)
}
