package hftokenizer

import "github.com/dlclark/regexp2"

// gpt2Pattern is the split used by the ByteLevel pre-tokenizer when use_regex
// is on. It needs a negative lookahead, which the standard regexp lacks.
const gpt2Pattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

var (
	gpt2Regexp = regexp2.MustCompile(gpt2Pattern, regexp2.None)

	// byteToUnicode holds the printable stand-in of every byte, as in GPT-2.
	byteToUnicode [256]string
)

func init() {
	n := 0
	for b := 0; b < 256; b++ {
		if (b >= '!' && b <= '~') || (b >= 0xa1 && b <= 0xac) || (b >= 0xae && b <= 0xff) {
			byteToUnicode[b] = string(rune(b))
		} else {
			byteToUnicode[b] = string(rune(256 + n))
			n++
		}
	}
}

// toByteLevel rewrites every byte as its printable stand-in. Each stand-in
// keeps the alignment of the byte it replaces, so tokens that cut through a
// multi-byte character still map to exact input bytes.
func (n normalizedString) toByteLevel() normalizedString {
	var b alignedBuilder
	for i := 0; i < len(n.text); i++ {
		b.write(byteToUnicode[n.text[i]], n.align[i])
	}
	return b.build()
}

// ByteLevelAlphabet returns the 256 byte stand-ins, indexed by byte value.
func ByteLevelAlphabet() []string {
	out := make([]string, 256)
	copy(out, byteToUnicode[:])
	return out
}
