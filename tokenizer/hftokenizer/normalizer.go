package hftokenizer

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

var errMissingPattern = errors.New("pattern must set either Regex or String")

// normalizer transforms text before pre-tokenization while keeping the byte
// alignment with the input.
type normalizer func(n normalizedString) (normalizedString, error)

// buildNormalizer compiles a normalizer configuration. A nil config yields a
// nil normalizer.
func buildNormalizer(cfg *Normalizer) (normalizer, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.Type {
	case "Sequence":
		steps := make([]normalizer, 0, len(cfg.Normalizers))
		for i := range cfg.Normalizers {
			step, err := buildNormalizer(&cfg.Normalizers[i])
			if err != nil {
				return nil, errors.Wrapf(err, "normalizer sequence item %d", i)
			}
			if step != nil {
				steps = append(steps, step)
			}
		}
		if len(steps) == 0 {
			return nil, nil
		}
		return func(n normalizedString) (normalizedString, error) {
			var err error
			for _, step := range steps {
				if n, err = step(n); err != nil {
					return n, err
				}
			}
			return n, nil
		}, nil

	case "NFC":
		return formNormalizer(norm.NFC), nil
	case "NFD":
		return formNormalizer(norm.NFD), nil
	case "NFKC":
		return formNormalizer(norm.NFKC), nil
	case "NFKD":
		return formNormalizer(norm.NFKD), nil

	case "Lowercase":
		return func(n normalizedString) (normalizedString, error) {
			return n.mapRunes(lowerRune), nil
		}, nil

	case "Strip":
		left, right := cfg.Left, cfg.Right
		return func(n normalizedString) (normalizedString, error) {
			return n.strip(left, right), nil
		}, nil

	case "StripAccents":
		return func(n normalizedString) (normalizedString, error) {
			return n.mapRunes(dropMarks), nil
		}, nil

	case "Prepend":
		prefix := cfg.Prepend
		return func(n normalizedString) (normalizedString, error) {
			return n.prepend(prefix), nil
		}, nil

	case "Replace":
		return buildReplace(cfg)

	case "BertNormalizer":
		return buildBertNormalizer(cfg), nil
	}
	return nil, errors.Errorf("unsupported normalizer type %q", cfg.Type)
}

func formNormalizer(form norm.Form) normalizer {
	return func(n normalizedString) (normalizedString, error) {
		return n.normalizeForm(form), nil
	}
}

func buildReplace(cfg *Normalizer) (normalizer, error) {
	if cfg.Pattern == nil {
		return nil, errMissingPattern
	}
	content := cfg.Content
	if cfg.Pattern.String != nil {
		old := *cfg.Pattern.String
		return func(n normalizedString) (normalizedString, error) {
			return n.replaceString(old, content), nil
		}, nil
	}
	re, err := compilePattern(cfg.Pattern)
	if err != nil {
		return nil, errors.Wrap(err, "replace normalizer")
	}
	return func(n normalizedString) (normalizedString, error) {
		matches, err := findAll(re, n.text)
		if err != nil {
			return n, err
		}
		return n.replaceRanges(matches, content), nil
	}, nil
}

// buildBertNormalizer mirrors BERT's basic text cleanup. Accents are stripped
// whenever lowercasing is on, unless strip_accents says otherwise.
func buildBertNormalizer(cfg *Normalizer) normalizer {
	stripAccents := cfg.Lowercase
	if cfg.StripAccents != nil {
		stripAccents = *cfg.StripAccents
	}
	cleanText, chinese, lowercase := cfg.CleanText, cfg.HandleChineseChars, cfg.Lowercase
	return func(n normalizedString) (normalizedString, error) {
		if cleanText {
			n = n.mapRunes(func(r rune) string {
				switch {
				case r == 0 || r == 0xfffd || isControl(r):
					return ""
				case isWhitespace(r):
					return " "
				}
				return string(r)
			})
		}
		if chinese {
			n = n.mapRunes(func(r rune) string {
				if isChineseChar(r) {
					return " " + string(r) + " "
				}
				return string(r)
			})
		}
		if stripAccents {
			n = n.normalizeForm(norm.NFD).mapRunes(dropMarks)
		}
		if lowercase {
			n = n.mapRunes(lowerRune)
		}
		return n, nil
	}
}

func lowerRune(r rune) string {
	return strings.ToLower(string(r))
}

func dropMarks(r rune) string {
	if unicode.Is(unicode.Mn, r) {
		return ""
	}
	return string(r)
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.In(r, unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs)
}

func isChineseChar(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
