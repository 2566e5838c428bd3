package hftokenizer

import (
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

// preTokenizer splits a normalized string into the words fed to the model.
type preTokenizer func(n normalizedString) ([]normalizedString, error)

type splitBehavior int

const (
	behaviorRemoved splitBehavior = iota
	behaviorIsolated
	behaviorMergedWithPrevious
	behaviorMergedWithNext
	behaviorContiguous
)

func parseBehavior(s string, def splitBehavior) (splitBehavior, error) {
	switch s {
	case "":
		return def, nil
	case "Removed":
		return behaviorRemoved, nil
	case "Isolated":
		return behaviorIsolated, nil
	case "MergedWithPrevious":
		return behaviorMergedWithPrevious, nil
	case "MergedWithNext":
		return behaviorMergedWithNext, nil
	case "Contiguous":
		return behaviorContiguous, nil
	}
	return 0, errors.Errorf("unknown split behavior %q", s)
}

var (
	whitespaceRegexp      = regexp2.MustCompile(`\w+|[^\w\s]+`, regexp2.None)
	whitespaceSplitRegexp = regexp2.MustCompile(`\s+`, regexp2.None)
	punctuationRegexp     = regexp2.MustCompile(`[\p{P}!-/:-@\[-`+"`"+`{-~]`, regexp2.None)
	digitRegexp           = regexp2.MustCompile(`\p{N}`, regexp2.None)
	digitsRegexp          = regexp2.MustCompile(`\p{N}+`, regexp2.None)
)

// buildPreTokenizer compiles a pre-tokenizer configuration. A nil config
// yields a nil pre-tokenizer, meaning the whole string is one word.
func buildPreTokenizer(cfg *PreTokenizer) (preTokenizer, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.Type {
	case "Sequence":
		steps := make([]preTokenizer, 0, len(cfg.PreTokenizers))
		for i := range cfg.PreTokenizers {
			step, err := buildPreTokenizer(&cfg.PreTokenizers[i])
			if err != nil {
				return nil, errors.Wrapf(err, "pre_tokenizer sequence item %d", i)
			}
			if step != nil {
				steps = append(steps, step)
			}
		}
		return func(n normalizedString) ([]normalizedString, error) {
			pieces := []normalizedString{n}
			for _, step := range steps {
				next := make([]normalizedString, 0, len(pieces))
				for _, piece := range pieces {
					out, err := step(piece)
					if err != nil {
						return nil, err
					}
					next = append(next, out...)
				}
				pieces = next
			}
			return pieces, nil
		}, nil

	case "Split":
		re, err := compilePattern(cfg.Pattern)
		if err != nil {
			return nil, errors.Wrap(err, "split pre_tokenizer")
		}
		behavior, err := parseBehavior(cfg.Behavior, behaviorIsolated)
		if err != nil {
			return nil, err
		}
		return regexSplitter(re, behavior, cfg.Invert), nil

	case "ByteLevel":
		useRegex := cfg.UseRegex == nil || *cfg.UseRegex
		addPrefixSpace := cfg.AddPrefixSpace
		return func(n normalizedString) ([]normalizedString, error) {
			if addPrefixSpace && !strings.HasPrefix(n.text, " ") {
				n = n.prepend(" ")
			}
			pieces := []normalizedString{n}
			if useRegex {
				matches, err := findAll(gpt2Regexp, n.text)
				if err != nil {
					return nil, err
				}
				pieces = splitOnMatches(n, matches, behaviorIsolated, false)
			}
			for i := range pieces {
				pieces[i] = pieces[i].toByteLevel()
			}
			return pieces, nil
		}, nil

	case "Whitespace":
		return regexSplitter(whitespaceRegexp, behaviorRemoved, true), nil

	case "WhitespaceSplit":
		return regexSplitter(whitespaceSplitRegexp, behaviorRemoved, false), nil

	case "Punctuation":
		behavior, err := parseBehavior(cfg.Behavior, behaviorIsolated)
		if err != nil {
			return nil, err
		}
		return regexSplitter(punctuationRegexp, behavior, false), nil

	case "Digits":
		if cfg.IndividualDigits {
			return regexSplitter(digitRegexp, behaviorIsolated, false), nil
		}
		return regexSplitter(digitsRegexp, behaviorIsolated, false), nil

	case "BertPreTokenizer":
		ws := regexSplitter(whitespaceSplitRegexp, behaviorRemoved, false)
		punct := regexSplitter(punctuationRegexp, behaviorIsolated, false)
		return func(n normalizedString) ([]normalizedString, error) {
			words, err := ws(n)
			if err != nil {
				return nil, err
			}
			var out []normalizedString
			for _, w := range words {
				parts, err := punct(w)
				if err != nil {
					return nil, err
				}
				out = append(out, parts...)
			}
			return out, nil
		}, nil

	case "CharDelimiterSplit":
		if cfg.Delimiter == "" {
			return nil, errors.New("char delimiter split needs a delimiter")
		}
		re := regexp2.MustCompile(regexp2.Escape(cfg.Delimiter), regexp2.None)
		return regexSplitter(re, behaviorRemoved, false), nil

	case "Metaspace":
		return buildMetaspace(cfg), nil
	}
	return nil, errors.Errorf("unsupported pre_tokenizer type %q", cfg.Type)
}

func regexSplitter(re *regexp2.Regexp, behavior splitBehavior, invert bool) preTokenizer {
	return func(n normalizedString) ([]normalizedString, error) {
		matches, err := findAll(re, n.text)
		if err != nil {
			return nil, err
		}
		return splitOnMatches(n, matches, behavior, invert), nil
	}
}

// buildMetaspace replaces spaces with the replacement character (▁ by
// default), optionally prefixes it, and splits so that every word starts
// with it. The "first" prepend scheme is treated as "always" since the
// pre-tokenizer only ever sees one piece here.
func buildMetaspace(cfg *PreTokenizer) preTokenizer {
	replacement := cfg.Replacement
	if replacement == "" {
		replacement = "▁"
	}
	prepend := cfg.PrependScheme == "always" || cfg.PrependScheme == "first" ||
		(cfg.PrependScheme == "" && cfg.AddPrefixSpace)
	split := cfg.Split == nil || *cfg.Split
	re := regexp2.MustCompile(regexp2.Escape(replacement), regexp2.None)
	return func(n normalizedString) ([]normalizedString, error) {
		n = n.replaceString(" ", replacement)
		if prepend && !strings.HasPrefix(n.text, replacement) {
			n = n.prepend(replacement)
		}
		if !split {
			return []normalizedString{n}, nil
		}
		matches, err := findAll(re, n.text)
		if err != nil {
			return nil, err
		}
		return splitOnMatches(n, matches, behaviorMergedWithNext, false), nil
	}
}

// splitOnMatches cuts n at the given match ranges and regroups the pieces
// according to behavior. With invert the matches are the content and the
// gaps between them are the delimiters.
func splitOnMatches(n normalizedString, matches [][2]int, behavior splitBehavior, invert bool) []normalizedString {
	type segment struct {
		start, end int
		delim      bool
	}
	segs := make([]segment, 0, 2*len(matches)+1)
	prev := 0
	for _, m := range matches {
		if m[0] > prev {
			segs = append(segs, segment{prev, m[0], invert})
		}
		segs = append(segs, segment{m[0], m[1], !invert})
		prev = m[1]
	}
	if prev < len(n.text) {
		segs = append(segs, segment{prev, len(n.text), invert})
	}

	var ranges [][2]int
	switch behavior {
	case behaviorRemoved:
		for _, s := range segs {
			if !s.delim {
				ranges = append(ranges, [2]int{s.start, s.end})
			}
		}

	case behaviorIsolated:
		for _, s := range segs {
			ranges = append(ranges, [2]int{s.start, s.end})
		}

	case behaviorMergedWithPrevious:
		previousDelim := false
		for _, s := range segs {
			if s.delim && !previousDelim && len(ranges) > 0 {
				ranges[len(ranges)-1][1] = s.end
			} else {
				ranges = append(ranges, [2]int{s.start, s.end})
			}
			previousDelim = s.delim
		}

	case behaviorMergedWithNext:
		// Walk backwards so a delimiter can attach to what follows it.
		previousDelim := false
		for i := len(segs) - 1; i >= 0; i-- {
			s := segs[i]
			if s.delim && !previousDelim && len(ranges) > 0 {
				ranges[len(ranges)-1][0] = s.start
			} else {
				ranges = append(ranges, [2]int{s.start, s.end})
			}
			previousDelim = s.delim
		}
		for i, j := 0, len(ranges)-1; i < j; i, j = i+1, j-1 {
			ranges[i], ranges[j] = ranges[j], ranges[i]
		}

	case behaviorContiguous:
		previousDelim := false
		for i, s := range segs {
			if i > 0 && s.delim == previousDelim {
				ranges[len(ranges)-1][1] = s.end
			} else {
				ranges = append(ranges, [2]int{s.start, s.end})
			}
			previousDelim = s.delim
		}
	}

	out := make([]normalizedString, 0, len(ranges))
	for _, r := range ranges {
		if r[1] > r[0] {
			out = append(out, n.slice(r[0], r[1]))
		}
	}
	return out
}
