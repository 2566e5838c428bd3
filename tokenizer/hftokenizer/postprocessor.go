package hftokenizer

import (
	"github.com/pkg/errors"
)

// postProcessor adds special tokens around an encoded sequence. Added tokens
// do not come from the input, so they get the empty span (0, 0).
type postProcessor func(enc EncodingResult) EncodingResult

func buildPostProcessor(cfg *PostProcessor) (postProcessor, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.Type {
	case "ByteLevel":
		// Only trims offsets, which would break tiling of the input.
		return nil, nil

	case "Sequence":
		var steps []postProcessor
		for i := range cfg.Processors {
			step, err := buildPostProcessor(&cfg.Processors[i])
			if err != nil {
				return nil, errors.Wrapf(err, "post_processor sequence item %d", i)
			}
			if step != nil {
				steps = append(steps, step)
			}
		}
		if len(steps) == 0 {
			return nil, nil
		}
		return func(enc EncodingResult) EncodingResult {
			for _, step := range steps {
				enc = step(enc)
			}
			return enc
		}, nil

	case "TemplateProcessing":
		var before, after []int
		seen := false
		for i, piece := range cfg.Single {
			switch {
			case piece.Sequence != nil:
				if seen {
					return nil, errors.New("template has more than one sequence placeholder")
				}
				seen = true
			case piece.SpecialToken != nil:
				special, ok := cfg.SpecialTokens[piece.SpecialToken.ID]
				if !ok {
					return nil, errors.Errorf("template references unknown special token %q", piece.SpecialToken.ID)
				}
				if seen {
					after = append(after, special.IDs...)
				} else {
					before = append(before, special.IDs...)
				}
			default:
				return nil, errors.Errorf("template piece %d is empty", i)
			}
		}
		if !seen {
			return nil, errors.New("template has no sequence placeholder")
		}
		return wrapWith(before, after), nil

	case "BertProcessing", "RobertaProcessing":
		if cfg.Cls == nil || cfg.Sep == nil {
			return nil, errors.Errorf("%s needs cls and sep", cfg.Type)
		}
		return wrapWith([]int{cfg.Cls.ID}, []int{cfg.Sep.ID}), nil
	}
	return nil, errors.Errorf("unsupported post_processor type %q", cfg.Type)
}

func wrapWith(before, after []int) postProcessor {
	return func(enc EncodingResult) EncodingResult {
		out := EncodingResult{
			IDs:   make([]int, 0, len(before)+len(enc.IDs)+len(after)),
			Spans: make([]TokenSpan, 0, len(before)+len(enc.IDs)+len(after)),
		}
		for _, id := range before {
			out.IDs = append(out.IDs, id)
			out.Spans = append(out.Spans, TokenSpan{})
		}
		out.IDs = append(out.IDs, enc.IDs...)
		out.Spans = append(out.Spans, enc.Spans...)
		for _, id := range after {
			out.IDs = append(out.IDs, id)
			out.Spans = append(out.Spans, TokenSpan{})
		}
		return out
	}
}
