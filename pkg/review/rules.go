// Package review marks predictions accepted or rejected, or drops them,
// according to configured rules, before the results are sent back for
// human review.
package review

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gardar/lineitems/pkg/extract"
)

var (
	// ErrUnknownRule is returned for a rule function that does not exist
	ErrUnknownRule = errors.New("unknown review rule")
	// ErrInvalidRule is returned for a rule with out-of-range arguments
	ErrInvalidRule = errors.New("invalid review rule")
)

// Rule names
const (
	AcceptByConfidence         = "accept_by_confidence"
	RejectByConfidence         = "reject_by_confidence"
	RejectByMinCharacterLength = "reject_by_min_character_length"
	RemoveByConfidence         = "remove_by_confidence"
)

// Default thresholds used when a rule leaves them unset
const (
	DefaultAcceptThreshold = 0.98
	DefaultRejectThreshold = 0.50
	DefaultRemoveThreshold = 0.50
)

// Rule is one review step as it appears in configuration
type Rule struct {
	Function string   `yaml:"function" json:"function"`
	Args     RuleArgs `yaml:"kwargs" json:"kwargs"`
}

// RuleArgs are the arguments of a rule. Which fields apply depends on the
// rule; a zero threshold selects the rule's default.
type RuleArgs struct {
	// Only predictions with these labels; empty means all
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`
	// accept_by_confidence and remove_by_confidence
	ConfThreshold float64 `yaml:"conf_threshold,omitempty" json:"conf_threshold,omitempty"`
	// reject_by_confidence
	RejectThreshold float64 `yaml:"reject_threshold,omitempty" json:"reject_threshold,omitempty"`
	// reject_by_min_character_length
	MinLengthThreshold int `yaml:"min_length_threshold,omitempty" json:"min_length_threshold,omitempty"`
}

// step applies a compiled rule to predictions and returns the survivors
type step func(preds []extract.Prediction) []extract.Prediction

func compile(r Rule) (step, error) {
	labels := make(map[string]struct{}, len(r.Args.Labels))
	for _, l := range r.Args.Labels {
		labels[l] = struct{}{}
	}
	applies := func(p extract.Prediction) bool {
		if len(labels) == 0 {
			return true
		}
		_, ok := labels[p.Label]
		return ok
	}

	switch r.Function {
	case AcceptByConfidence:
		threshold, err := thresholdOr(r, r.Args.ConfThreshold, DefaultAcceptThreshold)
		if err != nil {
			return nil, err
		}
		return mark(applies, func(p *extract.Prediction) {
			if c, ok := p.LabelConfidence(); ok && c >= threshold {
				p.Accepted = true
			}
		}), nil

	case RejectByConfidence:
		threshold, err := thresholdOr(r, r.Args.RejectThreshold, DefaultRejectThreshold)
		if err != nil {
			return nil, err
		}
		return mark(applies, func(p *extract.Prediction) {
			if c, ok := p.LabelConfidence(); ok && c < threshold {
				p.Rejected = true
			}
		}), nil

	case RejectByMinCharacterLength:
		minLen := r.Args.MinLengthThreshold
		if minLen <= 0 {
			return nil, fmt.Errorf("%w: %s needs a positive min_length_threshold", ErrInvalidRule, r.Function)
		}
		return mark(applies, func(p *extract.Prediction) {
			if utf8.RuneCountInString(p.Text) < minLen {
				p.Rejected = true
			}
		}), nil

	case RemoveByConfidence:
		threshold, err := thresholdOr(r, r.Args.ConfThreshold, DefaultRemoveThreshold)
		if err != nil {
			return nil, err
		}
		return func(preds []extract.Prediction) []extract.Prediction {
			kept := preds[:0]
			for _, p := range preds {
				if applies(p) {
					if c, ok := p.LabelConfidence(); ok && c < threshold {
						continue
					}
				}
				kept = append(kept, p)
			}
			return kept
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, r.Function)
	}
}

func thresholdOr(r Rule, v, def float64) (float64, error) {
	if v == 0 {
		return def, nil
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: %s threshold %v outside [0, 1]", ErrInvalidRule, r.Function, v)
	}
	return v, nil
}

func mark(applies func(extract.Prediction) bool, fn func(*extract.Prediction)) step {
	return func(preds []extract.Prediction) []extract.Prediction {
		for i := range preds {
			if applies(preds[i]) {
				fn(&preds[i])
			}
		}
		return preds
	}
}
