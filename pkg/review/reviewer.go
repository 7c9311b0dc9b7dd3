package review

import (
	"fmt"
	"log/slog"

	"github.com/gardar/lineitems/pkg/extract"
)

// Reviewer applies rules, in order, to a private copy of the predictions
type Reviewer struct {
	preds []extract.Prediction
	rules []Rule
	steps []step
	log   *slog.Logger
}

// NewReviewer compiles the rules. An unknown rule or an invalid argument
// fails here, before any prediction is touched.
func NewReviewer(preds []extract.Prediction, rules []Rule, log *slog.Logger) (*Reviewer, error) {
	if log == nil {
		log = slog.Default()
	}
	steps := make([]step, 0, len(rules))
	for i, r := range rules {
		s, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	return &Reviewer{
		preds: extract.ClonePredictions(preds),
		rules: rules,
		steps: steps,
		log:   log,
	}, nil
}

// Apply runs every rule once
func (r *Reviewer) Apply() {
	for i, s := range r.steps {
		before := len(r.preds)
		r.preds = s(r.preds)
		r.log.Debug("Applied review rule", "rule", r.rules[i].Function, "removed", before-len(r.preds))
	}
}

// UpdatedPredictions returns a copy of the reviewed predictions
func (r *Reviewer) UpdatedPredictions() []extract.Prediction {
	return extract.ClonePredictions(r.preds)
}
