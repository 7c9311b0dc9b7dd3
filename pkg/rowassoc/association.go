package rowassoc

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gardar/lineitems/pkg/extract"
)

// Association enriches the line-item predictions of one document with page,
// box and row number. It mutates the prediction slice it was built with.
type Association struct {
	fields    map[string]struct{}
	preds     []extract.Prediction
	opts      options
	log       *slog.Logger
	enriched  bool
	placed    []int // line items boxed by GetBoundingBoxes
	unmatched []int
}

// NewAssociation validates the line-item field set and binds the predictions
// that will be enriched in place.
func NewAssociation(lineItemFields []string, preds []extract.Prediction, opts ...Option) (*Association, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	if len(lineItemFields) == 0 {
		return nil, &ConfigurationError{Err: ErrEmptyFieldSet}
	}
	fields := make(map[string]struct{}, len(lineItemFields))
	for i, label := range lineItemFields {
		if strings.TrimSpace(label) == "" {
			return nil, &ConfigurationError{Err: fmt.Errorf("%w at position %d", ErrInvalidLabel, i)}
		}
		fields[label] = struct{}{}
	}

	return &Association{
		fields: fields,
		preds:  preds,
		opts:   o,
		log:    o.log,
	}, nil
}

// IsLineItem reports whether label is one of the configured line-item fields
func (a *Association) IsLineItem(label string) bool {
	_, ok := a.fields[label]
	return ok
}

// LineItemFields returns the configured labels, sorted
func (a *Association) LineItemFields() []string {
	labels := make([]string, 0, len(a.fields))
	for label := range a.fields {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

type boxAssignment struct {
	index int
	page  int
	box   extract.Position
}

// GetBoundingBoxes attaches a page number and the covering box of all
// overlapping tokens to every line-item prediction. Nothing is written unless
// every prediction can be placed (or skipped, under UnmatchedSkip).
func (a *Association) GetBoundingBoxes(tokens []extract.OCRToken) error {
	if a.enriched {
		return ErrAlreadyEnriched
	}

	idx := newTokenIndex(tokens)
	a.log.Debug("Assigning bounding boxes", "predictions", len(a.preds), "tokens", len(tokens))

	var assignments []boxAssignment
	var unmatched []int

	for i, pred := range a.preds {
		if !a.IsLineItem(pred.Label) {
			continue
		}

		matched := idx.overlapping(pred.Span())
		if len(matched) == 0 {
			if a.opts.unmatched == UnmatchedError {
				return &UnmatchedTokenError{Index: i, Label: pred.Label, Span: pred.Span()}
			}
			a.log.Debug("No OCR token for prediction", "index", i, "label", pred.Label, "start", pred.Start, "end", pred.End)
			unmatched = append(unmatched, i)
			continue
		}

		page, box, pages := coveringBox(matched)
		if pages != nil {
			return &PageMismatchError{Index: i, Label: pred.Label, Span: pred.Span(), Pages: pages}
		}
		if pred.PageNum != nil && *pred.PageNum != page {
			return &PageMismatchError{Index: i, Label: pred.Label, Span: pred.Span(), Pages: []int{*pred.PageNum, page}}
		}

		assignments = append(assignments, boxAssignment{index: i, page: page, box: box})
	}

	placed := make([]int, 0, len(assignments))
	for _, asg := range assignments {
		page, box := asg.page, asg.box
		pred := &a.preds[asg.index]
		pred.PageNum = &page
		pred.Position = &box
		pred.RowNumber = nil
		placed = append(placed, asg.index)
	}
	// Boxes and rows carried in from an earlier run do not apply
	for _, i := range unmatched {
		a.preds[i].PageNum = nil
		a.preds[i].Position = nil
		a.preds[i].RowNumber = nil
	}
	a.placed = placed
	a.unmatched = unmatched
	a.enriched = true

	a.log.Debug("Bounding boxes assigned", "placed", len(assignments), "unmatched", len(unmatched))
	return nil
}

// Unmatched returns copies of the line-item predictions that no token
// overlapped. Always empty under UnmatchedError.
func (a *Association) Unmatched() []extract.Prediction {
	out := make([]extract.Prediction, 0, len(a.unmatched))
	for _, i := range a.unmatched {
		out = append(out, a.preds[i].Clone())
	}
	return out
}

// UpdatedPredictions returns the full prediction list, line items enriched.
// This is the slice passed to NewAssociation, not a copy.
func (a *Association) UpdatedPredictions() []extract.Prediction {
	return a.preds
}

// LineItemGroups clusters the line-item predictions by row number
func (a *Association) LineItemGroups() []RowGroup {
	lineItems := make([]extract.Prediction, 0, len(a.preds))
	for _, pred := range a.preds {
		if a.IsLineItem(pred.Label) {
			lineItems = append(lineItems, pred)
		}
	}
	return GroupByRow(lineItems)
}

// Associate runs the whole pipeline on preds and returns the row groups
func Associate(lineItemFields []string, preds []extract.Prediction, tokens []extract.OCRToken, opts ...Option) ([]RowGroup, error) {
	a, err := NewAssociation(lineItemFields, preds, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.GetBoundingBoxes(tokens); err != nil {
		return nil, err
	}
	if err := a.AssignRowNumbers(); err != nil {
		return nil, err
	}
	groups := a.LineItemGroups()
	a.log.Info("Row association completed", "rows", len(groups), "unmatched", len(a.unmatched))
	return groups, nil
}
