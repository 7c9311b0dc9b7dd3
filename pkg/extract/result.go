package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoModels is returned when the result document carries no model output
	ErrNoModels = errors.New("result contains no model predictions")
	// ErrAmbiguousModel is returned when no model name was given and several are available
	ErrAmbiguousModel = errors.New("multiple models available, a model name is required")
	// ErrUnknownModel is returned when the requested model is not in the result
	ErrUnknownModel = errors.New("model is not available in result")
	// ErrNotReviewed is returned when post-review predictions are requested before review completed
	ErrNotReviewed = errors.New("submission has not completed review")
)

// Result is a read-only view of a submission result document.
// All accessors return copies; a Result never changes after construction.
type Result struct {
	doc       resultDocument
	modelName string
}

type resultDocument struct {
	SubmissionID   string          `json:"submission_id"`
	ETLOutput      string          `json:"etl_output"`
	Errors         []string        `json:"errors"`
	ReviewID       int             `json:"review_id"`
	ReviewerID     int             `json:"reviewer_id"`
	ReviewNotes    string          `json:"review_notes"`
	ReviewRejected bool            `json:"review_rejected"`
	AdminReview    bool            `json:"admin_review"`
	Results        documentResults `json:"results"`
}

type documentResults struct {
	Document struct {
		Results map[string]modelResult `json:"results"`
	} `json:"document"`
}

// modelResult accepts both shapes the platform emits for a model: a bare
// prediction list, or an object with pre_review and (once reviewed) final.
type modelResult struct {
	PreReview []Prediction
	Final     []Prediction
	Reviewed  bool
}

func (m *modelResult) UnmarshalJSON(data []byte) error {
	var list []Prediction
	if err := json.Unmarshal(data, &list); err == nil {
		m.PreReview = list
		return nil
	}

	var obj struct {
		PreReview []Prediction  `json:"pre_review"`
		Final     *[]Prediction `json:"final"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("model result is neither a list nor a review object: %w", err)
	}
	m.PreReview = obj.PreReview
	if obj.Final != nil {
		m.Final = *obj.Final
		m.Reviewed = true
	}
	return nil
}

// ResultOption configures NewResult
type ResultOption func(*resultConfig)

type resultConfig struct {
	modelName string
}

// WithModelName selects which model's predictions the Result exposes
func WithModelName(name string) ResultOption {
	return func(c *resultConfig) { c.modelName = name }
}

// NewResult parses a submission result document. Without WithModelName the
// sole available model is used; several models make the choice ambiguous.
func NewResult(data []byte, opts ...ResultOption) (*Result, error) {
	cfg := resultConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var doc resultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse result document: %w", err)
	}

	r := &Result{doc: doc}
	names := r.AvailableModelNames()

	switch {
	case cfg.modelName != "":
		if _, ok := doc.Results.Document.Results[cfg.modelName]; !ok {
			return nil, fmt.Errorf("%w: %q, options: %v", ErrUnknownModel, cfg.modelName, names)
		}
		r.modelName = cfg.modelName
	case len(names) == 0:
		return nil, ErrNoModels
	case len(names) > 1:
		return nil, fmt.Errorf("%w: choose one of %v", ErrAmbiguousModel, names)
	default:
		r.modelName = names[0]
	}
	return r, nil
}

// ModelName returns the model whose predictions this Result exposes
func (r *Result) ModelName() string { return r.modelName }

// AvailableModelNames lists every model in the document, sorted
func (r *Result) AvailableModelNames() []string {
	names := make([]string, 0, len(r.doc.Results.Document.Results))
	for name := range r.doc.Results.Document.Results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Predictions returns the model's pre-review predictions
func (r *Result) Predictions() []Prediction {
	return ClonePredictions(r.doc.Results.Document.Results[r.modelName].PreReview)
}

// PostReviewPredictions returns the model's final predictions after review
func (r *Result) PostReviewPredictions() ([]Prediction, error) {
	m := r.doc.Results.Document.Results[r.modelName]
	if !m.Reviewed {
		return nil, fmt.Errorf("submission %s: %w", r.doc.SubmissionID, ErrNotReviewed)
	}
	return ClonePredictions(m.Final), nil
}

func (r *Result) SubmissionID() string { return r.doc.SubmissionID }
func (r *Result) ETLURL() string       { return r.doc.ETLOutput }
func (r *Result) ReviewID() int        { return r.doc.ReviewID }
func (r *Result) ReviewerID() int      { return r.doc.ReviewerID }
func (r *Result) ReviewNotes() string  { return r.doc.ReviewNotes }
func (r *Result) ReviewRejected() bool { return r.doc.ReviewRejected }
func (r *Result) AdminReview() bool    { return r.doc.AdminReview }

// Errors returns the processing errors recorded on the submission
func (r *Result) Errors() []string {
	return append([]string(nil), r.doc.Errors...)
}
