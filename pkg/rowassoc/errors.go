package rowassoc

import (
	"errors"
	"fmt"

	"github.com/gardar/lineitems/pkg/extract"
)

var (
	// ErrEmptyFieldSet is returned when no line-item fields are configured
	ErrEmptyFieldSet = errors.New("line item field set is empty")
	// ErrInvalidLabel is returned when the field set contains a blank label
	ErrInvalidLabel = errors.New("line item field set contains a blank label")
	// ErrNegativeTolerance is returned for a row tolerance below zero
	ErrNegativeTolerance = errors.New("row tolerance must not be negative")
	// ErrUnknownPolicy is returned for an unmatched policy this package does not define
	ErrUnknownPolicy = errors.New("unknown unmatched prediction policy")

	// ErrNotEnriched is returned when rows are assigned before bounding boxes
	ErrNotEnriched = errors.New("bounding boxes have not been assigned")
	// ErrAlreadyEnriched is returned when bounding boxes are assigned twice
	ErrAlreadyEnriched = errors.New("bounding boxes were already assigned")
)

// ConfigurationError reports an invalid Association setup
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid row association configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnmatchedTokenError reports a line-item prediction that no OCR token overlaps
type UnmatchedTokenError struct {
	Index int // position in the prediction list
	Label string
	Span  extract.Span
}

func (e *UnmatchedTokenError) Error() string {
	return fmt.Sprintf("prediction %d (%s, offsets %d-%d) matches no OCR token",
		e.Index, e.Label, e.Span.Start, e.Span.End)
}

// PageMismatchError reports a prediction whose matched tokens, or whose own
// declared page, disagree on the page number
type PageMismatchError struct {
	Index int
	Label string
	Span  extract.Span
	Pages []int
}

func (e *PageMismatchError) Error() string {
	return fmt.Sprintf("prediction %d (%s, offsets %d-%d) spans tokens on different pages %v",
		e.Index, e.Label, e.Span.Start, e.Span.End, e.Pages)
}
