package rowassoc

import (
	"fmt"
	"log/slog"
	"strings"
)

// UnmatchedPolicy decides what happens to a line-item prediction that no OCR
// token overlaps
type UnmatchedPolicy int

const (
	// UnmatchedError fails GetBoundingBoxes with an UnmatchedTokenError
	UnmatchedError UnmatchedPolicy = iota
	// UnmatchedSkip leaves the prediction without box and row number and
	// reports it through Association.Unmatched
	UnmatchedSkip
)

func (p UnmatchedPolicy) String() string {
	switch p {
	case UnmatchedError:
		return "error"
	case UnmatchedSkip:
		return "skip"
	default:
		return fmt.Sprintf("UnmatchedPolicy(%d)", int(p))
	}
}

// ParseUnmatchedPolicy maps a config value ("error", "skip") to a policy.
// An empty string selects the default.
func ParseUnmatchedPolicy(s string) (UnmatchedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return UnmatchedError, nil
	case "skip":
		return UnmatchedSkip, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// DefaultRowTolerance is the pixel slack allowed between a box's top and the
// bottom of the current row band before a new row starts
const DefaultRowTolerance = 0.0

// Option configures an Association
type Option func(*options)

type options struct {
	rowTolerance float64
	unmatched    UnmatchedPolicy
	log          *slog.Logger
}

func defaultOptions() options {
	return options{
		rowTolerance: DefaultRowTolerance,
		unmatched:    UnmatchedError,
		log:          slog.Default(),
	}
}

// WithRowTolerance widens each row band by px pixels. Useful for OCR
// providers whose boxes jitter between words on one line.
func WithRowTolerance(px float64) Option {
	return func(o *options) { o.rowTolerance = px }
}

// WithUnmatchedPolicy selects how predictions without any OCR token are handled
func WithUnmatchedPolicy(p UnmatchedPolicy) Option {
	return func(o *options) { o.unmatched = p }
}

// WithLogger sets the logger; nil keeps slog.Default()
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func (o options) validate() error {
	if o.rowTolerance < 0 {
		return &ConfigurationError{Err: fmt.Errorf("%w: %v", ErrNegativeTolerance, o.rowTolerance)}
	}
	if o.unmatched != UnmatchedError && o.unmatched != UnmatchedSkip {
		return &ConfigurationError{Err: fmt.Errorf("%w: %v", ErrUnknownPolicy, o.unmatched)}
	}
	return nil
}
