// Package batch runs row association over many documents concurrently.
// Each document gets its own Association; nothing is shared between them
// except the field set and options.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gardar/lineitems/pkg/extract"
	"github.com/gardar/lineitems/pkg/rowassoc"
)

// Document is one unit of work
type Document struct {
	Name        string
	Predictions []extract.Prediction
	Tokens      []extract.OCRToken
}

// Result is the outcome for one document. Predictions is an enriched copy;
// the input Document is never modified.
type Result struct {
	Name        string
	Predictions []extract.Prediction
	Groups      []rowassoc.RowGroup
	Unmatched   []extract.Prediction
}

// Option configures Run
type Option func(*config)

type config struct {
	concurrency int
	assocOpts   []rowassoc.Option
	log         *slog.Logger
}

// WithConcurrency caps the number of documents processed at once.
// Values below one select runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(c *config) { c.concurrency = n }
}

// WithAssociationOptions passes options to every document's Association
func WithAssociationOptions(opts ...rowassoc.Option) Option {
	return func(c *config) { c.assocOpts = append(c.assocOpts, opts...) }
}

// WithLogger sets the logger; nil keeps slog.Default()
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// Run associates rows in every document. Results are in input order. The
// first failing document cancels the documents not yet started and its
// error is returned.
func Run(ctx context.Context, docs []Document, lineItemFields []string, opts ...Option) ([]Result, error) {
	cfg := config{log: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = runtime.NumCPU()
	}

	// Configuration errors are the same for every document
	if _, err := rowassoc.NewAssociation(lineItemFields, nil, cfg.assocOpts...); err != nil {
		return nil, err
	}

	results := make([]Result, len(docs))
	r := newRunner(ctx, cfg.concurrency)
	for i, doc := range docs {
		i, doc := i, doc
		r.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := runOne(doc, lineItemFields, cfg)
			if err != nil {
				return fmt.Errorf("document %q: %w", doc.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := r.Wait(); err != nil {
		return nil, err
	}

	cfg.log.Info("Batch completed", "documents", len(docs))
	return results, nil
}

func runOne(doc Document, lineItemFields []string, cfg config) (Result, error) {
	preds := extract.ClonePredictions(doc.Predictions)
	a, err := rowassoc.NewAssociation(lineItemFields, preds, cfg.assocOpts...)
	if err != nil {
		return Result{}, err
	}
	if err := a.GetBoundingBoxes(doc.Tokens); err != nil {
		return Result{}, err
	}
	if err := a.AssignRowNumbers(); err != nil {
		return Result{}, err
	}

	groups := a.LineItemGroups()
	cfg.log.Debug("Document associated", "document", doc.Name, "rows", len(groups))
	return Result{
		Name:        doc.Name,
		Predictions: a.UpdatedPredictions(),
		Groups:      groups,
		Unmatched:   a.Unmatched(),
	}, nil
}
