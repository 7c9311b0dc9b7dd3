package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gardar/lineitems/pkg/batch"
	"github.com/gardar/lineitems/pkg/extract"
	"github.com/gardar/lineitems/pkg/gdocai"
	"github.com/gardar/lineitems/pkg/hocr"
	"github.com/gardar/lineitems/pkg/review"
)

// input is one document to associate plus what its debug output shows
type input struct {
	doc        batch.Document
	debug      any // *documentaipb.Document or *hocr.Document
	pageSizes  []extract.PageSize
	background []byte // source PDF, when the input was one
}

type sources struct {
	pdfs        []string
	docaiJSON   []string
	hocr        string
	predictions string
}

func loadInputs(ctx context.Context, src sources, cfg *config, log *slog.Logger) ([]input, error) {
	var inputs []input
	switch {
	case len(src.pdfs) > 0:
		client, err := gdocai.NewClient(ctx, cfg.docai, gdocai.WithLogger(log))
		if err != nil {
			return nil, err
		}
		defer client.Close()

		for _, path := range src.pdfs {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			log.Info("Processing document", "path", path)
			doc, err := client.Process(ctx, content)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			in := fromExtraction(path, gdocai.ExtractionFromDocument(doc))
			if mt, _ := gdocai.DetectMIMEType(content); mt == "application/pdf" {
				in.background = content
			}
			inputs = append(inputs, in)
		}

	case len(src.docaiJSON) > 0:
		for _, path := range src.docaiJSON {
			doc, err := gdocai.LoadDocument(path)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, fromExtraction(path, gdocai.ExtractionFromDocument(doc)))
		}

	default:
		data, err := os.ReadFile(src.hocr)
		if err != nil {
			return nil, err
		}
		hdoc, err := hocr.ParseTokens(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.hocr, err)
		}
		preds, err := loadPredictions(src.predictions, cfg)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{
			doc:       batch.Document{Name: docName(src.hocr), Predictions: preds, Tokens: hdoc.Tokens},
			debug:     hdoc,
			pageSizes: hdoc.PageSizes(),
		})
	}

	uniqueNames(inputs)
	return inputs, nil
}

func fromExtraction(path string, ext *gdocai.Extraction) input {
	return input{
		doc:       batch.Document{Name: docName(path), Predictions: ext.Predictions, Tokens: ext.Tokens},
		debug:     ext.Raw,
		pageSizes: ext.PageSizes,
	}
}

// loadPredictions accepts either a bare prediction list or a submission
// result document
func loadPredictions(path string, cfg *config) ([]extract.Prediction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return extract.ReadPredictions(bytes.NewReader(trimmed))
	}

	var opts []extract.ResultOption
	if cfg.modelName != "" {
		opts = append(opts, extract.WithModelName(cfg.modelName))
	}
	res, err := extract.NewResult(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.finalResult {
		return res.PostReviewPredictions()
	}
	return res.Predictions(), nil
}

// applyReview runs the configured review rules over every input
func applyReview(inputs []input, rules []review.Rule, log *slog.Logger) error {
	if len(rules) == 0 {
		return nil
	}
	for i := range inputs {
		r, err := review.NewReviewer(inputs[i].doc.Predictions, rules, log)
		if err != nil {
			return err
		}
		r.Apply()
		inputs[i].doc.Predictions = r.UpdatedPredictions()
	}
	return nil
}

func docName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// uniqueNames suffixes repeated document names so their outputs do not collide
func uniqueNames(inputs []input) {
	taken := make(map[string]bool, len(inputs))
	for i := range inputs {
		name := inputs[i].doc.Name
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s_%d", inputs[i].doc.Name, n)
		}
		taken[name] = true
		inputs[i].doc.Name = name
	}
}

// splitList splits a comma-separated flag value, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
