package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gardar/lineitems/pkg/batch"
	"github.com/gardar/lineitems/pkg/extract"
	"github.com/gardar/lineitems/pkg/gdocai"
	"github.com/gardar/lineitems/pkg/rowpdf"
)

type outputs struct {
	predictions string
	groups      string
	rowsPDF     string
	debugDoc    string
}

// outputPath returns base for a single document. With several documents the
// document name is inserted before the extension: out.json -> out_invoice.json
func outputPath(base, name string, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + name + ext
}

func writeOutputs(in input, res batch.Result, out outputs, multi bool, log *slog.Logger) error {
	if out.predictions != "" {
		path := outputPath(out.predictions, res.Name, multi)
		if err := writeJSONFile(path, res.Predictions); err != nil {
			return err
		}
		log.Info("Enriched predictions saved", "path", path)
	}

	if out.groups != "" {
		path := outputPath(out.groups, res.Name, multi)
		if err := writeJSONFile(path, res.Groups); err != nil {
			return err
		}
		log.Info("Row groups saved", "path", path)
	}

	if out.rowsPDF != "" {
		path := outputPath(out.rowsPDF, res.Name, multi)
		cfg := rowpdf.DefaultConfig()
		cfg.Logger = log
		cfg.PageSizes = in.pageSizes
		cfg.Background = in.background
		pdfBytes, err := rowpdf.Render(res.Predictions, in.doc.Tokens, cfg)
		if err != nil {
			return fmt.Errorf("failed to render rows for %s: %w", res.Name, err)
		}
		if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
			return fmt.Errorf("failed to write row overlay: %w", err)
		}
		log.Info("Row overlay PDF saved", "path", path)
	}

	if out.debugDoc != "" && in.debug != nil {
		path := outputPath(out.debugDoc, res.Name, multi)
		debugJSON, err := gdocai.ToJSON(in.debug)
		if err != nil {
			return fmt.Errorf("failed to convert source document to JSON: %w", err)
		}
		if err := os.WriteFile(path, []byte(debugJSON), 0644); err != nil {
			return fmt.Errorf("failed to write source document JSON: %w", err)
		}
		log.Info("Source document JSON saved", "path", path)
	}
	return nil
}

func writeJSONFile(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return extract.WriteJSON(f, v)
}
