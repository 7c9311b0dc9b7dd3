// lineitems is a command-line tool that groups extracted line-item fields
// into table rows.
//
// It takes OCR tokens and predictions for a document, places every line-item
// prediction on its page and box, numbers the rows and writes the enriched
// predictions, the row groups and optionally a PDF showing the rows.
//
// Configuration:
//
// The tool requires a YAML configuration file:
//
//	line_item_fields: ["line_item/description", "line_item/quantity", "line_item/amount"]
//	row_tolerance: 0          # pixels of slack between rows
//	unmatched: error          # or "skip" to leave untokened predictions unplaced
//	concurrency: 4
//	log_level: info
//	document_ai:              # only needed with -pdf
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//	result:                   # only used when -predictions is a submission result
//	  model_name: "invoice model"
//	  final: false
//	review:                   # optional, applied before row association
//	  - function: accept_by_confidence
//	    kwargs: {conf_threshold: 0.99}
//
// Usage:
//
//	lineitems -config config.yml (-pdf a.pdf[,b.pdf] | -docai-json a.json[,b.json] | -hocr page.hocr -predictions preds.json) [outputs]
//
// Output options (at least one required):
//
//	-out string        Path to save the enriched predictions JSON
//	-groups string     Path to save the row groups JSON
//	-rows-pdf string   Path to save a PDF with the rows drawn
//	-debug-doc string  Path to save the source document as JSON
//
// With several input documents every output path gets the document name
// inserted before its extension.
//
// Authentication:
//
// With -pdf the tool uses the GOOGLE_APPLICATION_CREDENTIALS environment
// variable for authentication with Google Cloud.
//
// Example:
//
//	export GOOGLE_APPLICATION_CREDENTIALS=/path/to/credentials.json
//	lineitems -config config.yml -pdf invoice.pdf -groups rows.json -rows-pdf rows.pdf
//	lineitems -config config.yml -hocr scan.hocr -predictions preds.json -out enriched.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gardar/lineitems/pkg/batch"
)

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("lineitems", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Required flags.
	configPath := fs.String("config", "", "Path to the config YAML file (required)")

	// Input flags, exactly one source
	pdfPaths := fs.String("pdf", "", "Comma-separated PDF or image files to process with Document AI")
	docaiPaths := fs.String("docai-json", "", "Comma-separated saved Document AI JSON responses")
	hocrPath := fs.String("hocr", "", "Path to an hOCR file (requires -predictions)")
	predictionsPath := fs.String("predictions", "", "Path to predictions JSON for -hocr: a list or a submission result")

	// Output flags
	outPath := fs.String("out", "", "Path to save the enriched predictions JSON")
	groupsPath := fs.String("groups", "", "Path to save the row groups JSON")
	rowsPDFPath := fs.String("rows-pdf", "", "Path to save a PDF with the rows drawn")
	debugDocPath := fs.String("debug-doc", "", "Path to save the source document as JSON for debugging purposes")

	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	usage := func(msg string) error {
		fmt.Fprintln(stderr, "Error:", msg)
		fmt.Fprintln(stderr, "Usage:")
		fs.PrintDefaults()
		return errUsage
	}

	if *configPath == "" {
		return usage("-config flag is required")
	}

	src := sources{
		pdfs:        splitList(*pdfPaths),
		docaiJSON:   splitList(*docaiPaths),
		hocr:        *hocrPath,
		predictions: *predictionsPath,
	}
	given := 0
	for _, set := range []bool{len(src.pdfs) > 0, len(src.docaiJSON) > 0, src.hocr != ""} {
		if set {
			given++
		}
	}
	if given != 1 {
		return usage("exactly one of -pdf, -docai-json or -hocr must be provided")
	}
	if (src.hocr != "") != (src.predictions != "") {
		return usage("-hocr and -predictions must be used together")
	}

	out := outputs{
		predictions: *outPath,
		groups:      *groupsPath,
		rowsPDF:     *rowsPDFPath,
		debugDoc:    *debugDocPath,
	}
	if out == (outputs{}) {
		return usage("at least one output flag must be provided (-out, -groups, -rows-pdf or -debug-doc)")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.logLevel}))

	inputs, err := loadInputs(ctx, src, cfg, log)
	if err != nil {
		return err
	}
	if err := applyReview(inputs, cfg.review, log); err != nil {
		return fmt.Errorf("failed to review predictions: %w", err)
	}

	docs := make([]batch.Document, len(inputs))
	for i, in := range inputs {
		docs[i] = in.doc
	}
	results, err := batch.Run(ctx, docs, cfg.lineItemFields,
		batch.WithConcurrency(cfg.concurrency),
		batch.WithAssociationOptions(cfg.assocOptions(log)...),
		batch.WithLogger(log),
	)
	if err != nil {
		return err
	}

	multi := len(inputs) > 1
	for i, res := range results {
		for _, p := range res.Unmatched {
			log.Warn("Line item without OCR tokens", "document", res.Name, "label", p.Label, "start", p.Start, "end", p.End)
		}
		if err := writeOutputs(inputs[i], res, out, multi, log); err != nil {
			return err
		}
	}
	return nil
}
