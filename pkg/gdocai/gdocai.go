// Package gdocai connects row association to Google Document AI.
//
// Document AI is the upstream platform: it OCRs a document and, depending on
// the processor, extracts entities (invoice line items, custom extractor
// fields) and form fields. This package submits documents, polls batch jobs
// and converts the response into the OCR tokens and predictions consumed by
// the rowassoc package.
//
// Key Features:
//
// - Process documents synchronously with MIME detection and retries
// - Submit batch jobs over GCS inputs and poll them without blocking
// - Convert page tokens to OCR tokens with text-anchor spans and pixel boxes
// - Convert entities (including nested properties) and form fields to predictions
// - Load saved Document AI JSON for offline runs
//
// Main Functions:
//
// - NewClient: Connects to a regional processor
// - Client.Process / Client.Submit / Client.Poll / Client.Wait: Platform calls
// - ExtractionFromDocument: Converts a Document AI response
// - LoadDocument: Reads a saved Document AI JSON response
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor (OCR, form parser, invoice parser or custom extractor)
// - Authentication via GOOGLE_APPLICATION_CREDENTIALS or default credentials
package gdocai

import (
	"context"
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// ExtractionFromDocument collects the text, tokens and predictions of a
// Document AI response. Entity predictions come before form field
// predictions.
func ExtractionFromDocument(doc *documentaipb.Document) *Extraction {
	if doc == nil {
		return &Extraction{}
	}

	preds := PredictionsFromEntities(doc)
	preds = append(preds, PredictionsFromFormFields(doc)...)

	return &Extraction{
		Raw:         doc,
		Text:        doc.Text,
		Tokens:      TokensFromDocument(doc),
		Predictions: preds,
		PageSizes:   PageSizesFromDocument(doc),
	}
}

// Extract processes content with Document AI and converts the response
func (c *Client) Extract(ctx context.Context, content []byte) (*Extraction, error) {
	doc, err := c.Process(ctx, content)
	if err != nil {
		return nil, err
	}

	ext := ExtractionFromDocument(doc)
	if len(ext.Tokens) == 0 {
		return nil, fmt.Errorf("document has no OCR tokens")
	}
	c.log.Debug("Converted document", "tokens", len(ext.Tokens), "predictions", len(ext.Predictions))
	return ext, nil
}
