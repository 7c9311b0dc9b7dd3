package gdocai

import (
	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/lineitems/pkg/extract"
)

// Config identifies the Document AI processor to call
type Config struct {
	ProjectID   string // Google Cloud project
	Location    string // Processor region, e.g. "us" or "eu"
	ProcessorID string // Processor to run (OCR, form or custom extractor)
}

// ProcessorName builds the processor's resource name
func (c *Config) ProcessorName() string {
	return "projects/" + c.ProjectID + "/locations/" + c.Location + "/processors/" + c.ProcessorID
}

// Endpoint returns the regional API endpoint for the processor
func (c *Config) Endpoint() string {
	return c.Location + "-documentai.googleapis.com:443"
}

// Extraction is everything row association needs from one processed document
type Extraction struct {
	Raw         *documentaipb.Document // Original Document AI response
	Text        string                 // Full document text the offsets point into
	Tokens      []extract.OCRToken     // One token per Document AI page token
	Predictions []extract.Prediction   // Entities and form fields as predictions
	PageSizes   []extract.PageSize     // Pixel dimension per page
}

// JobStatus is a snapshot of a batch processing operation
type JobStatus struct {
	Name    string   // Operation name
	Done    bool     // Operation finished (successfully or not)
	State   string   // Document AI batch state, e.g. RUNNING, SUCCEEDED
	Message string   // State message reported by the service
	Outputs []string // Output GCS destination per input document, once known
}
