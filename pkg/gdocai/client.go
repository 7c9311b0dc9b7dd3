package gdocai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/option"
)

var (
	// ErrUnsupportedMIME is returned for content Document AI cannot process
	ErrUnsupportedMIME = errors.New("unsupported document type")
	// ErrNoInputs is returned when a batch job is submitted without documents
	ErrNoInputs = errors.New("no input documents")
)

// supportedMIMETypes are the raw document types Document AI accepts
var supportedMIMETypes = []string{
	"application/pdf",
	"image/tiff",
	"image/gif",
	"image/jpeg",
	"image/png",
	"image/bmp",
	"image/webp",
}

var mimeByExtension = map[string]string{
	".pdf":  "application/pdf",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".gif":  "image/gif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// processorAPI is the slice of the Document AI client this package uses
type processorAPI interface {
	process(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)
	batchProcess(ctx context.Context, req *documentaipb.BatchProcessRequest) (batchOperation, error)
	close() error
}

type grpcProcessor struct {
	client *documentai.DocumentProcessorClient
}

func (g *grpcProcessor) process(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
	return g.client.ProcessDocument(ctx, req)
}

func (g *grpcProcessor) batchProcess(ctx context.Context, req *documentaipb.BatchProcessRequest) (batchOperation, error) {
	return g.client.BatchProcessDocuments(ctx, req)
}

func (g *grpcProcessor) close() error {
	return g.client.Close()
}

// Client submits documents to a Document AI processor
type Client struct {
	cfg   *Config
	api   processorAPI
	retry RetryPolicy
	log   *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*clientOptions)

type clientOptions struct {
	retry   RetryPolicy
	log     *slog.Logger
	apiOpts []option.ClientOption
}

// WithRetryPolicy replaces DefaultRetryPolicy
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(o *clientOptions) { o.retry = p }
}

// WithLogger sets the client's logger
func WithLogger(log *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithAPIOptions passes extra options to the underlying Google API client
func WithAPIOptions(opts ...option.ClientOption) ClientOption {
	return func(o *clientOptions) { o.apiOpts = append(o.apiOpts, opts...) }
}

func buildOptions(opts []ClientOption) clientOptions {
	o := clientOptions{retry: DefaultRetryPolicy(), log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient connects to the regional Document AI endpoint. Credentials come
// from GOOGLE_APPLICATION_CREDENTIALS when set, otherwise from the
// environment's default credentials.
func NewClient(ctx context.Context, cfg *Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	apiOpts := []option.ClientOption{option.WithEndpoint(cfg.Endpoint())}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		apiOpts = append(apiOpts, option.WithCredentialsFile(creds))
	}
	apiOpts = append(apiOpts, o.apiOpts...)

	dpc, err := documentai.NewDocumentProcessorClient(ctx, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}

	return &Client{cfg: cfg, api: &grpcProcessor{client: dpc}, retry: o.retry, log: o.log}, nil
}

func newClientWithAPI(cfg *Config, api processorAPI, opts ...ClientOption) *Client {
	o := buildOptions(opts)
	return &Client{cfg: cfg, api: api, retry: o.retry, log: o.log}
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("Document AI config is nil")
	}
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if c.Location == "" {
		missing = append(missing, "location")
	}
	if c.ProcessorID == "" {
		missing = append(missing, "processor_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("Document AI config is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.api.close()
}

// DetectMIMEType sniffs content and rejects types Document AI cannot process
func DetectMIMEType(content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty content", ErrUnsupportedMIME)
	}
	mt := mimetype.Detect(content)
	for m := mt; m != nil; m = m.Parent() {
		if mimetype.EqualsAny(m.String(), supportedMIMETypes...) {
			return m.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMIME, mt.String())
}

// Process sends a document to the processor synchronously and returns the
// raw Document AI response. Transient failures are retried per the client's
// RetryPolicy.
func (c *Client) Process(ctx context.Context, content []byte) (*documentaipb.Document, error) {
	mimeType, err := DetectMIMEType(content)
	if err != nil {
		return nil, err
	}

	req := &documentaipb.ProcessRequest{
		Name: c.cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}

	c.log.Debug("Processing document", "processor", req.Name, "mime_type", mimeType, "bytes", len(content))

	var resp *documentaipb.ProcessResponse
	err = c.retry.Do(ctx, c.log, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.api.process(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	if resp.GetDocument() == nil {
		return nil, fmt.Errorf("failed to process document: empty response")
	}

	c.log.Debug("Document processed", "pages", len(resp.Document.Pages), "entities", len(resp.Document.Entities))
	return resp.Document, nil
}

// ProcessFile reads a local file and processes it
func (c *Client) ProcessFile(ctx context.Context, path string) (*documentaipb.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return c.Process(ctx, content)
}

// mimeTypeForURI guesses a GCS object's type from its extension
func mimeTypeForURI(uri string) (string, error) {
	ext := strings.ToLower(filepath.Ext(uri))
	if mt, ok := mimeByExtension[ext]; ok {
		return mt, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMIME, uri)
}
