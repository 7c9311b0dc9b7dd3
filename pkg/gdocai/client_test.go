package gdocai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeProcessor struct {
	failures   int // transient failures before success
	calls      int
	lastReq    *documentaipb.ProcessRequest
	lastBatch  *documentaipb.BatchProcessRequest
	doc        *documentaipb.Document
	op         *fakeOperation
	closeCalls int
}

func (f *fakeProcessor) process(_ context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
	f.calls++
	f.lastReq = req
	if f.calls <= f.failures {
		return nil, status.Error(codes.Unavailable, "backend unavailable")
	}
	return &documentaipb.ProcessResponse{Document: f.doc}, nil
}

func (f *fakeProcessor) batchProcess(_ context.Context, req *documentaipb.BatchProcessRequest) (batchOperation, error) {
	f.lastBatch = req
	return f.op, nil
}

func (f *fakeProcessor) close() error {
	f.closeCalls++
	return nil
}

type fakeOperation struct {
	polls     int
	doneAfter int
	failWith  error
	meta      *documentaipb.BatchProcessMetadata
}

func (o *fakeOperation) Name() string { return "projects/p/locations/us/operations/42" }
func (o *fakeOperation) Done() bool   { return o.polls >= o.doneAfter }

func (o *fakeOperation) Metadata() (*documentaipb.BatchProcessMetadata, error) {
	return o.meta, nil
}

func (o *fakeOperation) Poll(context.Context, ...gax.CallOption) (*documentaipb.BatchProcessResponse, error) {
	o.polls++
	if o.Done() {
		o.meta.State = documentaipb.BatchProcessMetadata_SUCCEEDED
		if o.failWith != nil {
			o.meta.State = documentaipb.BatchProcessMetadata_FAILED
			return nil, o.failWith
		}
		return &documentaipb.BatchProcessResponse{}, nil
	}
	return nil, nil
}

func (o *fakeOperation) Wait(ctx context.Context, opts ...gax.CallOption) (*documentaipb.BatchProcessResponse, error) {
	for !o.Done() {
		if _, err := o.Poll(ctx, opts...); err != nil {
			return nil, err
		}
	}
	return &documentaipb.BatchProcessResponse{}, o.failWith
}

var testConfig = &Config{ProjectID: "p", Location: "us", ProcessorID: "proc"}

const pdfBytes = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"

func TestClientProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("retries and returns the document", func(t *testing.T) {
		api := &fakeProcessor{failures: 2, doc: invoiceDocument()}
		c := newClientWithAPI(testConfig, api, WithRetryPolicy(fastRetry(3)))

		doc, err := c.Process(ctx, []byte(pdfBytes))
		require.NoError(t, err)
		assert.Equal(t, invoiceText, doc.Text)
		assert.Equal(t, 3, api.calls)
		assert.Equal(t, "projects/p/locations/us/processors/proc", api.lastReq.Name)
		assert.Equal(t, "application/pdf", api.lastReq.GetRawDocument().MimeType)
		assert.True(t, api.lastReq.SkipHumanReview)
	})

	t.Run("without retries the transient error surfaces", func(t *testing.T) {
		api := &fakeProcessor{failures: 1, doc: invoiceDocument()}
		c := newClientWithAPI(testConfig, api, WithRetryPolicy(NoRetry()))

		_, err := c.Process(ctx, []byte(pdfBytes))
		assert.Equal(t, codes.Unavailable, status.Code(errors.Unwrap(err)))
		assert.Equal(t, 1, api.calls)
	})

	t.Run("unsupported content is rejected before calling", func(t *testing.T) {
		api := &fakeProcessor{doc: invoiceDocument()}
		c := newClientWithAPI(testConfig, api)

		_, err := c.Process(ctx, []byte("plain text is not a document"))
		assert.ErrorIs(t, err, ErrUnsupportedMIME)
		assert.Equal(t, 0, api.calls)
	})

	t.Run("extract converts the response", func(t *testing.T) {
		api := &fakeProcessor{doc: invoiceDocument()}
		c := newClientWithAPI(testConfig, api)

		ext, err := c.Extract(ctx, []byte(pdfBytes))
		require.NoError(t, err)
		assert.Len(t, ext.Tokens, 6)
		assert.Len(t, ext.Predictions, 8)
		assert.Equal(t, invoiceText, ext.Text)

		require.NoError(t, c.Close())
		assert.Equal(t, 1, api.closeCalls)
	})

	t.Run("process file", func(t *testing.T) {
		api := &fakeProcessor{doc: invoiceDocument()}
		c := newClientWithAPI(testConfig, api)

		path := filepath.Join(t.TempDir(), "invoice.pdf")
		require.NoError(t, os.WriteFile(path, []byte(pdfBytes), 0644))
		doc, err := c.ProcessFile(ctx, path)
		require.NoError(t, err)
		assert.Len(t, PageSizesFromDocument(doc), 1)

		_, err = c.ProcessFile(ctx, filepath.Join(t.TempDir(), "missing.pdf"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("extract refuses documents without tokens", func(t *testing.T) {
		api := &fakeProcessor{doc: &documentaipb.Document{Text: "x"}}
		c := newClientWithAPI(testConfig, api)

		_, err := c.Extract(ctx, []byte(pdfBytes))
		assert.Error(t, err)
	})
}

func TestClientBatch(t *testing.T) {
	ctx := context.Background()

	newOp := func(failWith error) *fakeOperation {
		return &fakeOperation{
			doneAfter: 2,
			failWith:  failWith,
			meta: &documentaipb.BatchProcessMetadata{
				State: documentaipb.BatchProcessMetadata_RUNNING,
				IndividualProcessStatuses: []*documentaipb.BatchProcessMetadata_IndividualProcessStatus{
					{InputGcsSource: "gs://in/a.pdf", OutputGcsDestination: "gs://out/42/0"},
				},
			},
		}
	}

	t.Run("submit then poll until done", func(t *testing.T) {
		api := &fakeProcessor{op: newOp(nil)}
		c := newClientWithAPI(testConfig, api, WithRetryPolicy(NoRetry()))

		job, err := c.Submit(ctx, []string{"gs://in/a.pdf", "gs://in/b.PNG"}, "gs://out/")
		require.NoError(t, err)
		assert.Equal(t, "projects/p/locations/us/operations/42", job.Name())

		docs := api.lastBatch.GetInputDocuments().GetGcsDocuments().GetDocuments()
		require.Len(t, docs, 2)
		assert.Equal(t, "application/pdf", docs[0].MimeType)
		assert.Equal(t, "image/png", docs[1].MimeType)
		assert.Equal(t, "gs://out/", api.lastBatch.GetDocumentOutputConfig().GetGcsOutputConfig().GcsUri)

		st, err := c.Poll(ctx, job)
		require.NoError(t, err)
		assert.False(t, st.Done)
		assert.Equal(t, "RUNNING", st.State)

		st, err = c.Poll(ctx, job)
		require.NoError(t, err)
		assert.True(t, st.Done)
		assert.Equal(t, "SUCCEEDED", st.State)
		assert.Equal(t, []string{"gs://out/42/0"}, st.Outputs)
	})

	t.Run("failed job reports its error", func(t *testing.T) {
		failure := errors.New("processor crashed")
		api := &fakeProcessor{op: newOp(failure)}
		c := newClientWithAPI(testConfig, api, WithRetryPolicy(NoRetry()))

		job, err := c.Submit(ctx, []string{"gs://in/a.pdf"}, "gs://out/")
		require.NoError(t, err)

		st, err := c.Wait(ctx, job)
		assert.ErrorIs(t, err, failure)
		require.NotNil(t, st)
		assert.Equal(t, "FAILED", st.State)
	})

	t.Run("input validation", func(t *testing.T) {
		c := newClientWithAPI(testConfig, &fakeProcessor{op: newOp(nil)})

		_, err := c.Submit(ctx, nil, "gs://out/")
		assert.ErrorIs(t, err, ErrNoInputs)

		_, err = c.Submit(ctx, []string{"gs://in/notes.txt"}, "gs://out/")
		assert.ErrorIs(t, err, ErrUnsupportedMIME)
	})
}
