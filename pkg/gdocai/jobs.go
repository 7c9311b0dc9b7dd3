package gdocai

import (
	"context"
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
)

// batchOperation is the long-running operation returned by batch processing.
// *documentai.BatchProcessDocumentsOperation satisfies it.
type batchOperation interface {
	Name() string
	Done() bool
	Metadata() (*documentaipb.BatchProcessMetadata, error)
	Poll(ctx context.Context, opts ...gax.CallOption) (*documentaipb.BatchProcessResponse, error)
	Wait(ctx context.Context, opts ...gax.CallOption) (*documentaipb.BatchProcessResponse, error)
}

// Job is a handle on a submitted batch
type Job struct {
	op batchOperation
}

// Name returns the operation name, usable to look the job up later
func (j *Job) Name() string { return j.op.Name() }

// Submit starts asynchronous processing of documents already stored in GCS.
// Results are written by the service under outputURI.
func (c *Client) Submit(ctx context.Context, inputURIs []string, outputURI string) (*Job, error) {
	if len(inputURIs) == 0 {
		return nil, ErrNoInputs
	}

	docs := make([]*documentaipb.GcsDocument, 0, len(inputURIs))
	for _, uri := range inputURIs {
		mimeType, err := mimeTypeForURI(uri)
		if err != nil {
			return nil, err
		}
		docs = append(docs, &documentaipb.GcsDocument{GcsUri: uri, MimeType: mimeType})
	}

	req := &documentaipb.BatchProcessRequest{
		Name: c.cfg.ProcessorName(),
		InputDocuments: &documentaipb.BatchDocumentsInputConfig{
			Source: &documentaipb.BatchDocumentsInputConfig_GcsDocuments{
				GcsDocuments: &documentaipb.GcsDocuments{Documents: docs},
			},
		},
		DocumentOutputConfig: &documentaipb.DocumentOutputConfig{
			Destination: &documentaipb.DocumentOutputConfig_GcsOutputConfig_{
				GcsOutputConfig: &documentaipb.DocumentOutputConfig_GcsOutputConfig{GcsUri: outputURI},
			},
		},
		SkipHumanReview: true,
	}

	var op batchOperation
	err := c.retry.Do(ctx, c.log, func(ctx context.Context) error {
		var callErr error
		op, callErr = c.api.batchProcess(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit batch: %w", err)
	}

	c.log.Info("Batch submitted", "operation", op.Name(), "documents", len(docs), "output", outputURI)
	return &Job{op: op}, nil
}

// Poll checks the job once without blocking until completion.
// A job that finished with an error returns that error alongside its status.
func (c *Client) Poll(ctx context.Context, job *Job) (*JobStatus, error) {
	var pollErr error
	err := c.retry.Do(ctx, c.log, func(ctx context.Context) error {
		_, pollErr = job.op.Poll(ctx)
		if job.op.Done() {
			// Operation-level failures are final, not transport errors
			return nil
		}
		return pollErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to poll job %s: %w", job.Name(), err)
	}

	st := jobStatus(job.op)
	c.log.Debug("Polled job", "operation", st.Name, "done", st.Done, "state", st.State)
	if st.Done && pollErr != nil {
		return st, fmt.Errorf("job %s failed: %w", st.Name, pollErr)
	}
	return st, nil
}

// Wait blocks until the job finishes or ctx is done
func (c *Client) Wait(ctx context.Context, job *Job) (*JobStatus, error) {
	_, err := job.op.Wait(ctx)
	st := jobStatus(job.op)
	if err != nil {
		return st, fmt.Errorf("job %s failed: %w", st.Name, err)
	}
	c.log.Info("Batch finished", "operation", st.Name, "state", st.State, "outputs", len(st.Outputs))
	return st, nil
}

func jobStatus(op batchOperation) *JobStatus {
	st := &JobStatus{Name: op.Name(), Done: op.Done()}

	meta, err := op.Metadata()
	if err != nil || meta == nil {
		return st
	}
	st.State = meta.GetState().String()
	st.Message = meta.GetStateMessage()
	for _, ind := range meta.GetIndividualProcessStatuses() {
		if dest := ind.GetOutputGcsDestination(); dest != "" {
			st.Outputs = append(st.Outputs, dest)
		}
	}
	return st
}
