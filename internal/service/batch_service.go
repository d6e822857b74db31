package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/marlinspike/mistral-doc-ai/internal/domain"
	"github.com/marlinspike/mistral-doc-ai/internal/port"
	"github.com/marlinspike/mistral-doc-ai/internal/validator"
)

// BatchConfig holds orchestration settings for batch processing.
type BatchConfig struct {
	MaxFiles         int
	MaxFileSizeBytes int64
	MaxConcurrency   int64
}

// ValidationError carries the full issue list for a rejected batch. The
// batch is rejected whole so the caller can fix everything before
// resubmitting.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "batch rejected: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrBatchRejected
}

// BatchOutput is the assembled outcome of one batch.
type BatchOutput struct {
	Results []domain.OCRResult
	// Combined is a single markdown document over all files, populated only
	// when the caller requested combined output.
	Combined string
}

// BatchService orchestrates OCR over a batch of uploads.
type BatchService interface {
	Process(ctx context.Context, candidates []domain.UploadCandidate, combine bool) (*BatchOutput, error)
}

type batchService struct {
	ocrClient port.DocumentOCR
	cfg       BatchConfig
	// sem bounds in-flight provider calls across all batches, not just one,
	// since the provider rate limit is per deployment.
	sem *semaphore.Weighted
}

// NewBatchService creates a BatchService implementation.
func NewBatchService(ocrClient port.DocumentOCR, cfg BatchConfig) BatchService {
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	return &batchService{
		ocrClient: ocrClient,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(concurrency),
	}
}

// Process validates the batch, fans out one task per file under the
// concurrency limit, and assembles results in submission order. A file's
// failure becomes its result's error string and never affects sibling
// files. A canceled context yields no result list.
func (s *batchService) Process(ctx context.Context, candidates []domain.UploadCandidate, combine bool) (*BatchOutput, error) {
	issues := validator.Validate(candidates, validator.Policy{
		MaxFiles:         s.cfg.MaxFiles,
		MaxFileSizeBytes: s.cfg.MaxFileSizeBytes,
	})
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	log.Printf("batchService.Process: dispatching %d files (combine=%v)", len(candidates), combine)

	// Results are indexed by submission position so completion order never
	// matters and workers never share an append target.
	results := make([]domain.OCRResult, len(candidates))
	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(idx int, cand domain.UploadCandidate) {
			defer wg.Done()
			results[idx] = s.processOne(ctx, cand)
		}(i, candidates[i])
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBatchCanceled, ctx.Err())
	}

	out := &BatchOutput{Results: results}
	if combine {
		out.Combined = combineResults(results)
	}
	return out, nil
}

func (s *batchService) processOne(ctx context.Context, cand domain.UploadCandidate) domain.OCRResult {
	result := domain.OCRResult{
		ID:       uuid.New().String(),
		Filename: cand.Filename,
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		msg := errorMessage(fmt.Errorf("%w: %v", domain.ErrBatchCanceled, err))
		result.Error = &msg
		return result
	}
	defer s.sem.Release(1)

	out, err := s.ocrClient.Process(ctx, port.OCRInput{
		Filename: cand.Filename,
		MimeType: cand.MimeType,
		Bytes:    cand.Bytes,
	})
	if err != nil {
		log.Printf("batchService.processOne: OCR failed for %s: %v", cand.Filename, err)
		msg := errorMessage(err)
		result.Error = &msg
		return result
	}

	if out.Text != "" {
		result.Text = &out.Text
	}
	if out.Markdown != "" {
		result.Markdown = &out.Markdown
	}
	return result
}

// errorMessage maps a task failure to the string surfaced on its result.
// Auth failures are passed through verbatim to help diagnose header-style
// misconfiguration.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		return err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return "OCR provider rate limit exceeded; retries exhausted."
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "OCR provider unavailable; retries exhausted."
	case errors.Is(err, domain.ErrMalformedResponse):
		return "OCR provider returned an unreadable response."
	case errors.Is(err, domain.ErrEmptyExtraction):
		return "No text could be extracted from this document."
	case errors.Is(err, domain.ErrBatchCanceled):
		return "Batch was canceled before this file completed."
	default:
		return "OCR request failed: " + err.Error()
	}
}

// combineResults joins per-file output into one markdown document with a
// heading per file, in submission order. Failed files are annotated in
// place rather than dropped.
func combineResults(results []domain.OCRResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", r.Filename)
		switch {
		case r.Error != nil:
			fmt.Fprintf(&b, "_%s_", *r.Error)
		case r.Markdown != nil:
			b.WriteString(*r.Markdown)
		case r.Text != nil:
			b.WriteString(*r.Text)
		}
	}
	return b.String()
}
