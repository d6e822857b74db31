package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlinspike/mistral-doc-ai/internal/domain"
	"github.com/marlinspike/mistral-doc-ai/internal/port"
	"github.com/marlinspike/mistral-doc-ai/internal/service"
)

// ocrFunc adapts a function to port.DocumentOCR.
type ocrFunc func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error)

func (f ocrFunc) Process(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
	return f(ctx, input)
}

func testBatchConfig() service.BatchConfig {
	return service.BatchConfig{
		MaxFiles:         10,
		MaxFileSizeBytes: 5 * 1024 * 1024,
		MaxConcurrency:   3,
	}
}

func pdfCandidates(n int) []domain.UploadCandidate {
	out := make([]domain.UploadCandidate, n)
	for i := range out {
		out[i] = domain.UploadCandidate{
			Filename: fmt.Sprintf("doc-%02d.pdf", i),
			MimeType: "application/pdf",
			Size:     64,
			Bytes:    []byte("%PDF-1.4"),
		}
	}
	return out
}

func TestBatchService_Process_OrderAndCount(t *testing.T) {
	// Completion order is scrambled by per-file delays; result order must
	// still match submission order.
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		time.Sleep(time.Duration(len(input.Filename)%3) * time.Millisecond)
		return &port.OCROutput{Text: "content of " + input.Filename}, nil
	})
	svc := service.NewBatchService(client, testBatchConfig())

	candidates := pdfCandidates(8)
	out, err := svc.Process(context.Background(), candidates, false)

	require.NoError(t, err)
	require.Len(t, out.Results, len(candidates))
	for i, r := range out.Results {
		assert.Equal(t, candidates[i].Filename, r.Filename)
		require.NotNil(t, r.Text)
		assert.Equal(t, "content of "+candidates[i].Filename, *r.Text)
		assert.Nil(t, r.Error)
		assert.NotEmpty(t, r.ID)
	}
}

func TestBatchService_Process_RejectsInvalidBatchWithoutCalls(t *testing.T) {
	var calls atomic.Int32
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		calls.Add(1)
		return &port.OCROutput{Text: "x"}, nil
	})
	svc := service.NewBatchService(client, testBatchConfig())

	out, err := svc.Process(context.Background(), pdfCandidates(11), false)

	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrBatchRejected)
	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NotEmpty(t, vErr.Issues)
	assert.Equal(t, int32(0), calls.Load())
}

func TestBatchService_Process_OversizedFileRejectsWholeBatch(t *testing.T) {
	var calls atomic.Int32
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		calls.Add(1)
		return &port.OCROutput{Text: "x"}, nil
	})
	svc := service.NewBatchService(client, testBatchConfig())

	candidates := pdfCandidates(3)
	candidates[1].Size = 6 * 1024 * 1024

	out, err := svc.Process(context.Background(), candidates, false)

	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, int32(0), calls.Load())
}

func TestBatchService_Process_FailureIsolation(t *testing.T) {
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		if input.Filename == "doc-01.pdf" {
			return nil, fmt.Errorf("status 429: %w", domain.ErrRateLimited)
		}
		return &port.OCROutput{Markdown: "# " + input.Filename}, nil
	})
	svc := service.NewBatchService(client, testBatchConfig())

	out, err := svc.Process(context.Background(), pdfCandidates(3), false)

	require.NoError(t, err)
	require.Len(t, out.Results, 3)

	assert.Nil(t, out.Results[0].Error)
	assert.NotNil(t, out.Results[0].Markdown)

	require.NotNil(t, out.Results[1].Error)
	assert.Contains(t, *out.Results[1].Error, "rate limit")
	assert.Nil(t, out.Results[1].Markdown)

	assert.Nil(t, out.Results[2].Error)
}

func TestBatchService_Process_ErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", domain.ErrRateLimited, "rate limit exceeded"},
		{"unavailable", domain.ErrUpstreamUnavailable, "unavailable"},
		{"malformed", domain.ErrMalformedResponse, "unreadable response"},
		{"empty extraction", domain.ErrEmptyExtraction, "No text could be extracted"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
				return nil, fmt.Errorf("wrapped: %w", tc.err)
			})
			svc := service.NewBatchService(client, testBatchConfig())

			out, err := svc.Process(context.Background(), pdfCandidates(1), false)

			require.NoError(t, err)
			require.NotNil(t, out.Results[0].Error)
			assert.Contains(t, *out.Results[0].Error, tc.want)
		})
	}
}

func TestBatchService_Process_AuthErrorSurfacedVerbatim(t *testing.T) {
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		return nil, fmt.Errorf("OCR request failed with status 401: bad key: %w", domain.ErrAuthFailed)
	})
	svc := service.NewBatchService(client, testBatchConfig())

	out, err := svc.Process(context.Background(), pdfCandidates(1), false)

	require.NoError(t, err)
	require.NotNil(t, out.Results[0].Error)
	assert.Contains(t, *out.Results[0].Error, "status 401")
	assert.Contains(t, *out.Results[0].Error, "bad key")
}

func TestBatchService_Process_ConcurrencyBounded(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return &port.OCROutput{Text: "ok"}, nil
	})
	svc := service.NewBatchService(client, testBatchConfig())

	out, err := svc.Process(context.Background(), pdfCandidates(10), false)

	require.NoError(t, err)
	assert.Len(t, out.Results, 10)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 3)
	assert.Greater(t, peak, 0)
}

func TestBatchService_Process_CancellationYieldsNoResults(t *testing.T) {
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc := service.NewBatchService(client, testBatchConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	out, err := svc.Process(ctx, pdfCandidates(5), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBatchCanceled)
	assert.Nil(t, out)
}

func TestBatchService_Process_LimiterReleasedAfterCancellation(t *testing.T) {
	// A canceled batch must release its slots so the same service instance
	// can run the next batch.
	var blocking atomic.Bool
	blocking.Store(true)
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		if blocking.Load() {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &port.OCROutput{Text: "ok"}, nil
	})
	svc := service.NewBatchService(client, testBatchConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := svc.Process(ctx, pdfCandidates(10), false)
	require.ErrorIs(t, err, domain.ErrBatchCanceled)

	blocking.Store(false)
	out, err := svc.Process(context.Background(), pdfCandidates(3), false)
	require.NoError(t, err)
	assert.Len(t, out.Results, 3)
}

func TestBatchService_Process_CombinedOutput(t *testing.T) {
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		if input.Filename == "doc-01.pdf" {
			return nil, fmt.Errorf("boom: %w", domain.ErrUpstreamUnavailable)
		}
		return &port.OCROutput{Markdown: "body of " + input.Filename}, nil
	})
	svc := service.NewBatchService(client, testBatchConfig())

	out, err := svc.Process(context.Background(), pdfCandidates(3), true)

	require.NoError(t, err)
	require.NotEmpty(t, out.Combined)
	assert.Contains(t, out.Combined, "## doc-00.pdf")
	assert.Contains(t, out.Combined, "body of doc-00.pdf")
	assert.Contains(t, out.Combined, "## doc-01.pdf")
	assert.Contains(t, out.Combined, "unavailable")
	// sections appear in submission order
	assert.Less(t,
		indexOf(out.Combined, "## doc-00.pdf"),
		indexOf(out.Combined, "## doc-02.pdf"),
	)
}

func TestBatchService_Process_NoCombinedWhenNotRequested(t *testing.T) {
	client := ocrFunc(func(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
		return &port.OCROutput{Text: "ok"}, nil
	})
	svc := service.NewBatchService(client, testBatchConfig())

	out, err := svc.Process(context.Background(), pdfCandidates(2), false)

	require.NoError(t, err)
	assert.Empty(t, out.Combined)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
