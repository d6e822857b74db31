package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marlinspike/mistral-doc-ai/internal/port"
)

// MockDocumentOCR is a mock implementation of port.DocumentOCR.
type MockDocumentOCR struct {
	mock.Mock
}

func (m *MockDocumentOCR) Process(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OCROutput), args.Error(1)
}
