package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marlinspike/mistral-doc-ai/internal/domain"
	"github.com/marlinspike/mistral-doc-ai/internal/service"
)

// MockBatchService is a mock implementation of service.BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Process(ctx context.Context, candidates []domain.UploadCandidate, combine bool) (*service.BatchOutput, error) {
	args := m.Called(ctx, candidates, combine)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchOutput), args.Error(1)
}
