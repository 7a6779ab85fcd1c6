package mocks

import (
	"context"
	"io"

	"chunkvault/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) StoreChunk(ctx context.Context, sessionID string, index int, originalFilename string, r io.Reader, size int64) error {
	args := m.Called(ctx, sessionID, index, originalFilename, r, size)
	return args.Error(0)
}

func (m *MockUploadService) Merge(ctx context.Context, sessionID string) (*service.MergeResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MergeResult), args.Error(1)
}
