package mocks

import (
	"context"

	"chunkvault/internal/model"
	"chunkvault/internal/service"
	"chunkvault/internal/stream"
	"github.com/stretchr/testify/mock"
)

type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) Info(ctx context.Context, filename, token string) (*model.FileInfo, error) {
	args := m.Called(ctx, filename, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileInfo), args.Error(1)
}

func (m *MockContentService) Stream(ctx context.Context, filename, token, rangeHeader string) (*stream.Response, error) {
	args := m.Called(ctx, filename, token, rangeHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stream.Response), args.Error(1)
}

func (m *MockContentService) List(ctx context.Context, limit, offset int) (*service.FileListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockContentService) Delete(ctx context.Context, filename, token string) error {
	args := m.Called(ctx, filename, token)
	return args.Error(0)
}
