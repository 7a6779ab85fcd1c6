package repository

import (
	"context"
	"errors"

	"chunkvault/internal/model"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("record not found")

// FileRepository records assembled files. SQL only, no business logic.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByFilename returns the record for an assembled file name.
	FindByFilename(ctx context.Context, filename string) (*model.File, error)

	// List returns a page of records, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.File], error)

	// Delete removes a record by filename. A missing row is not an error.
	Delete(ctx context.Context, filename string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// Nop is used when no registry database is configured: writes succeed and
// nothing is ever found.
type Nop struct{}

var _ FileRepository = Nop{}

func (Nop) Create(_ context.Context, f *model.File) (*model.File, error) { return f, nil }

func (Nop) FindByFilename(context.Context, string) (*model.File, error) { return nil, ErrNotFound }

func (Nop) List(context.Context, PageQuery) (*PageResult[model.File], error) {
	return &PageResult[model.File]{Items: []model.File{}}, nil
}

func (Nop) Delete(context.Context, string) error { return nil }
