package postgres

import (
	"context"
	"database/sql"
	"errors"

	"chunkvault/internal/model"
	"chunkvault/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, filename, size, content_type, chunks, created_at`

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO assembled_files (id, filename, size, content_type, chunks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.Filename,
		f.Size,
		f.ContentType,
		f.Chunks,
		f.CreatedAt,
	)
	out, err := scanFile(row)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByFilename fetches a single file by its assembled name.
func (r *FilePostgres) FindByFilename(ctx context.Context, filename string) (*model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM assembled_files
		WHERE filename = $1
	`
	f, err := scanFile(r.db.QueryRowContext(ctx, q, filename))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// List returns files using LIMIT/OFFSET pagination and a total count.
func (r *FilePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.File], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM assembled_files`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT ` + fileColumns + `
		FROM assembled_files
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.File]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a file row. It does not return an error if the row does not exist.
func (r *FilePostgres) Delete(ctx context.Context, filename string) error {
	const q = `DELETE FROM assembled_files WHERE filename = $1`
	_, err := r.db.ExecContext(ctx, q, filename)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*model.File, error) {
	var f model.File
	if err := s.Scan(
		&f.ID,
		&f.Filename,
		&f.Size,
		&f.ContentType,
		&f.Chunks,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
