package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"chunkvault/internal/config"
)

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{name: "no endpoint", cfg: config.MinIOConfig{AccessKey: "a", SecretKey: "b", Bucket: "c"}, want: "endpoint"},
		{name: "no credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "c"}, want: "credentials"},
		{name: "no bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, want: "bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(tt.cfg)
			assert.Nil(t, s)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestMapMinIOError(t *testing.T) {
	assert.ErrorIs(t, mapMinIOError(minio.ErrorResponse{Code: "NoSuchKey"}), ErrNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapMinIOError(other))
}

func TestMinIO_InvalidKeysRejectedLocally(t *testing.T) {
	m := &minioStorage{bucket: "b"}

	_, err := m.Stat(t.Context(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, _, err = m.Open(t.Context(), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, m.Delete(t.Context(), ".hidden"), ErrInvalidKey)
}
