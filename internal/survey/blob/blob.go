// Package blob stores the images attached to detailed investigations. Blobs
// are opaque; the survey only keeps their keys.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

// Info 저장된 blob 정보
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is implemented by the in-memory and MinIO backends.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds an object key under the session's prefix, keeping the
// upload's extension.
func NewKey(sessionID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("sessions/%s/images/%s/%s%s", sessionID, time.Now().Format("2006/01/02"), uuid.New().String(), ext)
}
