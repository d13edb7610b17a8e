// Package fsx dispatches file operations across local paths and s3://
// URIs behind one adapter interface, and produces presigned download
// URLs for object storage.
package fsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPresignExpiry matches the two-day link lifetime the serializer
// hands out.
const DefaultPresignExpiry = 48 * time.Hour

var (
	ErrUnsupportedURI      = errors.New("unsupported filesystem URI")
	ErrPresignNotSupported = errors.New("presigned URLs require an s3 URI")
)

type Entry struct {
	Path  string
	IsDir bool
	Size  int64
}

type Adapter interface {
	ReadBytes(ctx context.Context, uri string) ([]byte, error)
	WriteBytes(ctx context.Context, uri string, data []byte) error
	Exists(ctx context.Context, uri string) (bool, error)
	List(ctx context.Context, uri string) ([]Entry, error)
	Remove(ctx context.Context, uri string) error
	Size(ctx context.Context, uri string) (int64, error)
	PresignGet(ctx context.Context, uri string, expiry time.Duration) (string, error)
}

// IsS3URI reports whether uri addresses object storage.
func IsS3URI(uri string) bool {
	return strings.HasPrefix(uri, "s3://")
}

func splitS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	if rest == uri {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedURI, uri)
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedURI, uri)
	}
	return parts[0], parts[1], nil
}

// LocalAdapter serves plain filesystem paths.
type LocalAdapter struct{}

func (LocalAdapter) ReadBytes(_ context.Context, uri string) ([]byte, error) {
	return os.ReadFile(uri)
}

func (LocalAdapter) WriteBytes(_ context.Context, uri string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(uri), 0o755); err != nil {
		return err
	}
	return os.WriteFile(uri, data, 0o644)
}

func (LocalAdapter) Exists(_ context.Context, uri string) (bool, error) {
	_, err := os.Stat(uri)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (LocalAdapter) List(_ context.Context, uri string) ([]Entry, error) {
	dirents, err := os.ReadDir(uri)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		e := Entry{Path: filepath.Join(uri, d.Name()), IsDir: d.IsDir()}
		if info, err := d.Info(); err == nil && !d.IsDir() {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (LocalAdapter) Remove(_ context.Context, uri string) error {
	return os.Remove(uri)
}

func (LocalAdapter) Size(_ context.Context, uri string) (int64, error) {
	info, err := os.Stat(uri)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (LocalAdapter) PresignGet(_ context.Context, uri string, _ time.Duration) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrPresignNotSupported, uri)
}
