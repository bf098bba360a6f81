package object

import (
	"context"
	"io"
)

// Well-known subdirectories inside the uploads root.
const (
	DirLogos = "logos"
	DirFiles = "files"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
// Storage keys are relative paths inside the uploads root, e.g. "files/<name>".
type ObjectStore interface {
	Save(ctx context.Context, dir string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Remove(ctx context.Context, storageKey string) error
}
