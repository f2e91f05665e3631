package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotExist is returned by Read for names that were never saved.
var ErrNotExist = errors.New("storage: file does not exist")

// FileStore keeps the original PDFs keyed by filename.
type FileStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// SafeFilename strips directories so a name can never escape the store.
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
