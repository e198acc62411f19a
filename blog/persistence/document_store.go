package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dfryer1193/weblog/blog/domain"
)

var _ domain.DocumentStore = (*FileDocumentStore)(nil)

// FileDocumentStore reads and writes markdown documents on the local filesystem.
type FileDocumentStore struct{}

func NewFileDocumentStore() *FileDocumentStore {
	return &FileDocumentStore{}
}

func (s *FileDocumentStore) ReadDocument(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", domain.ErrDocument, path, err)
	}
	return string(content), nil
}

// WriteDocument replaces the file at path through a temp file and rename, so readers never see a partial write.
func (s *FileDocumentStore) WriteDocument(ctx context.Context, path string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file for %s: %v", domain.ErrDocument, path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write %s: %v", domain.ErrDocument, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write %s: %v", domain.ErrDocument, path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to set mode on %s: %v", domain.ErrDocument, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to replace %s: %v", domain.ErrDocument, path, err)
	}

	return nil
}
