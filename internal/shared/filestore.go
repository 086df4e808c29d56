package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore saves uploaded attachments under a base directory with generated
// names so user-supplied filenames never touch the filesystem.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Save writes src to a new file named by a fresh uuid, keeping only the
// original extension. It returns the stored file's path relative to the base
// directory.
func (s *FileStore) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return name, nil
}

// Remove deletes a stored file by its relative name. Missing files are not an
// error so cleanup after failed creates can be unconditional.
func (s *FileStore) Remove(name string) error {
	err := os.Remove(filepath.Join(s.baseDir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Open returns a reader for a stored file.
func (s *FileStore) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.baseDir, filepath.Base(name)))
}
