// Package storage persists uploaded poster images on local disk. Files are
// renamed to random hex strings so stored names are unguessable and never
// collide with or leak the client's original filename.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iliyamo/movie-collection/internal/utils"
)

// MaxPosterBytes caps uploads at 5MB.
const MaxPosterBytes = 5 * 1024 * 1024

// ErrBadExtension is returned for files that are not jpg/jpeg/png/gif.
var ErrBadExtension = errors.New("unsupported file extension")

// ErrTooLarge is returned for uploads exceeding MaxPosterBytes.
var ErrTooLarge = errors.New("file too large")

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// FileStore saves poster files under a base directory.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// SavePoster validates the extension and declared size, then writes the file
// under a random 32-hex-character name keeping the original extension. The
// returned name is relative to the base directory. The reader is also capped
// at MaxPosterBytes in case the declared size was wrong.
func (f *FileStore) SavePoster(originalName string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return "", ErrBadExtension
	}
	if size > MaxPosterBytes {
		return "", ErrTooLarge
	}

	name, err := utils.RandomHex(16) // 16 bytes -> 32 hex chars
	if err != nil {
		return "", fmt.Errorf("generate filename: %w", err)
	}
	name += ext

	target := filepath.Join(f.basePath, name)
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(r, MaxPosterBytes+1))
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	if n > MaxPosterBytes {
		_ = os.Remove(target)
		return "", ErrTooLarge
	}
	return name, nil
}

// Remove deletes a stored poster by its generated name. Missing files are
// not an error; the poster is gone either way.
func (f *FileStore) Remove(name string) error {
	name = filepath.Base(name)
	err := os.Remove(filepath.Join(f.basePath, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
