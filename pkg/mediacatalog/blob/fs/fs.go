package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

// Backend is a filesystem implementation of the mediacatalog.BlobStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Public URL prefix the base directory is served under
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	baseDir, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   baseDir,
		urlPrefix: strings.TrimSuffix(config.URLPrefix, "/"),
	}, nil
}

// BaseDir returns the absolute directory files are written to
func (b *Backend) BaseDir() string {
	return b.baseDir
}

// URLPrefix returns the configured public URL prefix
func (b *Backend) URLPrefix() string {
	return b.urlPrefix
}

// Store writes the content below the base directory and returns its public URL
func (b *Backend) Store(ctx context.Context, namespace string, reader io.Reader, params mediacatalog.StoreParams) (string, error) {
	rel, filePath, err := b.resolve(namespace, params.ObjectKey)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := writeFile(filePath, reader); err != nil {
		return "", err
	}

	return b.publicURL(rel, filePath), nil
}

// writeFile copies reader into a new file at path. A failed copy or close
// removes the partial file.
func writeFile(path string, reader io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, namespace, objectKey string) error {
	_, filePath, err := b.resolve(namespace, objectKey)
	if err != nil {
		return err
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return errors.New("object not found")
	}
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

// resolve maps namespace/objectKey to a slash separated relative path and an
// absolute file path inside the base directory
func (b *Backend) resolve(namespace, objectKey string) (string, string, error) {
	if objectKey == "" {
		return "", "", errors.New("object key is required")
	}
	rel := path.Clean("/" + path.Join(namespace, objectKey))[1:]
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(filePath, b.baseDir+string(filepath.Separator)) {
		return "", "", fmt.Errorf("object key escapes base directory: %s", objectKey)
	}
	return rel, filePath, nil
}

func (b *Backend) publicURL(rel, filePath string) string {
	if b.urlPrefix == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filePath)}).String()
	}
	return b.urlPrefix + "/" + rel
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir || !strings.HasPrefix(dir, b.baseDir) {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
