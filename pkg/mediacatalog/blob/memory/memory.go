package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

// URLScheme prefixes the URLs handed out by the in-memory backend
const URLScheme = "memory://"

// Object is a stored blob and its MIME type
type Object struct {
	Data     []byte
	MimeType string
}

// Backend is an in-memory implementation of the mediacatalog.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]Object),
	}
}

// Store keeps the content in memory and returns a memory:// URL
func (b *Backend) Store(ctx context.Context, namespace string, reader io.Reader, params mediacatalog.StoreParams) (string, error) {
	if params.ObjectKey == "" {
		return "", errors.New("object key is required")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	key := objectPath(namespace, params.ObjectKey)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = Object{Data: data, MimeType: mimeType}
	return URLScheme + key, nil
}

// Delete removes content from memory
func (b *Backend) Delete(ctx context.Context, namespace, objectKey string) error {
	key := objectPath(namespace, objectKey)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; !exists {
		return errors.New("object not found")
	}
	delete(b.objects, key)
	return nil
}

// Get returns a stored object by the URL Store returned
func (b *Backend) Get(url string) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[strings.TrimPrefix(url, URLScheme)]
	return obj, ok
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

func objectPath(namespace, objectKey string) string {
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		return objectKey
	}
	return namespace + "/" + objectKey
}
