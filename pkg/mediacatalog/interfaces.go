package mediacatalog

import (
	"context"
	"io"
)

// RecordStore persists the whole collection as a single unit
type RecordStore interface {
	// Load reads the full collection. A store that was never written loads as
	// an empty collection.
	Load(ctx context.Context) (Collection, error)

	// Save replaces the persisted collection. A concurrent Load observes either
	// the previous or the new collection, never a mix.
	Save(ctx context.Context, c Collection) error
}

// BlobStore hosts uploaded files and hands back a public URL
type BlobStore interface {
	// Store writes the content under namespace/params.ObjectKey and returns the
	// URL clients use to fetch it.
	Store(ctx context.Context, namespace string, reader io.Reader, params StoreParams) (string, error)

	// Delete removes a previously stored object
	Delete(ctx context.Context, namespace, objectKey string) error
}

// StoreParams contains parameters for storing a blob
type StoreParams struct {
	ObjectKey string
	FileName  string
	MimeType  string
}

// PosterProcessor may rewrite an uploaded poster before it is stored
type PosterProcessor interface {
	// Process returns the content to store and its MIME type
	Process(ctx context.Context, reader io.Reader, mimeType string) (io.Reader, string, error)
}

// KeyGenerator builds the object key of a stored poster
type KeyGenerator interface {
	GenerateKey(entryID, fileName string) string
}

// IDGenerator returns a fresh identifier for entries and reviews
type IDGenerator func() string
