package mediacatalog

import (
	"context"
	"io"
)

// Service defines the catalog operations exposed to transports. Every call
// loads a fresh snapshot from the RecordStore; mutations save the whole
// resulting collection before returning it.
type Service interface {
	// Entry operations
	ListMedia(ctx context.Context, category string) (Collection, error)
	GetMedia(ctx context.Context, id string) (*MediaEntry, error)
	CreateMedia(ctx context.Context, fields Fields) (*MediaEntry, error)
	UpdateMedia(ctx context.Context, id string, fields Fields) (Collection, error)
	DeleteMedia(ctx context.Context, id string) (Collection, error)

	// Review operations
	ListReviews(ctx context.Context, id string) ([]Review, error)
	GetReview(ctx context.Context, id, reviewID string) (*Review, error)
	AddReview(ctx context.Context, id string, fields Fields) (Collection, error)
	UpdateReview(ctx context.Context, id, reviewID string, fields Fields) (Collection, error)
	DeleteReview(ctx context.Context, id, reviewID string) (Collection, error)

	// Poster upload
	UploadPoster(ctx context.Context, id string, reader io.Reader, req UploadPosterRequest) (Collection, error)
}

// UploadPosterRequest describes an uploaded poster file
type UploadPosterRequest struct {
	FileName string
	MimeType string
}
