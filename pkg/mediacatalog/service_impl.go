package mediacatalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/media-catalog/pkg/mediacatalog/objectkey"
)

// DefaultPosterFolder is the blob namespace posters are stored under
const DefaultPosterFolder = "media-catalog/posters"

// service implements the Service interface
type service struct {
	records      RecordStore
	blobs        BlobStore
	posters      PosterProcessor
	keys         KeyGenerator
	posterFolder string
	clock        func() time.Time
	newID        IDGenerator
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRecordStore sets the store the collection is persisted to
func WithRecordStore(store RecordStore) Option {
	return func(s *service) {
		s.records = store
	}
}

// WithBlobStore sets the store uploaded posters are written to
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithPosterProcessor sets a processor applied to posters before storage
func WithPosterProcessor(p PosterProcessor) Option {
	return func(s *service) {
		s.posters = p
	}
}

// WithKeyGenerator sets how poster object keys are built
func WithKeyGenerator(g KeyGenerator) Option {
	return func(s *service) {
		s.keys = g
	}
}

// WithPosterFolder sets the blob namespace for posters
func WithPosterFolder(folder string) Option {
	return func(s *service) {
		s.posterFolder = strings.Trim(folder, "/")
	}
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		s.clock = clock
	}
}

// WithIDGenerator overrides how entry and review ids are generated
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *service) {
		s.newID = gen
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		posterFolder: DefaultPosterFolder,
		clock:        func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.NewString() },
		keys:         objectkey.NewEntryGenerator(),
	}

	for _, option := range options {
		option(s)
	}

	if s.records == nil {
		return nil, fmt.Errorf("record store is required")
	}

	return s, nil
}

func (s *service) load(ctx context.Context) (Collection, error) {
	c, err := s.records.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}

func (s *service) save(ctx context.Context, c Collection) error {
	if err := s.records.Save(ctx, c); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	return nil
}

// Entry operations

func (s *service) ListMedia(ctx context.Context, category string) (Collection, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.List(category), nil
}

func (s *service) GetMedia(ctx context.Context, id string) (*MediaEntry, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	e, err := c.GetByID(id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *service) CreateMedia(ctx context.Context, fields Fields) (*MediaEntry, error) {
	if err := EntrySchema.Validate(fields); err != nil {
		return nil, err
	}
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	next, entry, err := c.Create(fields, s.newID, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	slog.Debug("Media entry created", "id", entry.ID)
	return &entry, nil
}

func (s *service) UpdateMedia(ctx context.Context, id string, fields Fields) (Collection, error) {
	if err := EntrySchema.Validate(fields); err != nil {
		return nil, err
	}
	return s.mutate(ctx, func(c Collection) (Collection, error) {
		next, _, err := c.Update(id, fields, s.clock())
		return next, err
	})
}

func (s *service) DeleteMedia(ctx context.Context, id string) (Collection, error) {
	return s.mutate(ctx, func(c Collection) (Collection, error) {
		return c.Remove(id)
	})
}

// Review operations

func (s *service) ListReviews(ctx context.Context, id string) ([]Review, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.ListReviews(id)
}

func (s *service) GetReview(ctx context.Context, id, reviewID string) (*Review, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	r, err := c.GetReview(id, reviewID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *service) AddReview(ctx context.Context, id string, fields Fields) (Collection, error) {
	if err := ReviewSchema.Validate(fields); err != nil {
		return nil, err
	}
	return s.mutate(ctx, func(c Collection) (Collection, error) {
		next, _, err := c.AddReview(id, fields, s.newID, s.clock())
		return next, err
	})
}

func (s *service) UpdateReview(ctx context.Context, id, reviewID string, fields Fields) (Collection, error) {
	if err := ReviewSchema.Validate(fields); err != nil {
		return nil, err
	}
	return s.mutate(ctx, func(c Collection) (Collection, error) {
		next, _, err := c.UpdateReview(id, reviewID, fields, s.clock())
		return next, err
	})
}

func (s *service) DeleteReview(ctx context.Context, id, reviewID string) (Collection, error) {
	return s.mutate(ctx, func(c Collection) (Collection, error) {
		return c.RemoveReview(id, reviewID)
	})
}

// mutate runs one load-apply-save cycle. Nothing is saved when apply fails.
func (s *service) mutate(ctx context.Context, apply func(Collection) (Collection, error)) (Collection, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := apply(c)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Poster upload

func (s *service) UploadPoster(ctx context.Context, id string, reader io.Reader, req UploadPosterRequest) (Collection, error) {
	if s.blobs == nil {
		return nil, &UploadError{EntryID: id, Err: errors.New("no blob store configured")}
	}

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.GetByID(id); err != nil {
		return nil, err
	}

	body, mimeType := reader, req.MimeType
	if s.posters != nil {
		body, mimeType, err = s.posters.Process(ctx, reader, req.MimeType)
		if err != nil {
			return nil, &UploadError{EntryID: id, Err: fmt.Errorf("process poster: %w", err)}
		}
	}

	key := s.keys.GenerateKey(id, req.FileName)
	url, err := s.blobs.Store(ctx, s.posterFolder, body, StoreParams{
		ObjectKey: key,
		FileName:  req.FileName,
		MimeType:  mimeType,
	})
	if err != nil {
		return nil, &UploadError{EntryID: id, Err: err}
	}

	next, err := c.SetPoster(id, url, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next); err != nil {
		if delErr := s.blobs.Delete(ctx, s.posterFolder, key); delErr != nil {
			slog.Warn("Failed to remove orphaned poster", "entry_id", id, "key", key, "error", delErr)
		}
		return nil, err
	}
	slog.Info("Poster uploaded", "entry_id", id, "url", url)
	return next, nil
}
