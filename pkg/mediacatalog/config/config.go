package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
	fsblob "github.com/tendant/media-catalog/pkg/mediacatalog/blob/fs"
	memoryblob "github.com/tendant/media-catalog/pkg/mediacatalog/blob/memory"
	s3blob "github.com/tendant/media-catalog/pkg/mediacatalog/blob/s3"
	"github.com/tendant/media-catalog/pkg/mediacatalog/objectkey"
	"github.com/tendant/media-catalog/pkg/mediacatalog/poster"
	filestore "github.com/tendant/media-catalog/pkg/mediacatalog/store/file"
	memorystore "github.com/tendant/media-catalog/pkg/mediacatalog/store/memory"
	pgstore "github.com/tendant/media-catalog/pkg/mediacatalog/store/postgres"
)

// Record store types
const (
	RecordStoreMemory   = "memory"
	RecordStoreFile     = "file"
	RecordStorePostgres = "postgres"
)

// Blob store types
const (
	BlobStoreMemory = "memory"
	BlobStoreFS     = "fs"
	BlobStoreS3     = "s3"
)

// DefaultPosterURLPrefix is the route fs posters are served under
const DefaultPosterURLPrefix = "/public"

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		RecordStore: RecordStoreConfig{
			Type: RecordStoreFile,
			Path: "data/media.json",
		},
		BlobStore: BlobStoreConfig{
			Type:      BlobStoreFS,
			BaseDir:   "public",
			URLPrefix: DefaultPosterURLPrefix,
		},
		PosterFolder:   mediacatalog.DefaultPosterFolder,
		PosterMaxWidth: poster.DefaultMaxWidth,
		KeyLayout:      objectkey.LayoutEntry,
		MaxUploadBytes: 10 << 20,
	}
}

// ServerConfig represents server configuration for the media catalog
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	RecordStore RecordStoreConfig
	BlobStore   BlobStoreConfig

	// Poster handling
	PosterFolder   string // Blob namespace posters are stored under
	PosterMaxWidth uint   // Wider JPEG/PNG posters are downscaled; 0 disables resizing
	KeyLayout      string // Object key layout: "entry" or "git-like"
	MaxUploadBytes int64
}

// RecordStoreConfig selects where the collection is persisted
type RecordStoreConfig struct {
	Type        string // "memory", "file", "postgres"
	Path        string // JSON file for the file store
	Indent      bool   // Pretty-print the JSON file
	DatabaseURL string // Connection string for postgres
	Table       string // Snapshot table for postgres
}

// BlobStoreConfig selects where uploaded posters are written
type BlobStoreConfig struct {
	Type      string // "memory", "fs", "s3"
	BaseDir   string // Root directory for fs
	URLPrefix string // Public URL prefix for fs, or public base URL for s3
	S3        s3blob.Config
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.RecordStore.Type {
	case RecordStoreMemory:
	case RecordStoreFile:
		if c.RecordStore.Path == "" {
			return errors.New("data file path is required when using the file record store")
		}
	case RecordStorePostgres:
		if c.RecordStore.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	default:
		return fmt.Errorf("record store type must be 'memory', 'file' or 'postgres', got: %s", c.RecordStore.Type)
	}

	switch c.BlobStore.Type {
	case BlobStoreMemory:
	case BlobStoreFS:
		if c.BlobStore.BaseDir == "" {
			return errors.New("base directory is required when using the fs blob store")
		}
	case BlobStoreS3:
		if c.BlobStore.S3.Bucket == "" {
			return errors.New("bucket is required when using the s3 blob store")
		}
	default:
		return fmt.Errorf("blob store type must be 'memory', 'fs' or 's3', got: %s", c.BlobStore.Type)
	}

	if _, err := objectkey.New(c.KeyLayout); err != nil {
		return err
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (mediacatalog.Service, error) {
	var options []mediacatalog.Option

	records, err := c.BuildRecordStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build record store: %w", err)
	}
	options = append(options, mediacatalog.WithRecordStore(records))

	blobs, err := c.BuildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}
	options = append(options, mediacatalog.WithBlobStore(blobs))

	keys, err := objectkey.New(c.KeyLayout)
	if err != nil {
		return nil, err
	}
	options = append(options,
		mediacatalog.WithKeyGenerator(keys),
		mediacatalog.WithPosterFolder(c.PosterFolder),
	)

	if c.PosterMaxWidth > 0 {
		options = append(options, mediacatalog.WithPosterProcessor(poster.NewResizer(c.PosterMaxWidth)))
	}

	return mediacatalog.New(options...)
}

// BuildRecordStore creates the configured RecordStore. The postgres table is
// created when missing.
func (c *ServerConfig) BuildRecordStore(ctx context.Context) (mediacatalog.RecordStore, error) {
	switch c.RecordStore.Type {
	case RecordStoreMemory:
		return memorystore.New(), nil
	case RecordStoreFile:
		return filestore.New(filestore.Config{
			Path:   c.RecordStore.Path,
			Indent: c.RecordStore.Indent,
		})
	case RecordStorePostgres:
		pool, err := pgxpool.New(ctx, c.RecordStore.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		store := pgstore.NewWithPool(pool, c.RecordStore.Table)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported record store type: %s", c.RecordStore.Type)
	}
}

// BuildBlobStore creates the configured BlobStore
func (c *ServerConfig) BuildBlobStore() (mediacatalog.BlobStore, error) {
	switch c.BlobStore.Type {
	case BlobStoreMemory:
		return memoryblob.New(), nil
	case BlobStoreFS:
		return fsblob.New(fsblob.Config{
			BaseDir:   c.BlobStore.BaseDir,
			URLPrefix: c.BlobStore.URLPrefix,
		})
	case BlobStoreS3:
		s3cfg := c.BlobStore.S3
		if s3cfg.PublicBaseURL == "" {
			s3cfg.PublicBaseURL = c.BlobStore.URLPrefix
		}
		return s3blob.New(s3cfg)
	default:
		return nil, fmt.Errorf("unsupported blob store type: %s", c.BlobStore.Type)
	}
}

// StaticPosterMount reports the route prefix and directory to serve posters
// from. It applies only to the fs blob store with a path-only URL prefix.
func (c *ServerConfig) StaticPosterMount() (prefix, dir string, ok bool) {
	if c.BlobStore.Type != BlobStoreFS {
		return "", "", false
	}
	prefix = strings.TrimSuffix(c.BlobStore.URLPrefix, "/")
	if !strings.HasPrefix(prefix, "/") || strings.HasPrefix(prefix, "//") {
		return "", "", false
	}
	return prefix, c.BlobStore.BaseDir, true
}
