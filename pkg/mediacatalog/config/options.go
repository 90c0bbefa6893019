package config

import (
	"fmt"

	s3blob "github.com/tendant/media-catalog/pkg/mediacatalog/blob/s3"
	"github.com/tendant/media-catalog/pkg/mediacatalog/objectkey"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithMemoryRecordStore keeps the collection in memory only
func WithMemoryRecordStore() Option {
	return func(c *ServerConfig) error {
		c.RecordStore = RecordStoreConfig{Type: RecordStoreMemory}
		return nil
	}
}

// WithFileRecordStore persists the collection to a JSON file
func WithFileRecordStore(path string, indent bool) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return fmt.Errorf("data file path cannot be empty")
		}
		c.RecordStore = RecordStoreConfig{Type: RecordStoreFile, Path: path, Indent: indent}
		return nil
	}
}

// WithPostgresRecordStore persists the collection to a postgres table
func WithPostgresRecordStore(url, table string) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.RecordStore = RecordStoreConfig{Type: RecordStorePostgres, DatabaseURL: url, Table: table}
		return nil
	}
}

// WithMemoryBlobStore keeps uploaded posters in memory
func WithMemoryBlobStore() Option {
	return func(c *ServerConfig) error {
		c.BlobStore = BlobStoreConfig{Type: BlobStoreMemory}
		return nil
	}
}

// WithFilesystemBlobStore writes posters below baseDir, served under urlPrefix
func WithFilesystemBlobStore(baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.BlobStore = BlobStoreConfig{Type: BlobStoreFS, BaseDir: baseDir, URLPrefix: urlPrefix}
		return nil
	}
}

// WithS3BlobStore uploads posters to an S3-compatible bucket
func WithS3BlobStore(s3cfg s3blob.Config) Option {
	return func(c *ServerConfig) error {
		if s3cfg.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		c.BlobStore = BlobStoreConfig{Type: BlobStoreS3, URLPrefix: s3cfg.PublicBaseURL, S3: s3cfg}
		return nil
	}
}

// WithPosterFolder sets the blob namespace for posters
func WithPosterFolder(folder string) Option {
	return func(c *ServerConfig) error {
		c.PosterFolder = folder
		return nil
	}
}

// WithPosterMaxWidth sets the resize threshold. Zero disables resizing.
func WithPosterMaxWidth(width uint) Option {
	return func(c *ServerConfig) error {
		c.PosterMaxWidth = width
		return nil
	}
}

// WithObjectKeyLayout selects how poster object keys are built
func WithObjectKeyLayout(layout string) Option {
	return func(c *ServerConfig) error {
		if _, err := objectkey.New(layout); err != nil {
			return err
		}
		c.KeyLayout = layout
		return nil
	}
}

// WithMaxUploadBytes bounds the size of poster uploads
func WithMaxUploadBytes(n int64) Option {
	return func(c *ServerConfig) error {
		if n <= 0 {
			return fmt.Errorf("max upload bytes must be positive, got: %d", n)
		}
		c.MaxUploadBytes = n
		return nil
	}
}
