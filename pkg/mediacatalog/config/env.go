package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	s3blob "github.com/tendant/media-catalog/pkg/mediacatalog/blob/s3"
)

// envConfig lists the environment variables WithEnv reads. Unset or empty
// variables leave the corresponding setting untouched, so numbers and flags
// are read as text and parsed here.
type envConfig struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"`

	DataFile       string `env:"DATA_FILE"`
	DataFileIndent string `env:"DATA_FILE_INDENT"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DatabaseTable  string `env:"DATABASE_TABLE"`

	StorageURL      string `env:"STORAGE_URL"`
	PublicURLPrefix string `env:"PUBLIC_URL_PREFIX"`

	PosterFolder    string `env:"POSTER_FOLDER"`
	PosterMaxWidth  string `env:"POSTER_MAX_WIDTH"`
	ObjectKeyLayout string `env:"OBJECT_KEY_LAYOUT"`
	MaxUploadBytes  string `env:"MAX_UPLOAD_BYTES"`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
	S3UsePathStyle     string `env:"S3_USE_PATH_STYLE"`
	S3CreateBucket     string `env:"S3_CREATE_BUCKET"`
}

// WithEnv applies environment variable overrides.
//
// Server:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//
// Record store:
//
//	DATABASE_URL - "postgres://..." or "postgresql://..." selects postgres, "memory" keeps
//	               the collection in memory. Takes precedence over DATA_FILE.
//	DATABASE_TABLE - Snapshot table name for postgres
//	DATA_FILE - JSON file holding the collection (default: "data/media.json")
//	DATA_FILE_INDENT - Pretty-print the JSON file
//
// Blob store:
//
//	STORAGE_URL - one of:
//	              - "memory://" - In-memory storage
//	              - "file:///path/to/public" - Filesystem storage (default: "public")
//	              - "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true"
//	PUBLIC_URL_PREFIX - URL prefix posters are served under (default: "/public")
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION, S3_ENDPOINT, S3_USE_PATH_STYLE,
//	S3_CREATE_BUCKET - S3 settings
//
// Posters:
//
//	POSTER_FOLDER - Blob namespace for posters
//	POSTER_MAX_WIDTH - Downscale wider posters, 0 disables resizing
//	OBJECT_KEY_LAYOUT - "entry" or "git-like"
//	MAX_UPLOAD_BYTES - Upload size limit
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}

		if err := applyRecordStoreEnv(env, c); err != nil {
			return err
		}
		if err := applyBlobStoreEnv(env, c); err != nil {
			return err
		}

		if env.PosterFolder != "" {
			c.PosterFolder = env.PosterFolder
		}
		if env.PosterMaxWidth != "" {
			width, err := strconv.ParseUint(env.PosterMaxWidth, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid integer for POSTER_MAX_WIDTH: %w", err)
			}
			c.PosterMaxWidth = uint(width)
		}
		if env.ObjectKeyLayout != "" {
			c.KeyLayout = env.ObjectKeyLayout
		}
		if env.MaxUploadBytes != "" {
			n, err := strconv.ParseInt(env.MaxUploadBytes, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer for MAX_UPLOAD_BYTES: %w", err)
			}
			c.MaxUploadBytes = n
		}

		return nil
	}
}

// applyRecordStoreEnv applies record store configuration from environment
func applyRecordStoreEnv(env envConfig, c *ServerConfig) error {
	indent, err := parseBool("DATA_FILE_INDENT", env.DataFileIndent)
	if err != nil {
		return err
	}

	switch {
	case env.DatabaseURL == "memory":
		c.RecordStore = RecordStoreConfig{Type: RecordStoreMemory}
	case strings.HasPrefix(env.DatabaseURL, "postgres://"), strings.HasPrefix(env.DatabaseURL, "postgresql://"):
		c.RecordStore = RecordStoreConfig{
			Type:        RecordStorePostgres,
			DatabaseURL: env.DatabaseURL,
			Table:       env.DatabaseTable,
		}
	case env.DatabaseURL != "":
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", env.DatabaseURL)
	case env.DataFile != "":
		c.RecordStore = RecordStoreConfig{Type: RecordStoreFile, Path: env.DataFile, Indent: indent}
	case indent && c.RecordStore.Type == RecordStoreFile:
		c.RecordStore.Indent = true
	}
	return nil
}

// applyBlobStoreEnv applies blob store configuration from environment
func applyBlobStoreEnv(env envConfig, c *ServerConfig) error {
	if env.StorageURL != "" {
		u, err := url.Parse(env.StorageURL)
		if err != nil {
			return fmt.Errorf("invalid STORAGE_URL: %w", err)
		}

		switch u.Scheme {
		case "memory":
			c.BlobStore = BlobStoreConfig{Type: BlobStoreMemory}
		case "file":
			dir := u.Host + u.Path
			if dir == "" {
				return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
			}
			prefix := DefaultPosterURLPrefix
			if c.BlobStore.Type == BlobStoreFS && c.BlobStore.URLPrefix != "" {
				prefix = c.BlobStore.URLPrefix
			}
			c.BlobStore = BlobStoreConfig{Type: BlobStoreFS, BaseDir: dir, URLPrefix: prefix}
		case "s3":
			s3cfg, err := s3ConfigFromURL(u, env)
			if err != nil {
				return err
			}
			c.BlobStore = BlobStoreConfig{Type: BlobStoreS3, S3: s3cfg}
		default:
			return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", env.StorageURL)
		}
	}

	if env.PublicURLPrefix != "" {
		c.BlobStore.URLPrefix = env.PublicURLPrefix
		if c.BlobStore.Type == BlobStoreS3 {
			c.BlobStore.S3.PublicBaseURL = env.PublicURLPrefix
		}
	}
	return nil
}

// s3ConfigFromURL builds the S3 settings for s3://bucket?region=...
func s3ConfigFromURL(u *url.URL, env envConfig) (s3blob.Config, error) {
	if u.Host == "" {
		return s3blob.Config{}, fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}
	q := u.Query()

	pathStyle, err := parseBool("S3_USE_PATH_STYLE", env.S3UsePathStyle)
	if err != nil {
		return s3blob.Config{}, err
	}
	createBucket, err := parseBool("S3_CREATE_BUCKET", env.S3CreateBucket)
	if err != nil {
		return s3blob.Config{}, err
	}

	s3cfg := s3blob.Config{
		Bucket:                 u.Host,
		Region:                 "us-east-1",
		AccessKeyID:            env.AWSAccessKeyID,
		SecretAccessKey:        env.AWSSecretAccessKey,
		Endpoint:               env.S3Endpoint,
		UsePathStyle:           pathStyle,
		CreateBucketIfNotExist: createBucket,
	}
	if env.AWSRegion != "" {
		s3cfg.Region = env.AWSRegion
	}
	if v := q.Get("region"); v != "" {
		s3cfg.Region = v
	}
	if v := q.Get("endpoint"); v != "" {
		s3cfg.Endpoint = v
	}
	if v := q.Get("path_style"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s3blob.Config{}, fmt.Errorf("invalid path_style in STORAGE_URL: %w", err)
		}
		s3cfg.UsePathStyle = b
	}
	return s3cfg, nil
}

func parseBool(key, raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return b, nil
}
