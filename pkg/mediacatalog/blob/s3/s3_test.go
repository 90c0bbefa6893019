package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "posters",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		// May error due to environment, but not due to configuration
		if err != nil {
			assert.NotContains(t, err.Error(), "bucket name is required")
			return
		}
		assert.Equal(t, "us-east-1", backend.config.Region)
	})
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "public base url wins",
			config: Config{Bucket: "posters", Region: "eu-west-1", PublicBaseURL: "https://cdn.example.com/"},
			want:   "https://cdn.example.com/media/a.jpg",
		},
		{
			name:   "aws virtual hosted",
			config: Config{Bucket: "posters", Region: "eu-west-1"},
			want:   "https://posters.s3.eu-west-1.amazonaws.com/media/a.jpg",
		},
		{
			name:   "path style endpoint",
			config: Config{Bucket: "posters", Endpoint: "http://localhost:9000", UsePathStyle: true},
			want:   "http://localhost:9000/posters/media/a.jpg",
		},
		{
			name:   "virtual hosted endpoint",
			config: Config{Bucket: "posters", Endpoint: "https://storage.example.com"},
			want:   "https://posters.storage.example.com/media/a.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.config, "media/a.jpg"))
		})
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "a.jpg", objectKey("", "a.jpg"))
	assert.Equal(t, "posters/a.jpg", objectKey("/posters/", "a.jpg"))
}
