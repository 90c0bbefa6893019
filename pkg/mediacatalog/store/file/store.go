package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

const lockRetryDelay = 20 * time.Millisecond

// Config options for the file record store
type Config struct {
	Path   string // JSON file holding the collection
	Indent bool   // Pretty-print the file
}

// Store keeps the collection in a single JSON file. Saves write a temp file
// in the same directory and rename it over the target, so a concurrent Load
// sees either the old or the new document. The lock file serializes writers
// across processes; it is not held between a Load and the following Save.
type Store struct {
	mu     sync.Mutex
	path   string
	indent bool
	lock   *flock.Flock
}

// New creates a file record store, creating the parent directory if needed
func New(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, errors.New("data file path is required")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Store{
		path:   config.Path,
		indent: config.Indent,
		lock:   flock.New(config.Path + ".lock"),
	}, nil
}

// Path returns the data file location
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) (mediacatalog.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return mediacatalog.Collection{}, nil
	} else if err != nil {
		return nil, s.storageError("load", err)
	}

	c := mediacatalog.Collection{}
	if len(bytes.TrimSpace(b)) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, s.storageError("load", fmt.Errorf("parse %s: %w", s.path, err))
	}
	return c, nil
}

func (s *Store) Save(ctx context.Context, c mediacatalog.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		c = mediacatalog.Collection{}
	}

	var b []byte
	var err error
	if s.indent {
		b, err = json.MarshalIndent(c, "", "  ")
	} else {
		b, err = json.Marshal(c)
	}
	if err != nil {
		return s.storageError("save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return s.storageError("save", fmt.Errorf("acquire lock: %w", err))
	}
	if !locked {
		return s.storageError("save", errors.New("acquire lock: not acquired"))
	}
	defer s.lock.Unlock()

	if err := s.writeAtomic(b); err != nil {
		return s.storageError("save", err)
	}
	return nil
}

func (s *Store) writeAtomic(b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

func (s *Store) storageError(op string, err error) error {
	return &mediacatalog.StorageError{Backend: "file", Op: op, Err: err}
}
