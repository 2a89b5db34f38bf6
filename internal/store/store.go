// Package store persists the module's state buckets as independent JSON
// documents with atomic write-replace semantics.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonesrussell/brand-studio/internal/logger"
)

// Bucket names. Each bucket is one file under the data directory.
const (
	BucketCandidates = "candidates_cache"
	BucketRuntime    = "runtime_state"
	BucketAccounts   = "accounts_state"
)

const dirPerm = 0o750

// Store reads and writes state buckets. Serialization of concurrent
// read-modify-write cycles on a bucket is the owning component's
// responsibility; the store only guarantees that an individual save is
// atomic on disk.
type Store struct {
	dir string
	log logger.Logger
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, log logger.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store: data directory is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Path returns the on-disk location of a bucket.
func (s *Store) Path(bucket string) string {
	return filepath.Join(s.dir, bucket+".json")
}

// Load reads a bucket into v. A missing or corrupt file leaves v
// untouched and returns nil: bucket contents are local cache/state, not
// a system of record, so the caller always starts from its empty
// default instead of failing.
func (s *Store) Load(bucket string, v any) error {
	path := s.Path(bucket)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("state bucket unreadable, starting empty",
				logger.String("bucket", bucket),
				logger.Error(err),
			)
		}
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("state bucket corrupt, starting empty",
			logger.String("bucket", bucket),
			logger.Error(err),
		)
		return nil
	}
	return nil
}

// Save writes a bucket atomically: marshal, write to a temp file in the
// same directory, fsync, rename over the previous document. A crash
// mid-save leaves the old document intact.
func (s *Store) Save(bucket string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bucket %s: %w", bucket, err)
	}

	tmp, err := os.CreateTemp(s.dir, bucket+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for bucket %s: %w", bucket, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write bucket %s: %w", bucket, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync bucket %s: %w", bucket, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close bucket %s: %w", bucket, err)
	}
	if err = os.Rename(tmpName, s.Path(bucket)); err != nil {
		return fmt.Errorf("replace bucket %s: %w", bucket, err)
	}
	return nil
}
