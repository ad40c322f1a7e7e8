package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/checkmark/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket and key names
var (
	bucketLibrary = []byte("library")
	keySnapshot   = []byte("library-snapshot")
)

const dbFileName = "checkmark.db"

// SnapshotStore implements domain.SnapshotStore using BoltDB.
// A single JSON document {catalogIds, timestamp} lives under one key.
type SnapshotStore struct {
	db     *bolt.DB
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex // Protects memory copy
	memory []byte       // Hot copy of the persisted blob (sole copy in memory-only mode)
}

// Option customizes a SnapshotStore
type Option func(*SnapshotStore)

// WithClock overrides the time source used for snapshot timestamps
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore returns a store that never touches disk.
func NewMemoryStore(logger *slog.Logger, opts ...Option) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SnapshotStore{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSnapshotStore opens (or creates) the bolt file for the given catalog endpoint.
// Each endpoint gets its own directory so snapshots never mix.
func NewSnapshotStore(baseCacheDir, catalogURL string, logger *slog.Logger, opts ...Option) (*SnapshotStore, error) {
	s := NewMemoryStore(logger, opts...)
	if baseCacheDir == "" {
		return s, nil
	}

	dir := baseCacheDir
	if catalogURL != "" {
		dir = filepath.Join(baseCacheDir, hashCatalogURL(catalogURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, dbFileName), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLibrary)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// OpenOrMemory opens the durable store and falls back to memory-only mode
// when the file cannot be opened (e.g. another process holds the lock).
func OpenOrMemory(baseCacheDir, catalogURL string, logger *slog.Logger, opts ...Option) *SnapshotStore {
	s, err := NewSnapshotStore(baseCacheDir, catalogURL, logger, opts...)
	if err != nil {
		s = NewMemoryStore(logger, opts...)
		s.logger.Warn("snapshot store unavailable, using memory only", "error", err, "dir", baseCacheDir)
	}
	return s
}

func hashCatalogURL(catalogURL string) string {
	normalized := strings.TrimRight(strings.ToLower(catalogURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Close releases the bolt file
func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns the persisted snapshot without judging its age.
// Missing, unreadable or malformed data is reported as absent.
func (s *SnapshotStore) Load() (domain.LibrarySnapshot, bool) {
	data := s.read()
	if data == nil {
		return domain.LibrarySnapshot{}, false
	}

	var snapshot domain.LibrarySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.logger.Warn("failed to decode library snapshot", "error", err, "bytes", len(data))
		return domain.LibrarySnapshot{}, false
	}
	if snapshot.Timestamp <= 0 {
		s.logger.Warn("library snapshot has no timestamp, ignoring")
		return domain.LibrarySnapshot{}, false
	}

	s.logger.Debug("loaded library snapshot",
		"count", len(snapshot.CatalogIDs),
		"age", s.now().Sub(snapshot.SavedAt()).Round(time.Second))
	return snapshot, true
}

// Save persists the id set with the current time. Failures are logged only.
func (s *SnapshotStore) Save(ids domain.CatalogIDSet) {
	snapshot := domain.LibrarySnapshot{
		CatalogIDs: ids.Sorted(),
		Timestamp:  s.now().UnixMilli(),
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("failed to encode library snapshot", "error", err)
		return
	}

	s.mu.Lock()
	s.memory = data
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketLibrary)
		if err != nil {
			return err
		}
		return b.Put(keySnapshot, data)
	})
	if err != nil {
		s.logger.Error("failed to save library snapshot", "error", err)
		return
	}
	s.logger.Debug("saved library snapshot", "count", len(snapshot.CatalogIDs))
}

// Clear removes the persisted snapshot. Calling it twice is harmless.
func (s *SnapshotStore) Clear() {
	s.mu.Lock()
	s.memory = nil
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLibrary)
		if b == nil {
			return nil
		}
		return b.Delete(keySnapshot)
	})
	if err != nil {
		s.logger.Error("failed to clear library snapshot", "error", err)
	}
}

func (s *SnapshotStore) read() []byte {
	// Check memory copy first
	s.mu.RLock()
	if s.memory != nil {
		data := s.memory
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLibrary)
		if b == nil {
			return nil
		}
		if v := b.Get(keySnapshot); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to read library snapshot", "error", err)
		return nil
	}
	if data == nil {
		return nil
	}

	// Promote to memory copy
	s.mu.Lock()
	s.memory = data
	s.mu.Unlock()

	return data
}
