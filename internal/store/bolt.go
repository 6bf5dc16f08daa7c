package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"github.com/i474232898/agro-weather/internal/weather"
)

// Bucket layout:
//
//	snapshots/<location key>/<snapshot ULID> → JSON snapshot
//	_meta/schema_version
//
// ULIDs sort by creation time, so cursor order is insertion order.
var (
	bucketSnapshots = []byte("snapshots")
	bucketInternal  = []byte("_meta")
)

const schemaVersion = 1

// BoltStore persists snapshots in a bbolt database.
type BoltStore struct {
	db         *bolt.DB
	maxHistory int
	maxAge     time.Duration

	now func() time.Time
}

// OpenBoltStore opens (or creates) the database at path. Parent directories
// are created automatically. maxHistory <= 0 and maxAge <= 0 mean unlimited.
func OpenBoltStore(path string, maxHistory int, maxAge time.Duration) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &BoltStore{db: db, maxHistory: maxHistory, maxAge: maxAge, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSnapshots, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			return meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion)))
		}
		return nil
	})
}

// SaveSnapshot stores snapshot under its ID and applies the same retention as
// MemoryStore: the oldest entries beyond maxHistory go first, then entries
// recorded before maxAge. The newest snapshot is always kept.
func (s *BoltStore) SaveSnapshot(loc weather.Coordinates, snapshot weather.Snapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("snapshot has no id")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(bucketSnapshots).CreateBucketIfNotExists([]byte(loc.Key()))
		if err != nil {
			return fmt.Errorf("creating location bucket: %w", err)
		}
		if err := b.Put([]byte(snapshot.ID), data); err != nil {
			return err
		}

		return s.trim(b)
	})
}

func (s *BoltStore) trim(b *bolt.Bucket) error {
	if s.maxHistory <= 0 && s.maxAge <= 0 {
		return nil
	}

	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}

	drop := 0
	if s.maxHistory > 0 && len(keys) > s.maxHistory {
		drop = len(keys) - s.maxHistory
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		for ; drop < len(keys)-1; drop++ {
			var snap weather.Snapshot
			if err := json.Unmarshal(b.Get(keys[drop]), &snap); err != nil {
				return fmt.Errorf("decoding snapshot: %w", err)
			}
			if !snap.RecordedAt.Before(cutoff) {
				break
			}
		}
	}

	for _, k := range keys[:drop] {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// GetLatest returns the most recently inserted snapshot for a location.
func (s *BoltStore) GetLatest(loc weather.Coordinates) (weather.Snapshot, error) {
	var snap weather.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots).Bucket([]byte(loc.Key()))
		if b == nil {
			return ErrNotFound
		}
		_, v := b.Cursor().Last()
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &snap)
	})
	return snap, err
}

// GetRange returns all snapshots for a location recorded between from and to (inclusive).
func (s *BoltStore) GetRange(loc weather.Coordinates, from, to time.Time) ([]weather.Snapshot, error) {
	var result []weather.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots).Bucket([]byte(loc.Key()))
		if b == nil {
			return ErrNotFound
		}
		return b.ForEach(func(_, v []byte) error {
			var snap weather.Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return fmt.Errorf("decoding snapshot: %w", err)
			}
			if inRange(snap.RecordedAt, from, to) {
				result = append(result, snap)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

var _ weather.Store = (*BoltStore)(nil)
