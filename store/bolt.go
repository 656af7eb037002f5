package store

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bbolt "go.etcd.io/bbolt"
)

const boltFileMode os.FileMode = 0o600

var boltOptions = &bbolt.Options{Timeout: 5 * time.Second, NoGrowSync: true}

// Bolt wraps a bbolt database holding one bucket per actor kind. Each
// Save runs in its own write transaction, which gives the atomic
// per-key checkpoint the runtime contract asks for.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the database file at path, creating
// parent directories as needed.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create state directory")
	}
	opts := *boltOptions
	db, err := bbolt.Open(path, boltFileMode, &opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open state database %s", path)
	}
	return &Bolt{db: db}, nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Bucket returns a StateStore view over the named bucket, creating the
// bucket if it does not exist yet.
func (b *Bolt) Bucket(name string) (StateStore, error) {
	bucket := []byte(name)
	err := b.db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucket)
		return e
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create bucket %s", name)
	}
	return &boltBucket{db: b.db, bucket: bucket}, nil
}

type boltBucket struct {
	db     *bbolt.DB
	bucket []byte
}

var _ StateStore = (*boltBucket)(nil)

func (s *boltBucket) Load(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return errors.Errorf("bucket %s missing", s.bucket)
		}
		if data := bucket.Get([]byte(key)); data != nil {
			out = make([]byte, len(data))
			copy(out, data)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load state %s", key)
	}
	return out, nil
}

func (s *boltBucket) Save(key string, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return errors.Errorf("bucket %s missing", s.bucket)
		}
		return bucket.Put([]byte(key), data)
	})
	return errors.Wrapf(err, "save state %s", key)
}

func (s *boltBucket) Clear(key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return errors.Errorf("bucket %s missing", s.bucket)
		}
		return bucket.Delete([]byte(key))
	})
	return errors.Wrapf(err, "clear state %s", key)
}
