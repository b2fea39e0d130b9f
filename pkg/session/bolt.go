package session

import (
	"context"
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

var snapshotBucket = []byte("snapshots")

// BoltStore keeps snapshots in a bbolt file. Each value is the expiry as
// big-endian Unix nanoseconds followed by the snapshot bytes.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the store file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	return s.update(func(b *bolt.Bucket) error {
		return b.Put([]byte(id), encodeEntry(data, expiresAt))
	})
}

func (s *BoltStore) Load(ctx context.Context, id string) ([]byte, error) {
	var out []byte
	expired := false
	err := s.view(func(b *bolt.Bucket) error {
		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}
		data, expiresAt, ok := decodeEntry(v)
		if !ok || time.Now().After(expiresAt) {
			expired = true
			return nil
		}
		out = clone(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		s.Delete(ctx, id)
	}
	return out, nil
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	return s.update(func(b *bolt.Bucket) error {
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	return s.update(func(b *bolt.Bucket) error {
		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}
		data, _, ok := decodeEntry(v)
		if !ok {
			return b.Delete([]byte(id))
		}
		return b.Put([]byte(id), encodeEntry(data, expiresAt))
	})
}

func (s *BoltStore) SaveAll(ctx context.Context, entries map[string]Entry) error {
	return s.update(func(b *bolt.Bucket) error {
		for id, e := range entries {
			if err := b.Put([]byte(id), encodeEntry(e.Data, e.ExpiresAt)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sweep deletes expired snapshots and returns how many were removed.
func (s *BoltStore) Sweep(now time.Time) (int, error) {
	removed := 0
	err := s.update(func(b *bolt.Bucket) error {
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if _, expiresAt, ok := decodeEntry(v); !ok || now.After(expiresAt) {
				stale = append(stale, clone(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) update(fn func(b *bolt.Bucket) error) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(snapshotBucket))
	})
	if err == bolt.ErrDatabaseNotOpen {
		return ErrClosed{}
	}
	return err
}

func (s *BoltStore) view(fn func(b *bolt.Bucket) error) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(snapshotBucket))
	})
	if err == bolt.ErrDatabaseNotOpen {
		return ErrClosed{}
	}
	return err
}

func encodeEntry(data []byte, expiresAt time.Time) []byte {
	v := make([]byte, 8+len(data))
	binary.BigEndian.PutUint64(v, uint64(expiresAt.UnixNano()))
	copy(v[8:], data)
	return v
}

func decodeEntry(v []byte) ([]byte, time.Time, bool) {
	if len(v) < 8 {
		return nil, time.Time{}, false
	}
	ns := int64(binary.BigEndian.Uint64(v))
	return v[8:], time.Unix(0, ns), true
}
