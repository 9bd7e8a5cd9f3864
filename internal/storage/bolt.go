package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Kdotropez/facture-fournisseur/internal/common"
)

// BoltKV implements KV on a bbolt database file.
type BoltKV struct {
	db *bbolt.DB
}

// NewBoltKV opens (or creates) the database file and its buckets.
func NewBoltKV(path string) (*BoltKV, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{profileBucket, catalogBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltKV{db: db}, nil
}

// Get returns the value stored under key, or common.ErrNotFound.
func (b *BoltKV) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return fmt.Errorf("bucket %q: %w", bucket, common.ErrNotFound)
		}
		data := bkt.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("key %q: %w", key, common.ErrNotFound)
		}
		out = append(out, data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put stores value under key.
func (b *BoltKV) Put(ctx context.Context, bucket, key string, value []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return fmt.Errorf("bucket %q: %w", bucket, common.ErrNotFound)
		}
		return bkt.Put([]byte(key), value)
	})
}

// List returns all entries whose key starts with prefix.
func (b *BoltKV) List(ctx context.Context, bucket, prefix string) (map[string][]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	out := make(map[string][]byte)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return fmt.Errorf("bucket %q: %w", bucket, common.ErrNotFound)
		}
		c := bkt.Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			out[string(k)] = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database file.
func (b *BoltKV) Close() error {
	return b.db.Close()
}
