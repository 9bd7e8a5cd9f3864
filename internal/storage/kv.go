// Package storage provides the data persistence layer: the key-value
// store backing profiles and the reference catalog, and the SQLite
// archive of processed invoices.
package storage

import "context"

// Bucket names used by the profile store and the reference catalog.
const (
	profileBucket = "profiles"
	catalogBucket = "catalog"
)

// KV is the key-value abstraction injected into the stores. Get returns
// common.ErrNotFound for absent keys. List returns every key under the
// given prefix with its value.
type KV interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	List(ctx context.Context, bucket, prefix string) (map[string][]byte, error)
	Close() error
}
