package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Kdotropez/facture-fournisseur/internal/common"
	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// ReferenceCatalog accumulates per-supplier product descriptions keyed
// by reference code. It backfills truncated descriptions during
// extraction and is fed by every correction.
type ReferenceCatalog struct {
	kv           KV
	locks        map[string]*sync.Mutex
	mu           sync.Mutex
	preferLonger bool
}

// NewReferenceCatalog creates a catalog on the given KV. With
// preferLonger set, a conflicting description only replaces the stored
// one when it is longer; otherwise the newest description always wins.
func NewReferenceCatalog(kv KV, preferLonger bool) *ReferenceCatalog {
	return &ReferenceCatalog{kv: kv, locks: map[string]*sync.Mutex{}, preferLonger: preferLonger}
}

func (c *ReferenceCatalog) supplierLock(slug string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[slug]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[slug] = lock
	}
	return lock
}

func catalogKey(supplier, referenceCode string) string {
	return textutil.Slug(supplier) + "/" + referenceCode
}

// Remember upserts a (reference, description) pair and bumps its use
// count.
func (c *ReferenceCatalog) Remember(ctx context.Context, supplier, referenceCode, description string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(referenceCode, "referenceCode"); err != nil {
		return err
	}
	if err := validateString(description, "description"); err != nil {
		return err
	}

	slug := textutil.Slug(supplier)
	lock := c.supplierLock(slug)
	lock.Lock()
	defer lock.Unlock()

	key := catalogKey(supplier, referenceCode)
	entry := model.ReferenceEntry{Description: description, UseCount: 1}

	data, err := c.kv.Get(ctx, catalogBucket, key)
	switch {
	case err == nil:
		var existing model.ReferenceEntry
		if err := json.Unmarshal(data, &existing); err == nil {
			entry.UseCount = existing.UseCount + 1
			if c.preferLonger && len(existing.Description) > len(description) {
				entry.Description = existing.Description
			}
		}
	case errors.Is(err, common.ErrNotFound):
	default:
		return fmt.Errorf("reading catalog entry %q: %w", key, err)
	}

	entry.LastUsed = time.Now().UTC()
	out, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling catalog entry %q: %w", key, err)
	}
	if err := c.kv.Put(ctx, catalogBucket, key, out); err != nil {
		return fmt.Errorf("saving catalog entry %q: %w", key, err)
	}
	return nil
}

// Lookup returns the stored description for a reference code. Storage
// failures are logged and reported as a miss: a broken catalog must
// never block extraction.
func (c *ReferenceCatalog) Lookup(ctx context.Context, supplier, referenceCode string) (string, bool) {
	data, err := c.kv.Get(ctx, catalogBucket, catalogKey(supplier, referenceCode))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			slog.Warn("catalog lookup failed", "supplier", supplier, "reference", referenceCode, "error", err)
		}
		return "", false
	}
	var entry model.ReferenceEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Warn("undecodable catalog entry", "supplier", supplier, "reference", referenceCode, "error", err)
		return "", false
	}
	return entry.Description, true
}

// Entries returns all catalog entries for a supplier, keyed by
// reference code.
func (c *ReferenceCatalog) Entries(ctx context.Context, supplier string) (map[string]model.ReferenceEntry, error) {
	prefix := textutil.Slug(supplier) + "/"
	raw, err := c.kv.List(ctx, catalogBucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing catalog for %q: %w", supplier, err)
	}
	out := make(map[string]model.ReferenceEntry, len(raw))
	for key, data := range raw {
		var entry model.ReferenceEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			slog.Warn("skipping undecodable catalog entry", "key", key, "error", err)
			continue
		}
		out[key[len(prefix):]] = entry
	}
	return out, nil
}

// References returns the sorted reference codes of a supplier's catalog.
func (c *ReferenceCatalog) References(ctx context.Context, supplier string) ([]string, error) {
	entries, err := c.Entries(ctx, supplier)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(entries))
	for ref := range entries {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}
