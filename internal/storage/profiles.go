package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// ProfileStore persists parsing profiles in the KV store under
// supplier-partitioned keys. Writes for one supplier are serialized;
// reads are not blocked.
type ProfileStore struct {
	kv    KV
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

// NewProfileStore creates a profile store on the given KV.
func NewProfileStore(kv KV) *ProfileStore {
	return &ProfileStore{kv: kv, locks: map[string]*sync.Mutex{}}
}

func (s *ProfileStore) supplierLock(supplier string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[supplier]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[supplier] = lock
	}
	return lock
}

func profileKey(supplier, id string) string {
	return textutil.Slug(supplier) + "/" + id
}

// List returns all stored profiles for a supplier, in creation order.
// Entries that fail to decode are skipped with a warning; a corrupt
// profile behaves exactly like an absent one.
func (s *ProfileStore) List(ctx context.Context, supplier string) ([]*model.ParsingProfile, error) {
	if err := validateString(supplier, "supplier"); err != nil {
		return nil, err
	}
	entries, err := s.kv.List(ctx, profileBucket, textutil.Slug(supplier)+"/")
	if err != nil {
		return nil, fmt.Errorf("listing profiles for %q: %w", supplier, err)
	}

	profiles := make([]*model.ParsingProfile, 0, len(entries))
	for key, data := range entries {
		var p model.ParsingProfile
		if err := json.Unmarshal(data, &p); err != nil {
			slog.Warn("skipping undecodable profile", "key", key, "error", err)
			continue
		}
		if !p.Valid() {
			slog.Warn("skipping profile without signature", "key", key)
			continue
		}
		profiles = append(profiles, &p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		oi, oj := idOrdinal(profiles[i].ID), idOrdinal(profiles[j].ID)
		if oi != oj {
			return oi < oj
		}
		return profiles[i].ID < profiles[j].ID
	})
	return profiles, nil
}

// idOrdinal extracts the numeric suffix of a <slug>-<ordinal> profile
// identifier. Sorting on it keeps creation order past nine profiles,
// where plain string order would put "-10" before "-2".
func idOrdinal(id string) int {
	if idx := strings.LastIndex(id, "-"); idx >= 0 {
		if n, err := strconv.Atoi(id[idx+1:]); err == nil {
			return n
		}
	}
	return 0
}

// Save persists a profile, assigning the next <supplier>-<ordinal>
// identifier when the profile is new.
func (s *ProfileStore) Save(ctx context.Context, p *model.ParsingProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(p); err != nil {
		return err
	}

	slug := textutil.Slug(p.Supplier)
	lock := s.supplierLock(slug)
	lock.Lock()
	defer lock.Unlock()

	if p.ID == "" {
		id, err := s.nextID(ctx, slug)
		if err != nil {
			return err
		}
		p.ID = id
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling profile %q: %w", p.ID, err)
	}
	if err := s.kv.Put(ctx, profileBucket, profileKey(p.Supplier, p.ID), data); err != nil {
		return fmt.Errorf("saving profile %q: %w", p.ID, err)
	}
	return nil
}

// nextID scans existing keys and returns <slug>-<max ordinal + 1>.
// Undecodable entries still occupy their ordinal.
func (s *ProfileStore) nextID(ctx context.Context, slug string) (string, error) {
	entries, err := s.kv.List(ctx, profileBucket, slug+"/")
	if err != nil {
		return "", fmt.Errorf("allocating profile id: %w", err)
	}
	maxOrdinal := 0
	for key := range entries {
		if n := idOrdinal(strings.TrimPrefix(key, slug+"/")); n > maxOrdinal {
			maxOrdinal = n
		}
	}
	return fmt.Sprintf("%s-%d", slug, maxOrdinal+1), nil
}
