package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRememberAndLookup(t *testing.T) {
	ctx := context.Background()
	catalog := NewReferenceCatalog(NewMemoryKV(), true)

	desc, ok := catalog.Lookup(ctx, "italesse", "TT1251")
	assert.False(t, ok)
	assert.Empty(t, desc)

	require.NoError(t, catalog.Remember(ctx, "italesse", "TT1251", "WINE GLASS PARTY TRANSPARENT 44CL"))

	desc, ok = catalog.Lookup(ctx, "italesse", "TT1251")
	require.True(t, ok)
	assert.Equal(t, "WINE GLASS PARTY TRANSPARENT 44CL", desc)

	_, ok = catalog.Lookup(ctx, "stem", "TT1251")
	assert.False(t, ok, "catalog is partitioned by supplier")
}

func TestCatalogLongerDescriptionWins(t *testing.T) {
	ctx := context.Background()

	short, long := "WINE GL", "WINE GLASS PARTY TRANSPARENT 44CL"
	orders := map[string][]string{
		"short then long": {short, long},
		"long then short": {long, short},
	}
	for name, descs := range orders {
		t.Run(name, func(t *testing.T) {
			catalog := NewReferenceCatalog(NewMemoryKV(), true)
			for _, d := range descs {
				require.NoError(t, catalog.Remember(ctx, "italesse", "TT1251", d))
			}
			got, ok := catalog.Lookup(ctx, "italesse", "TT1251")
			require.True(t, ok)
			assert.Equal(t, long, got, "insertion order must not matter")
		})
	}
}

func TestCatalogNewestWinsMode(t *testing.T) {
	ctx := context.Background()
	catalog := NewReferenceCatalog(NewMemoryKV(), false)

	require.NoError(t, catalog.Remember(ctx, "stem", "VB12", "VERRE BALLON 12CL TRADITION"))
	require.NoError(t, catalog.Remember(ctx, "stem", "VB12", "VERRE 12CL"))

	got, ok := catalog.Lookup(ctx, "stem", "VB12")
	require.True(t, ok)
	assert.Equal(t, "VERRE 12CL", got)
}

func TestCatalogUseCountAndEntries(t *testing.T) {
	ctx := context.Background()
	catalog := NewReferenceCatalog(NewMemoryKV(), true)

	require.NoError(t, catalog.Remember(ctx, "stem", "VB12", "VERRE BALLON"))
	require.NoError(t, catalog.Remember(ctx, "stem", "VB12", "VERRE BALLON"))
	require.NoError(t, catalog.Remember(ctx, "stem", "FL03", "FLUTE"))

	entries, err := catalog.Entries(ctx, "stem")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries["VB12"].UseCount)
	assert.Equal(t, 1, entries["FL03"].UseCount)
	assert.False(t, entries["VB12"].LastUsed.IsZero())

	refs, err := catalog.References(ctx, "stem")
	require.NoError(t, err)
	assert.Equal(t, []string{"FL03", "VB12"}, refs)
}

func TestCatalogRejectsEmptyPair(t *testing.T) {
	ctx := context.Background()
	catalog := NewReferenceCatalog(NewMemoryKV(), true)

	assert.ErrorIs(t, catalog.Remember(ctx, "stem", "", "desc"), ErrEmptyString)
	assert.ErrorIs(t, catalog.Remember(ctx, "stem", "VB12", " "), ErrEmptyString)
}
