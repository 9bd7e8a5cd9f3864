package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kdotropez/facture-fournisseur/internal/storage"
)

const lehmannRaw = `LEHMANN SA - VERRERIE
Facture N° F12   Date : 10/04/2024

Réf. Désignation Qté P.U. Montant
G123 PROD A PROT. 1234-5678-1234 EXTRA 6 12,00 72,00
G124 CARAFE GRAVEE 2 30,00 60,00

TOTAL HT 132,00
TVA 20 % 26,40
TOTAL TTC 158,40
`

func newTestEngine(t *testing.T) (*Engine, *storage.ProfileStore, *storage.ReferenceCatalog) {
	t.Helper()
	kv := storage.NewMemoryKV()
	t.Cleanup(func() { _ = kv.Close() })
	profiles := storage.NewProfileStore(kv)
	catalog := storage.NewReferenceCatalog(kv, true)
	return New(profiles, catalog), profiles, catalog
}

func TestProcessWithoutProfiles(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	res, err := eng.Process(context.Background(), lehmannRaw, "f12.txt", "lehmann")
	require.NoError(t, err)

	assert.Empty(t, res.ProfileID)
	assert.False(t, res.Replayed)
	assert.Equal(t, "F12", res.Invoice.DocumentNumber)
	require.Len(t, res.Invoice.Lines, 2)
	assert.InDelta(t, 132.0, res.Invoice.TotalExclTax, 0.001)
}

func TestProcessRequiresSupplier(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, err := eng.Process(context.Background(), lehmannRaw, "f12.txt", "")
	assert.Error(t, err)
}

func TestGenericFallbackProcessing(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	raw := "FACTURE N 8842\nDate : 02/05/2024\nTOTAL HT: 120,50\n"
	res, err := eng.Process(context.Background(), raw, "divers.txt", "fournisseur divers")
	require.NoError(t, err)

	assert.Equal(t, "8842", res.Invoice.DocumentNumber)
	assert.InDelta(t, 120.50, res.Invoice.TotalExclTax, 0.001)
	require.Len(t, res.Invoice.Lines, 1, "placeholder line carries the total")
	assert.InDelta(t, 120.50, res.Invoice.Lines[0].AmountExclTax, 0.001)

	found := false
	for _, w := range res.Warnings {
		if w == `generic parsing used for supplier "fournisseur divers"; review extracted fields` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLearnThenReplay(t *testing.T) {
	ctx := context.Background()
	eng, profiles, _ := newTestEngine(t)

	first, err := eng.Process(ctx, lehmannRaw, "f12.txt", "lehmann")
	require.NoError(t, err)
	assert.Equal(t, "PROD A PROT. 1234-5678-1234 EXTRA", first.Invoice.Lines[0].Description)

	corrected := first.Invoice.Clone()
	corrected.Lines[0].Description = "PROD A EXTRA"
	corrected.Lines[0].TranslatedDescription = "PRODUCT A EXTRA"

	p, err := eng.Learn(ctx, "lehmann", first.Invoice, corrected, lehmannRaw)
	require.NoError(t, err)
	assert.Equal(t, "lehmann-1", p.ID)

	second, err := eng.Process(ctx, lehmannRaw, "f12_reimport.txt", "lehmann")
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, "lehmann-1", second.ProfileID)
	assert.Equal(t, "PROD A EXTRA", second.Invoice.Lines[0].Description)
	assert.Equal(t, "PRODUCT A EXTRA", second.Invoice.Lines[0].TranslatedDescription)
	assert.Equal(t, "f12_reimport.txt", second.Invoice.SourceFileName)
	assert.NotEqual(t, corrected.ID, second.Invoice.ID, "replay keeps a fresh identity")

	third, err := eng.Process(ctx, lehmannRaw, "f12_again.txt", "lehmann")
	require.NoError(t, err)
	assert.Equal(t, second.Invoice.Lines, third.Invoice.Lines, "replay is deterministic")

	stored, err := profiles.List(ctx, "lehmann")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].UseCount, "both reprocessings counted")
}

func TestLearnedNumberPatternAppliesOnNextRun(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	raw := "LEHMANN SA\nDocument ref LX-2024-001\nDate : 10/04/2024\nTOTAL HT 50,00\n"
	first, err := eng.Process(ctx, raw, "lx_2024_001.txt", "lehmann")
	require.NoError(t, err)
	assert.NotEqual(t, "LX-2024-001", first.Invoice.DocumentNumber,
		"built-in cascade does not know this label")

	corrected := first.Invoice.Clone()
	corrected.DocumentNumber = "LX-2024-001"
	_, err = eng.Learn(ctx, "lehmann", first.Invoice, corrected, raw)
	require.NoError(t, err)

	other := "LEHMANN SA\nDocument ref LX-2025-417\nDate : 03/02/2025\nTOTAL HT 75,00\n"
	second, err := eng.Process(ctx, other, "lx_2025_417.txt", "lehmann")
	require.NoError(t, err)
	assert.Equal(t, "LX-2025-417", second.Invoice.DocumentNumber)
}

func TestCatalogBackfillAfterLearning(t *testing.T) {
	ctx := context.Background()
	eng, _, catalog := newTestEngine(t)

	require.NoError(t, catalog.Remember(ctx, "fournisseur divers", "VER0012", "VERRE LONG DRINK 33CL"))

	raw := "FACTURE N 9001\nVER0012 GL X 2 2,00 4,00\nTOTAL HT: 4,00\n"
	res, err := eng.Process(ctx, raw, "divers.txt", "fournisseur divers")
	require.NoError(t, err)

	require.Len(t, res.Invoice.Lines, 1)
	assert.Equal(t, "VERRE LONG DRINK 33CL", res.Invoice.Lines[0].Description,
		"weak description backfilled from the catalog")
}

func TestLearnWithoutOriginal(t *testing.T) {
	ctx := context.Background()
	eng, profiles, catalog := newTestEngine(t)

	first, err := eng.Process(ctx, lehmannRaw, "f12.txt", "lehmann")
	require.NoError(t, err)

	corrected := first.Invoice.Clone()
	corrected.Supplier = ""
	corrected.Lines[0].ReferenceCode = "G123"

	p, err := eng.Learn(ctx, "lehmann", nil, corrected, lehmannRaw)
	require.NoError(t, err)
	assert.Equal(t, "lehmann", p.Supplier, "supplier restored from the call")

	stored, err := profiles.List(ctx, "lehmann")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	desc, ok := catalog.Lookup(ctx, "lehmann", "G123")
	require.True(t, ok)
	assert.Equal(t, corrected.Lines[0].Description, desc)
}
