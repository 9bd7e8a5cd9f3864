package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

func TestTableRegions(t *testing.T) {
	lines := []string{
		"LEHMANN SA",
		"Référence Désignation Qté Montant",
		"G123 VERRE 6 12,00 72,00",
		"G124 CARAFE 2 30,00 60,00",
		"TOTAL HT 132,00",
		"TVA 26,40",
	}

	regions := tableRegions(lines, []string{"reference", "designation", "qte", "montant"}, []string{"total"})
	require.Len(t, regions, 1)
	assert.Equal(t, 2, regions[0].Start)
	assert.Equal(t, 4, regions[0].End)
}

func TestTableRegionsMultiPage(t *testing.T) {
	lines := []string{
		"Référence Désignation Qté Montant",
		"G123 VERRE 6 12,00 72,00",
		"Total 72,00",
		"Référence Désignation Qté Montant",
		"G124 CARAFE 2 30,00 60,00",
		"TOTAL HT 132,00",
	}

	regions := tableRegions(lines, []string{"reference", "designation", "qte", "montant"}, []string{"total"})
	require.Len(t, regions, 2)
	assert.Equal(t, region{Start: 1, End: 2}, regions[0])
	assert.Equal(t, region{Start: 4, End: 5}, regions[1])
}

func TestLooksLikeHeader(t *testing.T) {
	assert.True(t, looksLikeHeader("Référence Désignation Qté P.U. HT Remise Montant HT"))
	assert.True(t, looksLikeHeader("Page 2 - report sous-total"))
	assert.False(t, looksLikeHeader("VER0012 VERRE A VIN 47CL 24 3,90 0,00 93,60"))
}

func TestMatchRowsStrictBeatsLoose(t *testing.T) {
	lines := []string{
		"AB123 VERRE A VIN 24 3,90 2,00 91,60",
		"CD456 CARAFE 2 30,00 60,00",
	}
	regions := []region{{Start: 0, End: len(lines)}}

	items := matchRows(lines, regions, rbdrinksRowGrammars)
	require.Len(t, items, 2)

	assert.Equal(t, 2.0, items[0].Discount, "six-column grammar read the discount")
	assert.Equal(t, 91.60, items[0].AmountExclTax)
	assert.Equal(t, 0.0, items[1].Discount, "five-column fallback leaves discount at zero")
	assert.Equal(t, 60.0, items[1].AmountExclTax)
}

func TestMatchRowsRejectsNonPositive(t *testing.T) {
	lines := []string{
		"AB123 AVOIR RETOUR 0 3,90 0,00",
	}
	regions := []region{{Start: 0, End: len(lines)}}

	items := matchRows(lines, regions, rbdrinksRowGrammars)
	assert.Empty(t, items)
}

func TestMatchRowsPreservesOrder(t *testing.T) {
	lines := []string{
		"CD456 CARAFE 2 30,00 60,00",
		"AB123 VERRE 24 3,90 2,00 91,60",
	}
	regions := []region{{Start: 0, End: len(lines)}}

	items := matchRows(lines, regions, rbdrinksRowGrammars)
	require.Len(t, items, 2)
	assert.Equal(t, "CD456", items[0].ReferenceCode)
	assert.Equal(t, "AB123", items[1].ReferenceCode)
}

func TestLastAmountAfterPicksLastOccurrence(t *testing.T) {
	lines := textutil.Lines("Total 45,00\nmore rows\nTotal HT euro 1 200,00\nTVA 20% 240,00")

	v, excerpt, ok := lastAmountAfter(lines, []string{"total ht"})
	require.True(t, ok)
	assert.InDelta(t, 1200.00, v, 0.001)
	assert.Contains(t, excerpt, "1 200,00")

	v, _, ok = lastAmountAfter(lines, []string{"tva"})
	require.True(t, ok)
	assert.InDelta(t, 240.00, v, 0.001, "tax rate percentage skipped")
}

func TestLastAmountAfterExcluding(t *testing.T) {
	lines := []string{
		"TOTAL 1,234.56",
		"VAT 22% 271.60",
		"TOTAL AMOUNT 1,506.16",
	}

	v, _, ok := lastAmountAfterExcluding(lines, []string{"total"}, []string{"amount", "vat"})
	require.True(t, ok)
	assert.InDelta(t, 1234.56, v, 0.001)
}

func TestEnsurePlaceholderLine(t *testing.T) {
	res := &Result{Invoice: model.Invoice{TotalExclTax: 120.50}}
	ensurePlaceholderLine(res)

	require.Len(t, res.Invoice.Lines, 1)
	assert.Equal(t, 120.50, res.Invoice.Lines[0].AmountExclTax)
	assert.Equal(t, 1.0, res.Invoice.Lines[0].Quantity)
	assert.NotEmpty(t, res.Warnings)

	// Lines already present: nothing changes.
	res2 := &Result{Invoice: model.Invoice{Lines: []model.LineItem{{Description: "x"}}}}
	ensurePlaceholderLine(res2)
	assert.Len(t, res2.Invoice.Lines, 1)
	assert.Empty(t, res2.Warnings)
}

func TestReconcileTotals(t *testing.T) {
	res := &Result{Invoice: model.Invoice{
		TotalExclTax: 100,
		TotalTax:     20,
		TotalInclTax: 130,
		Lines: []model.LineItem{
			{Quantity: 2, UnitPriceExclTax: 10, AmountExclTax: 25},
		},
	}}
	reconcileTotals(res)

	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "totals do not reconcile")
	assert.Contains(t, res.Warnings[1], "source amount kept")
}

func TestIsWeakDescription(t *testing.T) {
	assert.True(t, isWeakDescription(""))
	assert.True(t, isWeakDescription("WINE GL"))
	assert.True(t, isWeakDescription("12345 678 90"))
	assert.False(t, isWeakDescription("VERRE A VIN 47CL"))
}
