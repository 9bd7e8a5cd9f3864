package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
)

func TestApplierReplaysIdenticalDocument(t *testing.T) {
	memorizedAt := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	p := &model.ParsingProfile{
		ID:        "lehmann-1",
		Signature: model.NewSignature("supplier-lehmann"),
		MemorizedInvoice: &model.Invoice{
			ID:             "aaaa",
			Supplier:       "lehmann",
			DocumentNumber: "F 12",
			DocumentDate:   memorizedAt,
			SourceFileName: "f12_first_run.txt",
			Lines: []model.LineItem{
				{Description: "PROD A EXTRA", ReferenceCode: "A123", Quantity: 2, AmountExclTax: 40},
			},
			TotalExclTax: 40,
		},
		UseCount: 3,
	}

	fresh := &model.Invoice{
		ID:             "bbbb",
		Supplier:       "lehmann",
		DocumentNumber: "F12",
		ImportedAt:     time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC),
		SourceFileName: "f12_second_run.txt",
		RawData:        &model.RawData{Text: "raw"},
		Lines: []model.LineItem{
			{Description: "PROD A PROT. 1234-5678-1234 EXTRA", Quantity: 2, AmountExclTax: 40},
		},
		TotalExclTax: 40,
	}

	a := NewApplier()
	got, replayed := a.Apply(p, fresh)

	require.True(t, replayed)
	assert.Equal(t, "PROD A EXTRA", got.Lines[0].Description)
	assert.Equal(t, "A123", got.Lines[0].ReferenceCode)
	assert.Equal(t, memorizedAt, got.DocumentDate)

	assert.Equal(t, "bbbb", got.ID)
	assert.Equal(t, fresh.ImportedAt, got.ImportedAt)
	assert.Equal(t, "f12_second_run.txt", got.SourceFileName)
	assert.Same(t, fresh.RawData, got.RawData)

	assert.Equal(t, 4, p.UseCount)
	assert.False(t, p.LastUsed.IsZero())

	assert.Equal(t, "PROD A PROT. 1234-5678-1234 EXTRA", fresh.Lines[0].Description, "input must not be mutated")
}

func TestApplierRulesPath(t *testing.T) {
	p := &model.ParsingProfile{
		ID:        "lehmann-1",
		Signature: model.NewSignature("supplier-lehmann"),
		MemorizedInvoice: &model.Invoice{
			DocumentNumber: "F 12",
		},
		Rules: &model.LearnedRules{
			RemovePatterns: []string{"PROT. 1234-5678-1234"},
			StructureLines: []model.LineItem{
				{Description: "PROD A EXTRA", ReferenceCode: "A123", ColorCode: "OR", Discount: 1.5},
				{Description: "PROD B", ReferenceCode: "B456"},
			},
		},
	}

	fresh := &model.Invoice{
		DocumentNumber: "F99",
		Lines: []model.LineItem{
			{Description: "PROD A PROT. 1234-5678-1234 EXTRA", Quantity: 2, AmountExclTax: 40},
			{Description: "PROD B", ReferenceCode: "BX999", Quantity: 1, AmountExclTax: 10},
		},
	}

	got, replayed := NewApplier().Apply(p, fresh)

	require.False(t, replayed, "different document number must not replay")
	assert.Equal(t, "PROD A EXTRA", got.Lines[0].Description, "noise fragment stripped, whitespace tidied")
	assert.Equal(t, "A123", got.Lines[0].ReferenceCode, "empty field filled positionally")
	assert.Equal(t, "OR", got.Lines[0].ColorCode)
	assert.InDelta(t, 1.5, got.Lines[0].Discount, 0.001)
	assert.Equal(t, "BX999", got.Lines[1].ReferenceCode, "extracted value never overwritten")
	assert.InDelta(t, 2.0, got.Lines[0].Quantity, 0.001)
}

func TestApplierSkipsPositionalFillOnLineCountMismatch(t *testing.T) {
	p := &model.ParsingProfile{
		ID:        "stem-1",
		Signature: model.NewSignature("supplier-stem"),
		Rules: &model.LearnedRules{
			StructureLines: []model.LineItem{
				{ReferenceCode: "VB12"},
				{ReferenceCode: "VB13"},
			},
		},
	}
	fresh := &model.Invoice{
		DocumentNumber: "2024/0911",
		Lines:          []model.LineItem{{Description: "VERRE", Quantity: 1, AmountExclTax: 5}},
	}

	got, replayed := NewApplier().Apply(p, fresh)
	require.False(t, replayed)
	assert.Empty(t, got.Lines[0].ReferenceCode)
}

func TestApplierWithoutRules(t *testing.T) {
	p := &model.ParsingProfile{ID: "stem-1", Signature: model.NewSignature("supplier-stem")}
	fresh := &model.Invoice{
		DocumentNumber: "2024/0911",
		Lines:          []model.LineItem{{Description: "VERRE", Quantity: 1, AmountExclTax: 5}},
	}

	got, replayed := NewApplier().Apply(p, fresh)
	require.False(t, replayed)
	assert.Equal(t, fresh.Lines, got.Lines)
	assert.Equal(t, 1, p.UseCount)
}
