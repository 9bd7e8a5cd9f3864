package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDocumentNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "plain digits", input: "8842", expect: "8842"},
		{name: "lowercase prefix", input: "fc 12345", expect: "FC12345"},
		{name: "surrounding whitespace", input: "  FC 12345  ", expect: "FC12345"},
		{name: "slash format", input: "2024 / 0817", expect: "2024/0817"},
		{name: "empty", input: "", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, NormalizeDocumentNumber(tt.input))
		})
	}
}

func TestInvoiceClone(t *testing.T) {
	delivery := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	inv := &Invoice{
		ID:             "inv-1",
		Supplier:       "lehmann",
		DocumentNumber: "FC 12345",
		DocumentDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		DeliveryDate:   &delivery,
		SourceFileName: "facture-mars.txt",
		Lines: []LineItem{
			{Description: "VERRE A VIN", ReferenceCode: "VER0012", Quantity: 24, UnitPriceExclTax: 3.9, AmountExclTax: 93.6},
		},
		TotalExclTax: 93.6,
		RawData:      &RawData{Text: "raw", Excerpts: []string{"a", "b"}},
	}

	clone := inv.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, inv, clone)

	clone.Lines[0].Description = "changed"
	clone.RawData.Excerpts[0] = "changed"
	*clone.DeliveryDate = time.Time{}

	assert.Equal(t, "VERRE A VIN", inv.Lines[0].Description)
	assert.Equal(t, "a", inv.RawData.Excerpts[0])
	assert.Equal(t, delivery, *inv.DeliveryDate)
}

func TestSignatureJSONStable(t *testing.T) {
	sig := NewSignature("supplier-stem", "lines-4", "numero-slash")

	first, err := json.Marshal(sig)
	require.NoError(t, err)
	second, err := json.Marshal(sig)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.JSONEq(t, `["lines-4","numero-slash","supplier-stem"]`, string(first))

	var restored Signature
	require.NoError(t, json.Unmarshal(first, &restored))
	assert.Equal(t, sig, restored)
}

func TestProfileRoundTrip(t *testing.T) {
	profile := ParsingProfile{
		ID:        "stem-1",
		Supplier:  "stem",
		Signature: NewSignature("supplier-stem", "lines-2"),
		MemorizedInvoice: &Invoice{
			ID:             "inv-9",
			DocumentNumber: "2024/0817",
			DocumentDate:   time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
			ImportedAt:     time.Date(2024, 6, 22, 10, 30, 0, 0, time.UTC),
			Lines:          []LineItem{{Description: "FLUTE 15CL", Quantity: 12, AmountExclTax: 48}},
		},
		Rules: &LearnedRules{
			RemovePatterns: []string{" PROT."},
			NumberPatterns: []string{`FACTURE\s+(\d+/\d+)`},
			StructureLines: []LineItem{{Description: "FLUTE 15CL", Quantity: 12, AmountExclTax: 48}},
		},
		LastUsed: time.Date(2024, 6, 22, 10, 30, 0, 0, time.UTC),
		UseCount: 3,
	}

	data, err := json.Marshal(profile)
	require.NoError(t, err)

	var restored ParsingProfile
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, profile, restored)
}

func TestProfileValid(t *testing.T) {
	assert.False(t, (*ParsingProfile)(nil).Valid())
	assert.False(t, (&ParsingProfile{ID: "x-1"}).Valid())
	assert.True(t, (&ParsingProfile{ID: "x-1", Signature: NewSignature("supplier-x")}).Valid())
}
