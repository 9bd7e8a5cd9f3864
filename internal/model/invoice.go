// Package model defines the core data structures for the facture application.
package model

import (
	"strings"
	"time"
)

// LineItem represents one itemized entry of a supplier invoice.
type LineItem struct {
	Description           string  `json:"description"`
	TranslatedDescription string  `json:"translated_description,omitempty"`
	ReferenceCode         string  `json:"reference_code,omitempty"`
	ApprovalCode          string  `json:"approval_code,omitempty"`
	LogoMarking           string  `json:"logo_marking,omitempty"`
	ColorCode             string  `json:"color_code,omitempty"`
	Quantity              float64 `json:"quantity"`
	UnitPriceExclTax      float64 `json:"unit_price_excl_tax"`
	Discount              float64 `json:"discount"`
	AmountExclTax         float64 `json:"amount_excl_tax"`
}

// RawData carries the source text and debug excerpts captured during extraction.
type RawData struct {
	Text     string   `json:"text,omitempty"`
	Excerpts []string `json:"excerpts,omitempty"`
}

// Invoice represents a single structured supplier document.
//
// AmountExclTax on each line is authoritative: it may legitimately diverge
// from quantity*unitPrice-discount because of rounding in the source, and
// extractors must flag such divergence as a warning instead of fixing it.
type Invoice struct {
	DocumentDate   time.Time  `json:"document_date"`
	ImportedAt     time.Time  `json:"imported_at"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	RawData        *RawData   `json:"raw_data,omitempty"`
	ID             string     `json:"id"`
	Supplier       string     `json:"supplier"`
	DocumentNumber string     `json:"document_number"`
	SourceFileName string     `json:"source_file_name"`
	Lines          []LineItem `json:"lines"`
	TotalExclTax   float64    `json:"total_excl_tax"`
	TotalTax       float64    `json:"total_tax"`
	TotalInclTax   float64    `json:"total_incl_tax"`
}

// NormalizedNumber returns the document number in canonical comparison form:
// uppercased with surrounding and internal whitespace removed.
func (inv *Invoice) NormalizedNumber() string {
	return NormalizeDocumentNumber(inv.DocumentNumber)
}

// NormalizeDocumentNumber canonicalizes a document number for comparison.
func NormalizeDocumentNumber(number string) string {
	fields := strings.Fields(strings.ToUpper(number))
	return strings.Join(fields, "")
}

// Clone returns a deep copy of the invoice. Invoices handed out by the
// engine are never mutated in place; every correction or replay works on
// a copy.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	if inv.DeliveryDate != nil {
		d := *inv.DeliveryDate
		out.DeliveryDate = &d
	}
	if inv.RawData != nil {
		rd := RawData{Text: inv.RawData.Text}
		rd.Excerpts = append(rd.Excerpts, inv.RawData.Excerpts...)
		out.RawData = &rd
	}
	out.Lines = make([]LineItem, len(inv.Lines))
	copy(out.Lines, inv.Lines)
	return &out
}
