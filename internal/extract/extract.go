// Package extract implements the per-supplier heuristic extractors that
// turn raw document text into structured invoices. Each supplier family
// has its own extractor; unknown suppliers fall back to a generic one.
// Extraction never fails hard: malformed input degrades into a minimal
// invoice plus warnings and errors, so the caller always receives a
// usable record.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// Document is the input handed to an extractor: text already recovered
// from the source PDF by the upstream collaborator, plus learned
// document-number patterns from the supplier's profiles.
type Document struct {
	RawText        string
	SourceFileName string
	// NumberPatterns are prioritized, profile-learned regular expressions
	// tried before the extractor's built-in number cascade.
	NumberPatterns []string
}

// Result is the outcome of one extraction attempt. Warnings are
// non-fatal degradations; Errors are fatal for confidence but still come
// with a best-effort invoice.
type Result struct {
	Invoice  model.Invoice
	Warnings []string
	Errors   []string
}

// Warnf appends a formatted warning.
func (r *Result) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Errorf appends a formatted error.
func (r *Result) Errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// CatalogReader is the read side of the reference catalog, used to
// backfill garbled descriptions from learned reference codes.
type CatalogReader interface {
	Lookup(ctx context.Context, supplier, referenceCode string) (string, bool)
}

// Extractor converts raw supplier text into a structured invoice.
type Extractor interface {
	// Supplier returns the supplier identifier this extractor handles.
	Supplier() string
	// Extract parses the document. It never returns nil.
	Extract(ctx context.Context, doc Document) *Result
}

// Registry maps supplier identifiers to their extractors, falling back
// to the generic extractor for suppliers without a dedicated one.
type Registry struct {
	extractors map[string]Extractor
	catalog    CatalogReader
}

// NewRegistry creates a registry with all built-in supplier extractors.
func NewRegistry(catalog CatalogReader) *Registry {
	r := &Registry{
		extractors: make(map[string]Extractor),
		catalog:    catalog,
	}
	r.Register(NewRBDrinks(catalog))
	r.Register(NewLehmann(catalog))
	r.Register(NewItalesse(catalog))
	r.Register(NewStem(catalog))
	return r
}

// Register adds or replaces the extractor for a supplier. Registration is
// keyed on the supplier slug, so "RB Drinks" and "rb-drinks" select the
// same extractor.
func (r *Registry) Register(e Extractor) {
	r.extractors[textutil.Slug(e.Supplier())] = e
}

// Lookup returns the extractor for the supplier, or a generic extractor
// bound to that supplier name when none is registered.
func (r *Registry) Lookup(supplier string) Extractor {
	if e, ok := r.extractors[textutil.Slug(supplier)]; ok {
		return e
	}
	return NewGeneric(supplier, r.catalog)
}

// Run executes an extractor with panic isolation. A panicking extractor
// is converted into a minimal placeholder invoice plus a fatal error
// message, per the structural-error contract.
func Run(ctx context.Context, e Extractor, doc Document) (res *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("extractor panicked",
				"supplier", e.Supplier(),
				"source_file", doc.SourceFileName,
				"panic", rec)
			res = &Result{Invoice: minimalInvoice(e.Supplier(), doc.SourceFileName)}
			res.Errorf("extraction failed for %s: %v; manual completion required", doc.SourceFileName, rec)
			ensurePlaceholderLine(res)
		}
	}()
	return e.Extract(ctx, doc)
}

// minimalInvoice builds the empty fallback record: document number derived
// from the file name, import timestamp set, everything else zero.
func minimalInvoice(supplier, sourceFileName string) model.Invoice {
	return model.Invoice{
		ID:             uuid.NewString(),
		Supplier:       supplier,
		DocumentNumber: numberFromFilename(sourceFileName),
		DocumentDate:   time.Now().UTC(),
		SourceFileName: sourceFileName,
		ImportedAt:     time.Now().UTC(),
	}
}
