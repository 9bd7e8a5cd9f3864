package extract

import (
	"context"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// Generic is the fallback extractor for suppliers without a dedicated
// one. It only applies layout-independent heuristics: document number,
// date and invoice totals. Line items are rarely recoverable without
// supplier knowledge, so most generic extractions end with the
// placeholder line.
type Generic struct {
	catalog  CatalogReader
	supplier string
}

// NewGeneric creates a generic extractor bound to the supplier it is
// standing in for.
func NewGeneric(supplier string, catalog CatalogReader) *Generic {
	return &Generic{supplier: supplier, catalog: catalog}
}

// Supplier returns the supplier this instance was bound to.
func (e *Generic) Supplier() string { return e.supplier }

var genericTotalExclKeywords = []string{"total ht", "total h.t", "montant ht", "base ht", "total excl"}
var genericTotalTaxKeywords = []string{"total tva", "tva", "vat", "taxe"}
var genericTotalInclKeywords = []string{"total ttc", "net a payer", "total incl", "montant ttc"}

func genericNumberCascade(learned []string) *Cascade {
	return NewCascade().
		Add(`(?i)FACTURE\s*(?:N°|N\b|No\b|Num(?:éro|ero)?)?\s*[:.]?\s*([A-Z]{0,3}\s?\d[\d/-]*)`, nil).
		Add(`(?i)\bN°\s*[:]?\s*([A-Z0-9][\w/-]*)`, nil).
		Add(`(?i)INVOICE\s*(?:No\.?|N°|#)?\s*[:]?\s*([A-Z0-9][\w/-]*)`, nil).
		Prepend(learned)
}

func genericDateCascade() *Cascade {
	return NewCascade().
		Add(`(?i)date\s*(?:de\s+facture)?\s*[:]?\s*(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4})`, nil).
		Add(`\b(\d{2}/\d{2}/\d{4})\b`, nil).
		Add(`\b(\d{2}/\d{2}/\d{2})\b`, nil)
}

// genericRow is deliberately strict: reference code, description, three
// numeric columns. Anything looser produces garbage on arbitrary text.
var genericRowGrammars = []rowGrammar{
	newRowGrammar("ref-desc-qty-pu-amount",
		`^([A-Z]{2,5}[0-9]{2,6})\s+(.+?)\s+(\d+(?:[.,]\d+)?)\s+(`+frAmount+`)\s+(`+frAmount+`)$`,
		func(m []string) (model.LineItem, bool) {
			qty, err := textutil.ParseAmount(m[3])
			if err != nil {
				return model.LineItem{}, false
			}
			return model.LineItem{
				ReferenceCode:    m[1],
				Description:      strings.TrimSpace(m[2]),
				Quantity:         qty,
				UnitPriceExclTax: parseAmountDefault(m[4], 0),
				AmountExclTax:    parseAmountDefault(m[5], 0),
			}, true
		}),
}

// Extract applies the minimal generic heuristics.
func (e *Generic) Extract(ctx context.Context, doc Document) *Result {
	res := &Result{Invoice: minimalInvoice(e.supplier, doc.SourceFileName)}
	text := textutil.NormalizeWhitespace(doc.RawText)
	lines := textutil.Lines(doc.RawText)
	res.Invoice.RawData = &model.RawData{Text: text}

	if number, ok := genericNumberCascade(doc.NumberPatterns).First(text); ok {
		res.Invoice.DocumentNumber = number
	} else {
		res.Warnf("document number not found; derived %q from file name", res.Invoice.DocumentNumber)
	}

	if date, ok := genericDateCascade().FirstDate(text); ok {
		res.Invoice.DocumentDate = date
	} else {
		res.Warnf("document date not found; defaulting to today")
	}

	if v, excerpt, ok := lastAmountAfter(lines, genericTotalExclKeywords); ok {
		res.Invoice.TotalExclTax = v
		res.Invoice.RawData.Excerpts = append(res.Invoice.RawData.Excerpts, excerpt)
	} else {
		res.Warnf("total excl. tax not found")
	}
	if v, _, ok := lastAmountAfter(lines, genericTotalTaxKeywords); ok {
		res.Invoice.TotalTax = v
	}
	if v, _, ok := lastAmountAfter(lines, genericTotalInclKeywords); ok {
		res.Invoice.TotalInclTax = v
	}

	regions := []region{{Start: 0, End: len(lines)}}
	res.Invoice.Lines = matchRows(lines, regions, genericRowGrammars)

	res.Warnf("generic parsing used for supplier %q; review extracted fields", e.supplier)

	return finish(ctx, e.catalog, res)
}
