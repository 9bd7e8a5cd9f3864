package extract

import (
	"context"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// Italesse extracts the Italesse dialect family: Italian layouts with
// English or Italian keywords, dot-decimal comma-thousand numbers and a
// color-code column between the description and the quantity.
type Italesse struct {
	catalog CatalogReader
}

// NewItalesse creates the Italesse extractor.
func NewItalesse(catalog CatalogReader) *Italesse {
	return &Italesse{catalog: catalog}
}

// Supplier returns the canonical supplier slug.
func (e *Italesse) Supplier() string { return "italesse" }

var italesseTableStart = []string{"code", "description", "q.ty", "qty", "unit price", "amount", "col"}
var italesseTableEnd = []string{"total", "totale"}

func italesseNumberCascade(learned []string) *Cascade {
	return NewCascade().
		Add(`(?i)invoice\s*(?:no\.?|n°|#)?\s*[:]?\s*(IT[-\s]?\d{3,6})`, strings.ToUpper).
		Add(`(?i)fattura\s*n\.?\s*[:]?\s*([A-Z0-9][\w/-]*)`, strings.ToUpper).
		Add(`(?i)invoice\s*(?:no\.?|n°|#)?\s*[:]?\s*([A-Z0-9][\w/-]*)`, nil).
		Prepend(learned)
}

func italesseDateCascade() *Cascade {
	return NewCascade().
		Add(`(?i)date\s*[:]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`, nil).
		Add(`(?i)del\s+(\d{1,2}/\d{1,2}/\d{4})`, nil).
		Add(`\b(\d{2}/\d{2}/\d{4})\b`, nil)
}

// Strict grammar carries the color column; the loose one drops it.
var italesseRowGrammars = []rowGrammar{
	newRowGrammar("code-desc-color-qty-unit-amount",
		`^([A-Z]{2,3}\d{3,5})\s+(.+?)\s+([A-Z]{2,4})\s+(\d+(?:\.\d+)?)\s+(`+itAmount+`)\s+(`+itAmount+`)$`,
		func(m []string) (model.LineItem, bool) {
			qty, err := textutil.ParseAmount(m[4])
			if err != nil {
				return model.LineItem{}, false
			}
			return model.LineItem{
				ReferenceCode:    m[1],
				Description:      strings.TrimSpace(m[2]),
				ColorCode:        m[3],
				Quantity:         qty,
				UnitPriceExclTax: parseAmountDefault(m[5], 0),
				AmountExclTax:    parseAmountDefault(m[6], 0),
			}, true
		}),
	newRowGrammar("code-desc-qty-unit-amount",
		`^([A-Z]{2,3}\d{3,5})\s+(.+?)\s+(\d+(?:\.\d+)?)\s+(`+itAmount+`)\s+(`+itAmount+`)$`,
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

// Extract parses an Italesse document.
func (e *Italesse) Extract(ctx context.Context, doc Document) *Result {
	res := &Result{Invoice: minimalInvoice(e.Supplier(), doc.SourceFileName)}
	text := textutil.NormalizeWhitespace(doc.RawText)
	lines := textutil.Lines(doc.RawText)
	res.Invoice.RawData = &model.RawData{Text: text}

	if number, ok := italesseNumberCascade(doc.NumberPatterns).First(text); ok {
		res.Invoice.DocumentNumber = number
	} else {
		res.Warnf("document number not found; derived %q from file name", res.Invoice.DocumentNumber)
	}

	if date, ok := italesseDateCascade().FirstDate(text); ok {
		res.Invoice.DocumentDate = date
	} else {
		res.Warnf("document date not found; defaulting to today")
	}

	if v, excerpt, ok := lastAmountAfterExcluding(lines,
		[]string{"totale imponibile", "taxable amount", "total"},
		[]string{"amount", "vat", "iva", "incl"}); ok {
		res.Invoice.TotalExclTax = v
		res.Invoice.RawData.Excerpts = append(res.Invoice.RawData.Excerpts, excerpt)
	} else {
		res.Warnf("total excl. tax not found")
	}
	if v, _, ok := lastAmountAfter(lines, []string{"vat", "iva"}); ok {
		res.Invoice.TotalTax = v
	}
	if v, _, ok := lastAmountAfter(lines, []string{"total amount", "totale documento"}); ok {
		res.Invoice.TotalInclTax = v
	}

	regions := tableRegions(lines, italesseTableStart, italesseTableEnd)
	if len(regions) == 0 {
		res.Warnf("item table not located")
	}
	res.Invoice.Lines = matchRows(lines, regions, italesseRowGrammars)

	return finish(ctx, e.catalog, res)
}
