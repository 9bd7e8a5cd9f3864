package extract

import (
	"context"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// Stem extracts the Stem dialect family: compact single-page French
// layouts numbered year/ordinal ("2024/0817") with a discount column.
type Stem struct {
	catalog CatalogReader
}

// NewStem creates the Stem extractor.
func NewStem(catalog CatalogReader) *Stem {
	return &Stem{catalog: catalog}
}

// Supplier returns the canonical supplier slug.
func (e *Stem) Supplier() string { return "stem" }

var stemTableStart = []string{"ref", "designation", "qte", "remise", "net"}
var stemTableEnd = []string{"total"}

func stemNumberCascade(learned []string) *Cascade {
	return NewCascade().
		Add(`(?i)facture\s*(?:n°)?\s*[:]?\s*(\d{4}/\d{3,5})`, nil).
		Add(`\b(\d{4}/\d{3,5})\b`, nil).
		Add(`(?i)facture\s*(?:n°)?\s*[:]?\s*(\d{3,8})`, nil).
		Prepend(learned)
}

func stemDateCascade() *Cascade {
	return NewCascade().
		Add(`(?i)\bdu\s+(\d{1,2}/\d{1,2}/\d{4})`, nil).
		Add(`(?i)date\s*[:]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`, nil).
		Add(`\b(\d{2}/\d{2}/\d{4})\b`, nil)
}

var stemRowGrammars = []rowGrammar{
	newRowGrammar("ref-desc-qty-pu-remise-net",
		`^([A-Z]{2}\d{2,4})\s+(.+?)\s+(\d+(?:[.,]\d+)?)\s+(`+frAmount+`)\s+(`+frAmount+`)\s+(`+frAmount+`)$`,
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
				Discount:         parseAmountDefault(m[5], 0),
				AmountExclTax:    parseAmountDefault(m[6], 0),
			}, true
		}),
	newRowGrammar("ref-desc-qty-pu-net",
		`^([A-Z]{2}\d{2,4})\s+(.+?)\s+(\d+(?:[.,]\d+)?)\s+(`+frAmount+`)\s+(`+frAmount+`)$`,
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

// Extract parses a Stem document.
func (e *Stem) Extract(ctx context.Context, doc Document) *Result {
	res := &Result{Invoice: minimalInvoice(e.Supplier(), doc.SourceFileName)}
	text := textutil.NormalizeWhitespace(doc.RawText)
	lines := textutil.Lines(doc.RawText)
	res.Invoice.RawData = &model.RawData{Text: text}

	if number, ok := stemNumberCascade(doc.NumberPatterns).First(text); ok {
		res.Invoice.DocumentNumber = number
	} else {
		res.Warnf("document number not found; derived %q from file name", res.Invoice.DocumentNumber)
	}

	if date, ok := stemDateCascade().FirstDate(text); ok {
		res.Invoice.DocumentDate = date
	} else {
		res.Warnf("document date not found; defaulting to today")
	}

	if v, excerpt, ok := lastAmountAfter(lines, []string{"total h.t", "total ht"}); ok {
		res.Invoice.TotalExclTax = v
		res.Invoice.RawData.Excerpts = append(res.Invoice.RawData.Excerpts, excerpt)
	} else {
		res.Warnf("total excl. tax not found")
	}
	if v, _, ok := lastAmountAfter(lines, []string{"total tva", "tva"}); ok {
		res.Invoice.TotalTax = v
	}
	if v, _, ok := lastAmountAfter(lines, []string{"total ttc", "net a payer"}); ok {
		res.Invoice.TotalInclTax = v
	}

	regions := tableRegions(lines, stemTableStart, stemTableEnd)
	if len(regions) == 0 {
		res.Warnf("item table not located")
	}
	res.Invoice.Lines = matchRows(lines, regions, stemRowGrammars)

	return finish(ctx, e.catalog, res)
}
