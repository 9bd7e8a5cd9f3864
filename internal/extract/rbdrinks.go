package extract

import (
	"context"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// RBDrinks extracts the RB Drinks dialect family: French multi-page
// layouts with an "FC" numbering prefix, a six-column item table
// (reference, designation, quantity, unit price, discount, amount) and
// intermediate per-page totals that must not be mistaken for the invoice
// total.
type RBDrinks struct {
	catalog CatalogReader
}

// NewRBDrinks creates the RB Drinks extractor.
func NewRBDrinks(catalog CatalogReader) *RBDrinks {
	return &RBDrinks{catalog: catalog}
}

// Supplier returns the canonical supplier slug.
func (e *RBDrinks) Supplier() string { return "rb-drinks" }

var rbdrinksTableStart = []string{"reference", "designation", "qte", "remise", "montant"}
var rbdrinksTableEnd = []string{"total"}

func rbdrinksNumberCascade(learned []string) *Cascade {
	return NewCascade().
		Add(`(?i)facture\s*n°?\s*[:.]?\s*(FC\s?\d{3,6})`, strings.ToUpper).
		Add(`(?i)\b(FC\s?\d{3,6})\b`, strings.ToUpper).
		Add(`(?i)facture\s*n°?\s*[:.]?\s*(\d{3,6})`, nil).
		Prepend(learned)
}

func rbdrinksDateCascade() *Cascade {
	return NewCascade().
		Add(`(?i)date\s*[:]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`, nil).
		Add(`\b(\d{2}/\d{2}/\d{4})\b`, nil)
}

func rbdrinksDeliveryCascade() *Cascade {
	return NewCascade().
		Add(`(?i)livraison\s*(?:le)?\s*[:]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`, nil).
		Add(`(?i)livre\s*le\s*[:]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`, nil)
}

// Six columns, then five without the discount. The strict grammar always
// runs first so a row with a discount is never re-read by the loose one.
var rbdrinksRowGrammars = []rowGrammar{
	newRowGrammar("ref-desc-qty-pu-remise-montant",
		`^([A-Z]{2,4}\d{3,5})\s+(.+?)\s+(\d+(?:[.,]\d+)?)\s+(`+frAmount+`)\s+(`+frAmount+`)\s+(`+frAmount+`)$`,
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
	newRowGrammar("ref-desc-qty-pu-montant",
		`^([A-Z]{2,4}\d{3,5})\s+(.+?)\s+(\d+(?:[.,]\d+)?)\s+(`+frAmount+`)\s+(`+frAmount+`)$`,
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

// Extract parses an RB Drinks document.
func (e *RBDrinks) Extract(ctx context.Context, doc Document) *Result {
	res := &Result{Invoice: minimalInvoice(e.Supplier(), doc.SourceFileName)}
	text := textutil.NormalizeWhitespace(doc.RawText)
	lines := textutil.Lines(doc.RawText)
	res.Invoice.RawData = &model.RawData{Text: text}

	if number, ok := rbdrinksNumberCascade(doc.NumberPatterns).First(text); ok {
		res.Invoice.DocumentNumber = number
	} else {
		res.Warnf("document number not found; derived %q from file name", res.Invoice.DocumentNumber)
	}

	if date, ok := rbdrinksDateCascade().FirstDate(text); ok {
		res.Invoice.DocumentDate = date
	} else {
		res.Warnf("document date not found; defaulting to today")
	}
	if date, ok := rbdrinksDeliveryCascade().FirstDate(text); ok {
		res.Invoice.DeliveryDate = &date
	}

	if v, excerpt, ok := lastAmountAfter(lines, []string{"total ht", "total h.t"}); ok {
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

	regions := tableRegions(lines, rbdrinksTableStart, rbdrinksTableEnd)
	if len(regions) == 0 {
		res.Warnf("item table not located")
	}
	res.Invoice.Lines = matchRows(lines, regions, rbdrinksRowGrammars)

	return finish(ctx, e.catalog, res)
}
