package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// Lehmann extracts the Lehmann dialect family: engraved glassware
// invoices whose rows carry approval protocol codes ("BAT",
// dddd-dddd-dddd) inside the description and whose markings ("MARQUAGE
// LOGO OR") appear on a continuation line under the item row.
type Lehmann struct {
	catalog CatalogReader
}

// NewLehmann creates the Lehmann extractor.
func NewLehmann(catalog CatalogReader) *Lehmann {
	return &Lehmann{catalog: catalog}
}

// Supplier returns the canonical supplier slug.
func (e *Lehmann) Supplier() string { return "lehmann" }

var lehmannTableStart = []string{"ref", "designation", "qte", "montant"}
var lehmannTableEnd = []string{"total"}

var lehmannApprovalCode = regexp.MustCompile(`\b(\d{4}-\d{4}-\d{4})\b`)
var lehmannMarking = regexp.MustCompile(`(?i)^marquage\s+(.+)$`)

func lehmannNumberCascade(learned []string) *Cascade {
	return NewCascade().
		Add(`(?i)facture\s*n°?\s*[:.]?\s*(F\s?\d{1,6})`, strings.ToUpper).
		Add(`(?i)\b(F\d{1,6})\b`, strings.ToUpper).
		Add(`(?i)facture\s*n°?\s*[:.]?\s*(\d{1,6})`, nil).
		Prepend(learned)
}

func lehmannDateCascade() *Cascade {
	return NewCascade().
		Add(`(?i)date\s*[:]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`, nil).
		Add(`\b(\d{2}/\d{2}/\d{4})\b`, nil)
}

// Reference codes are one letter plus digits; the description runs until
// the three numeric columns. The raw description is kept as found,
// protocol noise included: cleaning it up is the learning subsystem's
// job, not the extractor's.
var lehmannRowGrammars = []rowGrammar{
	newRowGrammar("ref-desc-qty-pu-montant",
		`^([A-Z]{1,3}\d{2,5})\s+(.+?)\s+(\d+(?:[.,]\d+)?)\s+(`+frAmount+`)\s+(`+frAmount+`)$`,
		func(m []string) (model.LineItem, bool) {
			qty, err := textutil.ParseAmount(m[3])
			if err != nil {
				return model.LineItem{}, false
			}
			item := model.LineItem{
				ReferenceCode:    m[1],
				Description:      strings.TrimSpace(m[2]),
				Quantity:         qty,
				UnitPriceExclTax: parseAmountDefault(m[4], 0),
				AmountExclTax:    parseAmountDefault(m[5], 0),
			}
			if code := lehmannApprovalCode.FindString(item.Description); code != "" {
				item.ApprovalCode = code
			}
			return item, true
		}),
	newRowGrammar("desc-qty-pu-montant",
		`^(.+?)\s+(\d+(?:[.,]\d+)?)\s+(`+frAmount+`)\s+(`+frAmount+`)$`,
		func(m []string) (model.LineItem, bool) {
			qty, err := textutil.ParseAmount(m[2])
			if err != nil {
				return model.LineItem{}, false
			}
			item := model.LineItem{
				Description:      strings.TrimSpace(m[1]),
				Quantity:         qty,
				UnitPriceExclTax: parseAmountDefault(m[3], 0),
				AmountExclTax:    parseAmountDefault(m[4], 0),
			}
			if code := lehmannApprovalCode.FindString(item.Description); code != "" {
				item.ApprovalCode = code
			}
			return item, true
		}),
}

// Extract parses a Lehmann document.
func (e *Lehmann) Extract(ctx context.Context, doc Document) *Result {
	res := &Result{Invoice: minimalInvoice(e.Supplier(), doc.SourceFileName)}
	text := textutil.NormalizeWhitespace(doc.RawText)
	lines := textutil.Lines(doc.RawText)
	res.Invoice.RawData = &model.RawData{Text: text}

	if number, ok := lehmannNumberCascade(doc.NumberPatterns).First(text); ok {
		res.Invoice.DocumentNumber = number
	} else {
		res.Warnf("document number not found; derived %q from file name", res.Invoice.DocumentNumber)
	}

	if date, ok := lehmannDateCascade().FirstDate(text); ok {
		res.Invoice.DocumentDate = date
	} else {
		res.Warnf("document date not found; defaulting to today")
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

	regions := tableRegions(lines, lehmannTableStart, lehmannTableEnd)
	if len(regions) == 0 {
		res.Warnf("item table not located")
	}
	rows := matchRowsIndexed(lines, regions, lehmannRowGrammars)

	// Marking continuation lines belong to the row right above them.
	items := make([]model.LineItem, len(rows))
	for i, row := range rows {
		items[i] = row.Item
		next := row.Line + 1
		if next < len(lines) {
			if m := lehmannMarking.FindStringSubmatch(lines[next]); m != nil {
				items[i].LogoMarking = strings.TrimSpace(m[1])
			}
		}
	}
	res.Invoice.Lines = items

	return finish(ctx, e.catalog, res)
}
