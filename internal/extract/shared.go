package extract

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

var amountToken = regexp.MustCompile(`-?\d(?:[\d .,\x{00a0}]*\d)?`)

// lastAmountAfter scans the normalized lines for the LAST one carrying any
// of the given keywords and parses the last amount on that line. Scoping
// totals to the last occurrence skips the intermediate per-page totals of
// multi-page documents; taking the last amount on the line skips tax
// rates ("TVA 20% 240,00").
func lastAmountAfter(lines []string, keywords []string) (float64, string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		folded := foldLower(lines[i])
		for _, kw := range keywords {
			idx := strings.Index(folded, kw)
			if idx < 0 {
				continue
			}
			rest := lines[i][idx+len(kw):]
			if v, ok := lastLineAmount(rest); ok {
				return v, lines[i], true
			}
		}
	}
	return 0, "", false
}

// lastAmountAfterExcluding is lastAmountAfter for dialects whose total
// keywords are prefixes of each other ("TOTAL" vs "TOTAL AMOUNT"): lines
// carrying any exclusion keyword are skipped.
func lastAmountAfterExcluding(lines []string, keywords, exclusions []string) (float64, string, bool) {
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		if countKeywords(foldLower(line), exclusions) > 0 {
			continue
		}
		filtered = append(filtered, line)
	}
	return lastAmountAfter(filtered, keywords)
}

// lastLineAmount parses the last amount token of a line fragment,
// ignoring percentages.
func lastLineAmount(s string) (float64, bool) {
	matches := amountToken.FindAllStringIndex(s, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matches[i][0], matches[i][1]
		tail := strings.TrimLeft(s[end:], " ")
		if strings.HasPrefix(tail, "%") {
			continue
		}
		if v, err := textutil.ParseAmount(s[start:end]); err == nil {
			return v, true
		}
	}
	return 0, false
}

// parseAmountDefault reads an amount field captured by a row grammar,
// returning def when the field is empty.
func parseAmountDefault(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := textutil.ParseAmount(s)
	if err != nil {
		return def
	}
	return v
}

// ensurePlaceholderLine guarantees that totals are never silently lost:
// when extraction recovered zero valid rows, exactly one synthetic line
// carrying the invoice-level total is inserted, flagged for manual
// completion.
func ensurePlaceholderLine(res *Result) {
	if len(res.Invoice.Lines) > 0 {
		return
	}
	res.Invoice.Lines = []model.LineItem{{
		Description:      "LIGNE A COMPLETER",
		Quantity:         1,
		UnitPriceExclTax: res.Invoice.TotalExclTax,
		AmountExclTax:    res.Invoice.TotalExclTax,
	}}
	res.Warnf("no line items recovered; a placeholder line carries the invoice total and requires manual completion")
}

// reconcileTotals flags (without fixing) totals that do not add up and
// line amounts that diverge from quantity*unitPrice-discount. Amounts are
// authoritative; divergence is legitimate but must be visible.
func reconcileTotals(res *Result) {
	inv := &res.Invoice
	if inv.TotalInclTax != 0 {
		if math.Abs(inv.TotalExclTax+inv.TotalTax-inv.TotalInclTax) > 0.01 {
			res.Warnf("totals do not reconcile: excl %.2f + tax %.2f != incl %.2f",
				inv.TotalExclTax, inv.TotalTax, inv.TotalInclTax)
		}
	}
	for i, line := range inv.Lines {
		if line.Quantity <= 0 || line.UnitPriceExclTax <= 0 {
			continue
		}
		computed := line.Quantity*line.UnitPriceExclTax - line.Discount
		if math.Abs(computed-line.AmountExclTax) > 0.05 {
			res.Warnf("line %d amount %.2f differs from computed %.2f; source amount kept",
				i+1, line.AmountExclTax, computed)
		}
	}
}

// backfillDescriptions replaces low-information descriptions with the
// canonical one learned for the same reference code.
func backfillDescriptions(ctx context.Context, catalog CatalogReader, res *Result) {
	if catalog == nil {
		return
	}
	for i, line := range res.Invoice.Lines {
		if line.ReferenceCode == "" {
			continue
		}
		if !isWeakDescription(line.Description) {
			continue
		}
		known, ok := catalog.Lookup(ctx, res.Invoice.Supplier, line.ReferenceCode)
		if !ok || len(known) <= len(strings.TrimSpace(line.Description)) {
			continue
		}
		res.Invoice.Lines[i].Description = known
	}
}

// isWeakDescription reports whether a description is likely truncated or
// garbled: too short, or carrying almost no letters.
func isWeakDescription(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 8 {
		return true
	}
	letters := 0
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	return letters < 3
}

// finish applies the shared tail of every extractor: catalog backfill,
// placeholder guarantee and totals reconciliation warnings.
func finish(ctx context.Context, catalog CatalogReader, res *Result) *Result {
	backfillDescriptions(ctx, catalog, res)
	ensurePlaceholderLine(res)
	reconcileTotals(res)
	return res
}
