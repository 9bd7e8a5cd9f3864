package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// region is a half-open line range [Start, End) holding candidate rows.
type region struct {
	Start int
	End   int
}

// tableRegions isolates line-item table regions: a region opens after a
// line carrying at least two header keywords and closes on the first end
// keyword or the next header. Multi-page documents repeat the header, so
// a document may carry several regions.
func tableRegions(lines []string, startKeywords, endKeywords []string) []region {
	var regions []region
	open := -1

	for i, line := range lines {
		folded := foldLower(line)
		if countKeywords(folded, startKeywords) >= 2 {
			if open >= 0 {
				regions = append(regions, region{Start: open, End: i})
			}
			open = i + 1
			continue
		}
		if open >= 0 && countKeywords(folded, endKeywords) >= 1 {
			regions = append(regions, region{Start: open, End: i})
			open = -1
		}
	}
	if open >= 0 && open < len(lines) {
		regions = append(regions, region{Start: open, End: len(lines)})
	}
	return regions
}

func countKeywords(folded string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			n++
		}
	}
	return n
}

func foldLower(s string) string {
	return strings.ToLower(textutil.FoldAccents(s))
}

// headerNoiseKeywords mark lines that look like column headers, footers
// or page furniture rather than item rows.
var headerNoiseKeywords = []string{
	"reference", "designation", "description", "quantite", "qte", "q.ty",
	"montant", "remise", "unit price", "amount", "p.u.", "prix",
	"page", "report", "sous-total", "suite", "siret", "iban", "code",
}

// looksLikeHeader classifies a candidate row as header/footer noise.
func looksLikeHeader(line string) bool {
	return countKeywords(foldLower(line), headerNoiseKeywords) >= 2
}

// Amount-column snippets for row grammars. Internal thousand separators
// are allowed but must group exactly three digits, so a space can never
// be read as both a digit grouper and a column separator.
const frAmount = `(?:\d{1,3}(?:[ .]\d{3})+|\d+)(?:,\d{1,2})?`
const itAmount = `(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?`

// rowGrammar is one way of reading an item row. Grammars are ordered from
// strictest to loosest; a stricter grammar always wins over a looser one
// on the same line.
type rowGrammar struct {
	Parse func(m []string) (model.LineItem, bool)
	re    *regexp.Regexp
	Name  string
}

func newRowGrammar(name, expr string, parse func(m []string) (model.LineItem, bool)) rowGrammar {
	return rowGrammar{Name: name, re: regexp.MustCompile(expr), Parse: parse}
}

// positionedRow pairs an extracted item with the index of the source line
// it was read from.
type positionedRow struct {
	Item model.LineItem
	Line int
}

// matchRows extracts item rows from the given regions, one grammar pass
// at a time. A line consumed by a strict pass is never re-offered to a
// looser grammar, and re-matches of an already-extracted row (same
// reference, quantity, amount and position) are discarded.
func matchRows(lines []string, regions []region, grammars []rowGrammar) []model.LineItem {
	rows := matchRowsIndexed(lines, regions, grammars)
	items := make([]model.LineItem, len(rows))
	for i, r := range rows {
		items[i] = r.Item
	}
	return items
}

// matchRowsIndexed is matchRows with source line positions preserved, for
// extractors that attach continuation lines (markings, engraving notes)
// to the preceding row.
func matchRowsIndexed(lines []string, regions []region, grammars []rowGrammar) []positionedRow {
	var rows []positionedRow
	consumed := make(map[int]bool)
	seen := make(map[string]bool)

	for _, g := range grammars {
		for _, reg := range regions {
			for i := reg.Start; i < reg.End && i < len(lines); i++ {
				if consumed[i] {
					continue
				}
				line := lines[i]
				if looksLikeHeader(line) {
					continue
				}
				m := g.re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				item, ok := g.Parse(m)
				if !ok || item.Quantity <= 0 || item.AmountExclTax <= 0 {
					continue
				}
				key := fmt.Sprintf("%s|%.3f|%.2f|%d", item.ReferenceCode, item.Quantity, item.AmountExclTax, i)
				if seen[key] {
					continue
				}
				seen[key] = true
				consumed[i] = true
				rows = append(rows, positionedRow{Item: item, Line: i})
			}
		}
	}

	sort.Slice(rows, func(a, b int) bool { return rows[a].Line < rows[b].Line })

	return rows
}
