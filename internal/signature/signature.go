// Package signature derives coarse layout fingerprints from extracted
// invoices and compares them. A signature distinguishes dialects of the
// same supplier (multi-page vs single-page, different column sets) without
// attempting to be an identifier of record.
package signature

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// keywords whose mere presence in the raw text separates layout dialects.
var keywordTokens = map[string]string{
	"remise":   "kw-remise",
	"marquage": "kw-marquage",
	"tva":      "kw-tva",
	"bat":      "kw-bat",
	"page":     "kw-page",
}

// Generate computes the layout signature of an invoice and its raw text.
// It is deterministic and insensitive to incidental whitespace differences
// in the source.
func Generate(inv *model.Invoice, rawText string) model.Signature {
	sig := model.NewSignature()
	if inv == nil {
		return sig
	}

	if slug := textutil.Slug(inv.Supplier); slug != "" {
		sig.Add("supplier-" + slug)
	}
	sig.Add(lineCountToken(len(inv.Lines)))

	var hasRef, hasApproval, hasLogo, hasColor, hasDiscount bool
	for _, line := range inv.Lines {
		hasRef = hasRef || line.ReferenceCode != ""
		hasApproval = hasApproval || line.ApprovalCode != ""
		hasLogo = hasLogo || line.LogoMarking != ""
		hasColor = hasColor || line.ColorCode != ""
		hasDiscount = hasDiscount || line.Discount != 0
	}
	if hasRef {
		sig.Add("with-reference")
	}
	if hasApproval {
		sig.Add("with-approval-code")
	}
	if hasLogo {
		sig.Add("with-logo")
	}
	if hasColor {
		sig.Add("with-color")
	}
	if hasDiscount {
		sig.Add("with-discount")
	}

	number := inv.NormalizedNumber()
	if strings.Contains(number, "/") {
		sig.Add("numero-slash")
	}
	if strings.Contains(number, "-") {
		sig.Add("numero-dash")
	}
	if strings.IndexFunc(number, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0 {
		sig.Add("numero-alpha")
	}

	if token := descriptionHash(inv.Lines); token != "" {
		sig.Add(token)
	}

	folded := strings.ToLower(textutil.FoldAccents(textutil.NormalizeWhitespace(rawText)))
	for keyword, token := range keywordTokens {
		if strings.Contains(folded, keyword) {
			sig.Add(token)
		}
	}
	if strings.Contains(rawText, "\f") {
		sig.Add("multipage")
	}

	return sig
}

// lineCountToken buckets the line count: exact for small documents,
// rounded to the nearest five above twelve lines so near-duplicate
// multi-page documents still land in the same bucket.
func lineCountToken(n int) string {
	if n <= 12 {
		return fmt.Sprintf("lines-%d", n)
	}
	return fmt.Sprintf("lines-%d", (n+2)/5*5)
}

// descriptionHash hashes the first few line descriptions so two dialects
// with identical field presence but different product catalogs stay apart.
func descriptionHash(lines []model.LineItem) string {
	if len(lines) == 0 {
		return ""
	}
	h := fnv.New32a()
	for i, line := range lines {
		if i >= 3 {
			break
		}
		folded := strings.ToLower(textutil.FoldAccents(line.Description))
		_, _ = h.Write([]byte(strings.Join(strings.Fields(folded), " ")))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("desc-%08x", h.Sum32())
}

// Jaccard returns the similarity of two signatures: the size of their
// intersection over the size of their union. Two empty signatures compare
// as identical.
func Jaccard(a, b model.Signature) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := 0
	for token := range a {
		if b.Contains(token) {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}
