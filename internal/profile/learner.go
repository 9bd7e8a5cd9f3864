package profile

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/Kdotropez/facture-fournisseur/internal/common"
	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/signature"
	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// CatalogWriter records corrected (reference, description) pairs so that
// future extractions can backfill truncated descriptions.
type CatalogWriter interface {
	Remember(ctx context.Context, supplier, referenceCode, description string) error
}

// Learner folds user corrections into parsing profiles. It only ever adds
// or refines rules on a profile, never removes them.
type Learner struct {
	catalog CatalogWriter
	matcher *Matcher
}

// NewLearner creates a learner. The catalog may be nil, in which case
// corrected references are not recorded.
func NewLearner(catalog CatalogWriter, matcher *Matcher) *Learner {
	return &Learner{catalog: catalog, matcher: matcher}
}

// Learn diffs the original extraction against the user-corrected invoice
// and folds the differences into the matching profile, creating a fresh
// one when no stored profile fits. The corrected invoice always becomes
// the profile's memorized model. The returned profile must be persisted
// by the caller.
func (l *Learner) Learn(ctx context.Context, profiles []*model.ParsingProfile, original, corrected *model.Invoice, rawText string) (*model.ParsingProfile, error) {
	if corrected == nil {
		return nil, fmt.Errorf("%w: corrected invoice is required", common.ErrInvalidCorrection)
	}
	sig := signature.Generate(corrected, rawText)

	p := l.matcher.Identify(profiles, corrected, sig)
	if p == nil {
		p = &model.ParsingProfile{
			Supplier:  corrected.Supplier,
			Signature: sig,
		}
		slog.Debug("creating profile for corrected document",
			"supplier", corrected.Supplier,
			"number", corrected.DocumentNumber,
		)
	}
	if p.Rules == nil {
		p.Rules = &model.LearnedRules{}
	}

	p.MemorizedInvoice = corrected.Clone()
	p.Rules.StructureLines = append([]model.LineItem(nil), corrected.Lines...)
	p.LastUsed = time.Now().UTC()

	if original != nil {
		learnRemovals(p.Rules, original, corrected)
		learnNumberPattern(p.Rules, original, corrected, rawText)
	}

	if l.catalog != nil {
		for _, line := range corrected.Lines {
			if line.ReferenceCode == "" || line.Description == "" {
				continue
			}
			if err := l.catalog.Remember(ctx, corrected.Supplier, line.ReferenceCode, line.Description); err != nil {
				return nil, fmt.Errorf("recording corrected reference %q: %w", line.ReferenceCode, err)
			}
		}
	}
	return p, nil
}

// learnRemovals captures recurring noise fragments whose removal turns
// original descriptions into corrected ones. A fragment must appear in
// at least two line diffs, unless the correction touched only a single
// line.
func learnRemovals(rules *model.LearnedRules, original, corrected *model.Invoice) {
	n := min(len(original.Lines), len(corrected.Lines))
	counts := make(map[string]int)
	var order []string
	diffs := 0
	for i := 0; i < n; i++ {
		orig, corr := original.Lines[i].Description, corrected.Lines[i].Description
		if orig == corr {
			continue
		}
		diffs++
		frag := removedFragment(orig, corr)
		if frag == "" {
			continue
		}
		if counts[frag] == 0 {
			order = append(order, frag)
		}
		counts[frag]++
	}
	for _, frag := range order {
		if counts[frag] < 2 && diffs > 1 {
			continue
		}
		if !slices.Contains(rules.RemovePatterns, frag) {
			rules.RemovePatterns = append(rules.RemovePatterns, frag)
		}
	}
}

// removedFragment returns the contiguous fragment whose deletion turns
// orig into corr, or "" when corr is not derived from orig that way.
func removedFragment(orig, corr string) string {
	if len(corr) >= len(orig) {
		return ""
	}
	i := 0
	for i < len(corr) && orig[i] == corr[i] {
		i++
	}
	j := 0
	for j < len(corr)-i && orig[len(orig)-1-j] == corr[len(corr)-1-j] {
		j++
	}
	return strings.TrimSpace(orig[i : len(orig)-j])
}

// learnNumberPattern infers a prioritized document-number pattern from
// the raw text surrounding the corrected number. New patterns are
// prepended so they take precedence over an extractor's built-in
// cascade; existing patterns are never removed.
func learnNumberPattern(rules *model.LearnedRules, original, corrected *model.Invoice, rawText string) {
	if corrected.DocumentNumber == "" || original.NormalizedNumber() == corrected.NormalizedNumber() {
		return
	}
	for _, line := range textutil.Lines(rawText) {
		idx := strings.Index(line, corrected.DocumentNumber)
		if idx < 0 {
			continue
		}
		label := strings.TrimSpace(line[:idx])
		if len(label) > 24 {
			label = strings.TrimSpace(label[len(label)-24:])
		}
		pattern := buildNumberPattern(label, corrected.DocumentNumber)
		if pattern == "" || slices.Contains(rules.NumberPatterns, pattern) {
			return
		}
		if _, err := regexp.Compile(pattern); err != nil {
			slog.Warn("inferred number pattern does not compile",
				"pattern", pattern,
				"error", err,
			)
			return
		}
		rules.NumberPatterns = append([]string{pattern}, rules.NumberPatterns...)
		return
	}
}

// buildNumberPattern generalizes a concrete number into a shape class
// anchored on the literal label preceding it in the raw text.
func buildNumberPattern(label, number string) string {
	var shape strings.Builder
	runes := []rune(number)
	for i := 0; i < len(runes); {
		switch r := runes[i]; {
		case unicode.IsDigit(r):
			shape.WriteString(`\d+`)
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
		case unicode.IsLetter(r):
			shape.WriteString(`[A-Za-z]+`)
			for i < len(runes) && unicode.IsLetter(runes[i]) {
				i++
			}
		case r == ' ':
			shape.WriteString(`\s?`)
			i++
		default:
			shape.WriteString(regexp.QuoteMeta(string(r)))
			i++
		}
	}
	if shape.Len() == 0 {
		return ""
	}
	if label == "" {
		return `(` + shape.String() + `)`
	}
	return `(?i)` + regexp.QuoteMeta(label) + `\s*(` + shape.String() + `)`
}
