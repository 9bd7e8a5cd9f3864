// Package profile implements the adaptive half of the engine: matching
// freshly extracted documents against stored parsing profiles, applying
// a matched profile's memorized structure or learned rules, and folding
// user corrections back into the profiles.
package profile

import (
	"log/slog"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/signature"
)

// DefaultSimilarityThreshold is the minimum Jaccard similarity for a
// signature-based profile match.
const DefaultSimilarityThreshold = 0.4

// Matcher selects the best stored profile for an extracted invoice.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher with the given similarity threshold.
// Out-of-range thresholds fall back to the default.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Matcher{threshold: threshold}
}

// Match evaluates candidates in strict priority order, short-circuiting
// on the first hit:
//
//  1. exact normalized document number against a memorized invoice
//  2. exact source filename against a memorized invoice
//  3. highest signature similarity, accepted only above the threshold
//  4. the most recently used profile holding a full memorized model
//
// Profiles without a signature are treated as absent. Returns nil when
// nothing usable matches.
func (m *Matcher) Match(profiles []*model.ParsingProfile, inv *model.Invoice, sig model.Signature) *model.ParsingProfile {
	candidates := validProfiles(profiles)
	if len(candidates) == 0 {
		return nil
	}

	if p := matchByNumber(candidates, inv); p != nil {
		return p
	}

	if inv.SourceFileName != "" {
		for _, p := range candidates {
			if p.MemorizedInvoice != nil && p.MemorizedInvoice.SourceFileName == inv.SourceFileName {
				return p
			}
		}
	}

	if p := m.matchBySignature(candidates, sig); p != nil {
		return p
	}

	var recent *model.ParsingProfile
	for _, p := range candidates {
		if p.MemorizedInvoice == nil {
			continue
		}
		if recent == nil || p.LastUsed.After(recent.LastUsed) {
			recent = p
		}
	}
	return recent
}

// Identify finds the stored profile that IS the corrected document's
// layout: an exact normalized document number against a memorized
// invoice, or signature similarity at or above the threshold. The
// filename and recency fallbacks are not consulted; a correction for an
// unseen layout must yield nil so that a fresh profile is created.
func (m *Matcher) Identify(profiles []*model.ParsingProfile, inv *model.Invoice, sig model.Signature) *model.ParsingProfile {
	candidates := validProfiles(profiles)
	if p := matchByNumber(candidates, inv); p != nil {
		return p
	}
	return m.matchBySignature(candidates, sig)
}

func validProfiles(profiles []*model.ParsingProfile) []*model.ParsingProfile {
	var candidates []*model.ParsingProfile
	for _, p := range profiles {
		if p.Valid() {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

func matchByNumber(candidates []*model.ParsingProfile, inv *model.Invoice) *model.ParsingProfile {
	number := inv.NormalizedNumber()
	if number == "" {
		return nil
	}
	for _, p := range candidates {
		if p.MemorizedInvoice != nil && p.MemorizedInvoice.NormalizedNumber() == number {
			return p
		}
	}
	return nil
}

func (m *Matcher) matchBySignature(candidates []*model.ParsingProfile, sig model.Signature) *model.ParsingProfile {
	var best *model.ParsingProfile
	var bestScore float64
	for _, p := range candidates {
		if score := signature.Jaccard(sig, p.Signature); score > bestScore {
			best, bestScore = p, score
		}
	}
	if best == nil || bestScore < m.threshold {
		return nil
	}
	slog.Debug("profile matched by signature similarity",
		"profile", best.ID,
		"score", bestScore,
	)
	return best
}
