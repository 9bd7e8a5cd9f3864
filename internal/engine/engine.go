// Package engine orchestrates the full document pipeline: extraction,
// signature computation, profile matching, rule application, and the
// correction feedback loop.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kdotropez/facture-fournisseur/internal/common"
	"github.com/Kdotropez/facture-fournisseur/internal/extract"
	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/profile"
	"github.com/Kdotropez/facture-fournisseur/internal/signature"
)

// Engine processes raw document text into structured invoices and folds
// user corrections back into the profile store.
type Engine struct {
	profiles ProfileStore
	catalog  Catalog
	registry *extract.Registry
	matcher  *profile.Matcher
	applier  *profile.Applier
	learner  *profile.Learner
}

// Config holds configuration options for the engine.
type Config struct {
	SimilarityThreshold float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: profile.DefaultSimilarityThreshold,
	}
}

// New creates an engine with the default configuration.
func New(profiles ProfileStore, catalog Catalog) *Engine {
	return NewWithConfig(profiles, catalog, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(profiles ProfileStore, catalog Catalog, config Config) *Engine {
	matcher := profile.NewMatcher(config.SimilarityThreshold)
	return &Engine{
		profiles: profiles,
		catalog:  catalog,
		registry: extract.NewRegistry(catalog),
		matcher:  matcher,
		applier:  profile.NewApplier(),
		learner:  profile.NewLearner(catalog, matcher),
	}
}

// Result is the outcome of processing one document.
type Result struct {
	Invoice   *model.Invoice
	ProfileID string
	Warnings  []string
	Errors    []string
	Replayed  bool
}

// Process runs the pipeline on one document. Extraction never fails
// outright (a degraded invoice with recorded errors comes back instead),
// but persistence failures propagate to the caller.
func (e *Engine) Process(ctx context.Context, rawText, sourceFileName, supplier string) (*Result, error) {
	if supplier == "" {
		return nil, fmt.Errorf("%w: supplier", common.ErrMissingConfig)
	}

	profiles, err := e.profiles.List(ctx, supplier)
	if err != nil {
		return nil, fmt.Errorf("loading profiles for %q: %w", supplier, err)
	}

	doc := extract.Document{
		RawText:        rawText,
		SourceFileName: sourceFileName,
		NumberPatterns: learnedNumberPatterns(profiles),
	}
	extracted := extract.Run(ctx, e.registry.Lookup(supplier), doc)
	inv := &extracted.Invoice

	sig := signature.Generate(inv, rawText)
	result := &Result{
		Invoice:  inv,
		Warnings: extracted.Warnings,
		Errors:   extracted.Errors,
	}

	matched := e.matcher.Match(profiles, inv, sig)
	if matched == nil {
		slog.Debug("no profile matched",
			"supplier", supplier,
			"number", inv.DocumentNumber,
		)
		return result, nil
	}

	applied, replayed := e.applier.Apply(matched, inv)
	result.Invoice = applied
	result.ProfileID = matched.ID
	result.Replayed = replayed

	if err := e.profiles.Save(ctx, matched); err != nil {
		return nil, fmt.Errorf("updating profile %q: %w", matched.ID, err)
	}

	slog.Info("profile applied",
		"supplier", supplier,
		"profile", matched.ID,
		"replayed", replayed,
	)
	return result, nil
}

// Learn feeds a user correction back into the profile store and the
// reference catalog. The original extraction may be nil when only the
// corrected document is available.
func (e *Engine) Learn(ctx context.Context, supplier string, original, corrected *model.Invoice, rawText string) (*model.ParsingProfile, error) {
	if supplier == "" {
		return nil, fmt.Errorf("%w: supplier", common.ErrMissingConfig)
	}
	if corrected != nil && corrected.Supplier == "" {
		corrected = corrected.Clone()
		corrected.Supplier = supplier
	}

	profiles, err := e.profiles.List(ctx, supplier)
	if err != nil {
		return nil, fmt.Errorf("loading profiles for %q: %w", supplier, err)
	}

	p, err := e.learner.Learn(ctx, profiles, original, corrected, rawText)
	if err != nil {
		return nil, err
	}
	if err := e.profiles.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving profile for %q: %w", supplier, err)
	}

	slog.Info("correction learned",
		"supplier", supplier,
		"profile", p.ID,
		"remove_rules", len(ruleRemovals(p)),
		"number_patterns", len(ruleNumberPatterns(p)),
	)
	return p, nil
}

// learnedNumberPatterns collects every prioritized number pattern from
// the supplier's profiles, in stable profile order.
func learnedNumberPatterns(profiles []*model.ParsingProfile) []string {
	var patterns []string
	for _, p := range profiles {
		if p == nil || p.Rules == nil {
			continue
		}
		patterns = append(patterns, p.Rules.NumberPatterns...)
	}
	return patterns
}

func ruleRemovals(p *model.ParsingProfile) []string {
	if p.Rules == nil {
		return nil
	}
	return p.Rules.RemovePatterns
}

func ruleNumberPatterns(p *model.ParsingProfile) []string {
	if p.Rules == nil {
		return nil
	}
	return p.Rules.NumberPatterns
}
