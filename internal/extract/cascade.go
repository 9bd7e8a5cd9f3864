package extract

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Kdotropez/facture-fournisseur/internal/textutil"
)

// fieldPattern couples one candidate regular expression with an optional
// normalizer applied to its captured value.
type fieldPattern struct {
	re        *regexp.Regexp
	normalize func(string) string
}

// Cascade is an ordered list of candidate patterns for one field,
// evaluated first-match-wins. Supplier layouts have no grammar; a cascade
// keeps the fallback chain data-driven and testable per pattern.
type Cascade struct {
	patterns []fieldPattern
}

// NewCascade builds an empty cascade.
func NewCascade() *Cascade {
	return &Cascade{}
}

// Add appends a built-in pattern. The expression must compile; built-in
// patterns are authored constants, so a bad one is a programmer error.
func (c *Cascade) Add(expr string, normalize func(string) string) *Cascade {
	c.patterns = append(c.patterns, fieldPattern{
		re:        regexp.MustCompile(expr),
		normalize: normalize,
	})
	return c
}

// Prepend inserts learned patterns ahead of the built-in ones. Learned
// expressions come from stored profiles and may no longer compile; those
// are skipped with a log instead of failing the extraction.
func (c *Cascade) Prepend(exprs []string) *Cascade {
	learned := make([]fieldPattern, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			slog.Warn("skipping invalid learned pattern", "pattern", expr, "error", err)
			continue
		}
		learned = append(learned, fieldPattern{re: re})
	}
	c.patterns = append(learned, c.patterns...)
	return c
}

// First returns the first non-empty value produced by the cascade.
func (c *Cascade) First(text string) (string, bool) {
	for _, p := range c.patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := m[0]
		if len(m) > 1 {
			value = m[1]
		}
		if p.normalize != nil {
			value = p.normalize(value)
		}
		value = strings.TrimSpace(value)
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// FirstDate runs the cascade and parses the winning value as a date.
func (c *Cascade) FirstDate(text string) (time.Time, bool) {
	for _, p := range c.patterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			value := m[0]
			if len(m) > 1 {
				value = m[1]
			}
			if t, err := textutil.ParseDate(value); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// numberFromFilename derives a fallback document number from the source
// file name: the last digit-led run of the base name, or the whole base
// name when it carries no digits.
func numberFromFilename(name string) string {
	base := name
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if m := filenameNumber.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return base
}

var filenameNumber = regexp.MustCompile(`(\d[\dA-Za-z/-]*)\D*$`)
