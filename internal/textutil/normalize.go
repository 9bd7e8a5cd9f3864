// Package textutil provides locale-aware normalization of the noisy text
// recovered from supplier documents: numeric and date canonicalization,
// whitespace and page-boundary cleanup, and accent folding for keyword
// comparison over French and Italian layouts.
package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var currencyMarkers = regexp.MustCompile(`(?i)(€|\$|\beuros?\b|\beur\b|\bht\b|\bttc\b)`)

// ParseAmount converts a locale-formatted numeric string ("1.234,56",
// "1,234.56", "1 200,00", "120.50") into a float64.
//
// When both separators are present the last one wins as the decimal mark.
// A single separator followed by exactly three digits is read as a
// thousands separator; one or two trailing digits make it a decimal mark.
func ParseAmount(s string) (float64, error) {
	cleaned := currencyMarkers.ReplaceAllString(s, " ")
	cleaned = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == ',' || r == '.' || r == '-':
			return r
		default:
			return -1
		}
	}, cleaned)

	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("no numeric content in %q", s)
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = resolveSingleSeparator(cleaned, ",")
	case lastDot >= 0:
		cleaned = resolveSingleSeparator(cleaned, ".")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return value, nil
}

// resolveSingleSeparator decides whether the only separator present is a
// decimal mark or a thousands separator and rewrites the string to use a
// dot decimal.
func resolveSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.LastIndex(s, sep)
	trailing := len(s) - idx - 1
	// Three trailing digits read as a thousands group, except after a
	// lone zero: "0,125" can only be a decimal.
	integer := strings.TrimPrefix(s[:idx], "-")
	if trailing == 3 && idx > 0 && integer != "0" {
		return strings.ReplaceAll(s, sep, "")
	}
	if sep == "," {
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

var dateLayouts = []string{
	"02/01/2006",
	"02/01/06",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
}

// ParseDate converts a locale-formatted date (DD/MM/YYYY, DD/MM/YY and
// common punctuation variants) into a time.Time in UTC.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

var spaceRun = regexp.MustCompile(`[ \t]+`)

// NormalizeWhitespace canonicalizes line endings, converts tabs and
// non-breaking spaces to plain spaces, collapses space runs and trims
// trailing whitespace on every line. Form feeds are preserved so page
// boundaries survive normalization.
func NormalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, " ", " ")
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

// Pages splits document text on form-feed boundaries, the page marker
// emitted by the upstream PDF text extraction. Single-page documents come
// back as one element.
func Pages(text string) []string {
	return strings.Split(text, "\f")
}

// Lines returns normalized, non-empty lines of the text.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(NormalizeWhitespace(text), "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\f")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FoldAccents removes diacritical marks: "Désignation" becomes
// "Designation". Supplier layouts are inconsistent about accents in their
// own column headers, so keyword matching always runs on folded text.
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a supplier name into its canonical lowercase token:
// "RB Drinks" becomes "rb-drinks".
func Slug(s string) string {
	folded := strings.ToLower(FoldAccents(s))
	folded = nonSlug.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}
