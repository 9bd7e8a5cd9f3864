package model

import (
	"encoding/json"
	"sort"
	"time"
)

// Signature is a coarse, deterministic fingerprint of a document layout,
// expressed as an unordered set of short feature tokens. It is used only
// for similarity comparison between documents and is never an identifier
// of record.
type Signature map[string]struct{}

// NewSignature builds a signature from a list of tokens.
func NewSignature(tokens ...string) Signature {
	s := make(Signature, len(tokens))
	for _, t := range tokens {
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// Add inserts a token into the signature.
func (s Signature) Add(token string) {
	if token != "" {
		s[token] = struct{}{}
	}
}

// Contains reports whether the signature carries the given token.
func (s Signature) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Tokens returns the sorted token list.
func (s Signature) Tokens() []string {
	tokens := make([]string, 0, len(s))
	for t := range s {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// MarshalJSON serializes the signature as a sorted token array so that
// persisted profiles are byte-stable across runs.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tokens())
}

// UnmarshalJSON restores a signature from a token array.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	*s = NewSignature(tokens...)
	return nil
}

// LearnedRules holds the incremental field-transformation rules of a
// parsing profile. Rules are only ever added or refined, never removed.
type LearnedRules struct {
	// RemovePatterns are literal substrings stripped from line
	// descriptions, learned from recurring correction diffs.
	RemovePatterns []string `json:"remove_patterns,omitempty"`
	// NumberPatterns are prioritized document-number regular expressions
	// inferred from the raw text around a corrected number. They are
	// evaluated before an extractor's built-in cascade.
	NumberPatterns []string `json:"number_patterns,omitempty"`
	// StructureLines is the corrected line snapshot used for positional
	// correction when a fresh extraction yields the same line count.
	StructureLines []LineItem `json:"structure_lines,omitempty"`
}

// ParsingProfile is a learned description of one document layout variant
// for one supplier.
type ParsingProfile struct {
	LastUsed         time.Time     `json:"last_used"`
	MemorizedInvoice *Invoice      `json:"memorized_invoice,omitempty"`
	Rules            *LearnedRules `json:"rules,omitempty"`
	ID               string        `json:"id"`
	Supplier         string        `json:"supplier"`
	Signature        Signature     `json:"signature"`
	UseCount         int           `json:"use_count"`
}

// Valid reports whether the stored profile is usable. Profiles without a
// signature are treated as absent by the matcher and the learner.
func (p *ParsingProfile) Valid() bool {
	return p != nil && len(p.Signature) > 0
}
