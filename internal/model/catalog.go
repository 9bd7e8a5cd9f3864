package model

import "time"

// ReferenceEntry is the canonical description learned for one supplier
// reference code, with usage statistics for merge heuristics.
type ReferenceEntry struct {
	LastUsed    time.Time `json:"last_used"`
	Description string    `json:"description"`
	UseCount    int       `json:"use_count"`
}
