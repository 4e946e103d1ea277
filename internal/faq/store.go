// Package faq implements the keyword-matched canned answer store consulted
// before the response generator.
package faq

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entry pairs a keyword set with its canned answer.
type Entry struct {
	Keywords []string `json:"keywords"`
	Answer   string   `json:"answer"`
}

// Store is an ordered collection of entries, loaded once at startup.
type Store struct {
	entries []Entry
}

// NewStore wraps in-memory entries, mainly for tests.
func NewStore(entries []Entry) *Store {
	return &Store{entries: entries}
}

// LoadStore reads FAQ entries from a JSON file.
func LoadStore(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read FAQ store: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse FAQ store: %w", err)
	}

	return &Store{entries: entries}, nil
}

// Len returns the entry count.
func (s *Store) Len() int {
	return len(s.entries)
}

// Match returns the answer of the first entry with a keyword contained in
// the lowercased text. First match wins.
func (s *Store) Match(text string) (string, bool) {
	probe := strings.ToLower(text)
	for _, e := range s.entries {
		for _, kw := range e.Keywords {
			if kw != "" && strings.Contains(probe, strings.ToLower(kw)) {
				return e.Answer, true
			}
		}
	}
	return "", false
}
