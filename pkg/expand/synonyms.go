package expand

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Synonyms maps a lowercased term to its alternatives. Keys may be
// multi-word phrases.
type Synonyms map[string][]string

// Lookup collects synonyms for a query in three passes: an exact match
// on the whole query, a match per query word, then table keys that
// occur as substrings of the query, in sorted key order. Results
// preserve pass order and are deduplicated; terms already present in
// the query are skipped by the caller.
func (s Synonyms) Lookup(query string) []string {
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" {
		return nil
	}

	var terms []string
	seen := make(map[string]bool)
	add := func(values []string) {
		for _, v := range values {
			key := strings.ToLower(v)
			if !seen[key] {
				seen[key] = true
				terms = append(terms, v)
			}
		}
	}

	if values, ok := s[lower]; ok {
		add(values)
	}

	for _, word := range strings.Fields(lower) {
		if values, ok := s[word]; ok {
			add(values)
		}
	}

	var matched []string
	for key := range s {
		if key != lower && strings.Contains(lower, key) {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)
	for _, key := range matched {
		add(s[key])
	}

	return terms
}

// LoadSynonyms reads a synonym table from a YAML file mapping each term
// to a list of alternatives.
func LoadSynonyms(path string) (Synonyms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym file: %w", err)
	}

	raw := make(map[string][]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse synonym file: %w", err)
	}

	synonyms := make(Synonyms, len(raw))
	for key, values := range raw {
		synonyms[strings.ToLower(key)] = values
	}
	return synonyms, nil
}

// DefaultSynonyms covers common methodology vocabulary of empirical
// research corpora; a corpus-specific table should be loaded instead
// where available.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		"iv":                        {"instrumental variables", "instrument"},
		"instrumental variables":    {"iv", "two-stage least squares", "2sls"},
		"did":                       {"difference-in-differences", "diff-in-diff"},
		"difference-in-differences": {"did", "diff-in-diff", "event study"},
		"rct":                       {"randomized controlled trial", "experiment"},
		"rdd":                       {"regression discontinuity design"},
		"regression discontinuity":  {"rdd", "discontinuity design"},
		"fixed effects":             {"within estimator", "panel regression"},
		"matching":                  {"propensity score", "nearest neighbor matching"},
		"causal":                    {"causality", "treatment effect", "identification"},
	}
}
