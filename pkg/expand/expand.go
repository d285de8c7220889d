// Package expand widens search queries before retrieval. Three
// strategies are supported and composable: a curated synonym table, a
// hop into the concept graph around concepts mentioned in the query,
// and an LLM asked for alternative phrasings. Expansion is best-effort:
// a failing strategy is logged and skipped, never surfaced.
package expand

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/researchkb/researchkb/pkg/graph"
	"github.com/researchkb/researchkb/pkg/nlp"
	"github.com/researchkb/researchkb/pkg/types"
)

const (
	// maxGraphSeedConcepts bounds how many matched query concepts are
	// considered for graph expansion.
	maxGraphSeedConcepts = 3
	// maxGraphExpandConcepts bounds how many of those are expanded.
	maxGraphExpandConcepts = 2
	// maxGraphTerms bounds how many neighbor names expansion adds.
	maxGraphTerms = 3
	// maxLLMTerms bounds how many LLM terms are kept.
	maxLLMTerms = 5
)

// ConceptMatcher maps free text to the concepts it mentions.
type ConceptMatcher interface {
	MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error)
}

// Options selects the strategies for one expansion call.
type Options struct {
	UseSynonyms bool
	UseGraph    bool
	UseLLM      bool
	// Timeout bounds each individual strategy. Zero means no bound.
	Timeout time.Duration
}

// Expander composes the expansion strategies. Any collaborator may be
// nil; the corresponding strategy is then skipped.
type Expander struct {
	synonyms Synonyms
	matcher  ConceptMatcher
	graph    graph.Adjacency
	llm      nlp.Client
	logger   *slog.Logger
}

// NewExpander creates an expander.
func NewExpander(synonyms Synonyms, matcher ConceptMatcher, g graph.Adjacency, llm nlp.Client, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{
		synonyms: synonyms,
		matcher:  matcher,
		graph:    g,
		llm:      llm,
		logger:   logger,
	}
}

// Expand runs the selected strategies over the query and returns the
// expanded query with its weighted FTS form. It never fails: strategy
// errors degrade to fewer expansion terms.
func (e *Expander) Expand(ctx context.Context, query string, opts Options) *types.ExpandedQuery {
	expanded := &types.ExpandedQuery{
		Original:   query,
		ByStrategy: make(map[string][]string),
	}

	// A term occurring anywhere in the query adds nothing, including
	// multi-word phrases the query already spells out.
	queryLower := strings.ToLower(query)
	seen := make(map[string]bool)
	add := func(strategy string, terms []string) {
		for _, term := range terms {
			key := strings.ToLower(strings.TrimSpace(term))
			if key == "" || seen[key] || strings.Contains(queryLower, key) {
				continue
			}
			seen[key] = true
			expanded.Terms = append(expanded.Terms, term)
			expanded.ByStrategy[strategy] = append(expanded.ByStrategy[strategy], term)
		}
	}

	if opts.UseSynonyms && e.synonyms != nil {
		add("synonym", e.synonyms.Lookup(query))
	}

	if opts.UseGraph && e.matcher != nil && e.graph != nil {
		terms, err := runStrategy(ctx, opts.Timeout, query, e.graphTerms)
		if err != nil {
			e.logger.Warn("graph expansion degraded", "error", err)
		} else {
			add("graph", terms)
		}
	}

	if opts.UseLLM && e.llm != nil {
		terms, err := runStrategy(ctx, opts.Timeout, query, e.llmTerms)
		if err != nil {
			e.logger.Warn("llm expansion degraded", "error", err)
		} else {
			add("llm", terms)
		}
	}

	expanded.FTSQuery = BuildFTSQuery(query, expanded.Terms)
	return expanded
}

func runStrategy(ctx context.Context, timeout time.Duration, query string, fn func(context.Context, string) ([]string, error)) ([]string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx, query)
}

// graphTerms finds concepts mentioned in the query and pulls in the
// names of their immediate graph neighbors.
func (e *Expander) graphTerms(ctx context.Context, query string) ([]string, error) {
	concepts, err := e.matcher.MatchConcepts(ctx, query, maxGraphSeedConcepts)
	if err != nil {
		return nil, fmt.Errorf("concept match failed: %w", err)
	}
	if len(concepts) > maxGraphExpandConcepts {
		concepts = concepts[:maxGraphExpandConcepts]
	}

	var terms []string
	for _, concept := range concepts {
		neighborhood, err := graph.GetNeighborhood(ctx, e.graph, concept.ID, 1, nil)
		if err != nil {
			return nil, fmt.Errorf("neighborhood lookup failed: %w", err)
		}
		for _, neighbor := range neighborhood.Concepts {
			terms = append(terms, neighbor.Name)
			if len(terms) >= maxGraphTerms {
				return terms, nil
			}
		}
	}
	return terms, nil
}

// llmTerms asks the expansion model for alternative phrasings as a JSON
// array. Malformed output is repaired before parsing.
func (e *Expander) llmTerms(ctx context.Context, query string) ([]string, error) {
	response, err := e.llm.Chat(ctx, []nlp.Message{
		nlp.NewSystemMessage("You expand search queries over a research corpus. Respond with a JSON array of strings and nothing else."),
		nlp.NewUserMessage(fmt.Sprintf(
			"List up to %d alternative terms or phrasings for this search query: %q", maxLLMTerms, query)),
	})
	if err != nil {
		return nil, fmt.Errorf("expansion model failed: %w", err)
	}

	repaired, err := jsonrepair.JSONRepair(response.Content)
	if err != nil {
		return nil, fmt.Errorf("unparseable expansion output: %w", err)
	}

	var terms []string
	if err := json.Unmarshal([]byte(repaired), &terms); err != nil {
		return nil, fmt.Errorf("expansion output is not a string array: %w", err)
	}
	if len(terms) > maxLLMTerms {
		terms = terms[:maxLLMTerms]
	}
	return terms, nil
}

// ftsSpecialChars strips everything but word characters, whitespace and
// hyphens from query tokens before they reach the full-text engine.
var ftsSpecialChars = regexp.MustCompile(`[^\w\s-]`)

// BuildFTSQuery renders a weighted full-text query: tokens of the
// original query get weight class A, expansion terms class B, all
// OR-joined so expansion widens recall without diluting the original
// terms' rank contribution.
func BuildFTSQuery(original string, expansions []string) string {
	var parts []string
	seen := make(map[string]bool)

	appendTokens := func(text, class string) {
		cleaned := ftsSpecialChars.ReplaceAllString(text, "")
		for _, token := range strings.Fields(cleaned) {
			key := strings.ToLower(token)
			if seen[key] {
				continue
			}
			seen[key] = true
			parts = append(parts, token+":"+class)
		}
	}

	appendTokens(original, "A")
	for _, term := range expansions {
		appendTokens(term, "B")
	}

	return strings.Join(parts, " | ")
}
