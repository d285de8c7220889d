package expand_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/researchkb/researchkb/pkg/expand"
	"github.com/researchkb/researchkb/pkg/nlp"
	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynonymsLookupThreePasses(t *testing.T) {
	synonyms := expand.Synonyms{
		"iv estimation": {"whole query match"},
		"iv":            {"instrumental variables"},
		"estimation":    {"estimator"},
		"ols":           {"substring never hit"},
	}

	terms := synonyms.Lookup("IV estimation")

	// Whole-query pass first, then per-word passes. "ols" does not occur
	// in the query and stays out.
	require.Len(t, terms, 3)
	assert.Equal(t, "whole query match", terms[0])
	assert.Contains(t, terms, "instrumental variables")
	assert.Contains(t, terms, "estimator")
}

func TestSynonymsLookupSubstringPass(t *testing.T) {
	synonyms := expand.Synonyms{
		"fixed effects": {"within estimator"},
	}

	terms := synonyms.Lookup("panel fixed effects models")
	assert.Equal(t, []string{"within estimator"}, terms)
}

func TestSynonymsLookupSubstringOrderStable(t *testing.T) {
	synonyms := expand.Synonyms{
		"regression discontinuity": {"rdd", "discontinuity design"},
		"instrumental variables":   {"iv", "2sls"},
	}

	// The substring pass visits matching keys in sorted order, so
	// repeated lookups yield one fixed term sequence.
	want := []string{"iv", "2sls", "rdd", "discontinuity design"}
	for i := 0; i < 50; i++ {
		terms := synonyms.Lookup("instrumental variables regression discontinuity analysis")
		require.Equal(t, want, terms)
	}
}

func TestSynonymsLookupEmptyQuery(t *testing.T) {
	assert.Nil(t, expand.DefaultSynonyms().Lookup("   "))
}

func TestExpandSkipsTermsAlreadyInQuery(t *testing.T) {
	synonyms := expand.Synonyms{
		"iv": {"instrument", "iv"},
	}
	e := expand.NewExpander(synonyms, nil, nil, nil, nil)

	expanded := e.Expand(context.Background(), "iv instrument", expand.Options{UseSynonyms: true})

	assert.Equal(t, "iv instrument", expanded.Original)
	assert.Empty(t, expanded.Terms)
	assert.Empty(t, expanded.ByStrategy["synonym"])
}

func TestExpandSkipsPhrasesAlreadyInQuery(t *testing.T) {
	synonyms := expand.Synonyms{
		"iv": {"instrumental variables", "2sls"},
	}
	e := expand.NewExpander(synonyms, nil, nil, nil, nil)

	expanded := e.Expand(context.Background(), "iv instrumental variables estimation",
		expand.Options{UseSynonyms: true})

	// "instrumental variables" is already spelled out in the query and
	// must not come back as an expansion term.
	assert.Equal(t, []string{"2sls"}, expanded.Terms)
	assert.Equal(t, []string{"2sls"}, expanded.ByStrategy["synonym"])
}

func TestExpandNoOpKeepsOriginalQuery(t *testing.T) {
	e := expand.NewExpander(expand.DefaultSynonyms(), nil, nil, nil, nil)

	expanded := e.Expand(context.Background(), "spatial autocorrelation", expand.Options{UseSynonyms: true})

	assert.Empty(t, expanded.Terms)
	assert.Equal(t, "spatial:A | autocorrelation:A", expanded.FTSQuery)
}

func TestExpandGraphStrategy(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddConcept(&types.Concept{ID: "iv", Name: "instrumental variables"})
	st.AddConcept(&types.Concept{ID: "tsls", Name: "two stage least squares"})
	st.AddConcept(&types.Concept{ID: "weak", Name: "weak instruments"})
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r1", SourceConceptID: "iv", TargetConceptID: "tsls", Type: types.RelRequires,
	})
	st.AddRelationship(&types.ConceptRelationship{
		ID: "r2", SourceConceptID: "iv", TargetConceptID: "weak", Type: types.RelUses,
	})

	e := expand.NewExpander(nil, st, st, nil, nil)
	expanded := e.Expand(context.Background(), "instrumental variables", expand.Options{UseGraph: true})

	require.Len(t, expanded.ByStrategy["graph"], 2)
	assert.Contains(t, expanded.Terms, "two stage least squares")
	assert.Contains(t, expanded.Terms, "weak instruments")
}

func TestExpandGraphFailureDegradesQuietly(t *testing.T) {
	e := expand.NewExpander(nil, &failingMatcher{}, store.NewMemoryStore(), nil, nil)

	expanded := e.Expand(context.Background(), "instrumental variables", expand.Options{UseGraph: true})

	assert.Empty(t, expanded.Terms)
	assert.Equal(t, "instrumental:A | variables:A", expanded.FTSQuery)
}

func TestExpandLLMStrategyRepairsMalformedJSON(t *testing.T) {
	llm := &scriptedLLM{content: `["event study", "panel regression",]`}
	e := expand.NewExpander(nil, nil, nil, llm, nil)

	expanded := e.Expand(context.Background(), "did", expand.Options{UseLLM: true})

	assert.Equal(t, []string{"event study", "panel regression"}, expanded.ByStrategy["llm"])
}

func TestExpandLLMFailureDegradesQuietly(t *testing.T) {
	e := expand.NewExpander(nil, nil, nil, &scriptedLLM{err: errors.New("model offline")}, nil)

	expanded := e.Expand(context.Background(), "did", expand.Options{UseLLM: true})
	assert.Empty(t, expanded.Terms)
}

func TestBuildFTSQueryTiersAndCleanup(t *testing.T) {
	tests := []struct {
		name       string
		original   string
		expansions []string
		want       string
	}{
		{
			name:     "original tokens class A",
			original: "weak instruments",
			want:     "weak:A | instruments:A",
		},
		{
			name:       "expansion tokens class B",
			original:   "iv",
			expansions: []string{"instrumental variables"},
			want:       "iv:A | instrumental:B | variables:B",
		},
		{
			name:       "duplicate token keeps first class",
			original:   "regression",
			expansions: []string{"regression discontinuity"},
			want:       "regression:A | discontinuity:B",
		},
		{
			name:     "special characters stripped hyphen kept",
			original: `"diff-in-diff" (robust!)`,
			want:     "diff-in-diff:A | robust:A",
		},
		{
			name:     "empty query",
			original: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expand.BuildFTSQuery(tt.original, tt.expansions))
		})
	}
}

func TestLoadSynonyms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	content := "IV:\n  - instrumental variables\nmatching:\n  - propensity score\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	synonyms, err := expand.LoadSynonyms(path)
	require.NoError(t, err)

	// Keys are lowercased on load.
	assert.Equal(t, []string{"instrumental variables"}, synonyms["iv"])
	assert.Equal(t, []string{"propensity score"}, synonyms["matching"])
}

func TestLoadSynonymsMissingFile(t *testing.T) {
	_, err := expand.LoadSynonyms(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

type failingMatcher struct{}

func (f *failingMatcher) MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error) {
	return nil, errors.New("matcher down")
}

type scriptedLLM struct {
	content string
	err     error
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []nlp.Message) (*nlp.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &nlp.Response{Content: s.content}, nil
}

func (s *scriptedLLM) Close() error { return nil }
