// Package gliner matches query text to knowledge-graph concepts using
// a GLiNER span model for extraction and the store for resolution.
package gliner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/soundprediction/go-gline-rs/pkg/gline"

	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/types"
)

// conceptLabels are the span labels asked of the model. Research
// corpora mostly mention methods, assumptions and problems.
var conceptLabels = []string{"method", "concept", "assumption", "problem"}

// Matcher extracts concept mentions from text with a GLiNER span model
// and resolves each mention to stored concepts via alias matching.
// Falls back gracefully: mentions the store cannot resolve are dropped.
type Matcher struct {
	mu    sync.Mutex
	model *gline.Model
	graph store.ConceptGraph
}

// NewMatcher loads the span model from a local directory or a Hugging
// Face model id.
func NewMatcher(modelID string, graph store.ConceptGraph) (*Matcher, error) {
	if err := gline.Init(); err != nil {
		return nil, fmt.Errorf("failed to init gline: %w", err)
	}

	var model *gline.Model
	var err error
	if _, statErr := os.Stat(modelID); statErr == nil {
		modelPath := filepath.Join(modelID, "model.onnx")
		tokPath := filepath.Join(modelID, "tokenizer.json")
		model, err = gline.NewSpanModel(modelPath, tokPath)
	} else {
		model, err = gline.NewSpanModelFromHF(modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load span model: %w", err)
	}

	return &Matcher{model: model, graph: graph}, nil
}

// MatchConcepts extracts concept mentions from text and resolves them
// against the store, up to limit concepts.
func (m *Matcher) MatchConcepts(ctx context.Context, text string, limit int) ([]*types.Concept, error) {
	mentions, err := m.extract(text)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var concepts []*types.Concept
	for _, mention := range mentions {
		matched, err := m.graph.MatchConcepts(ctx, mention, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve mention %q: %w", mention, err)
		}
		for _, c := range matched {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			concepts = append(concepts, c)
			if limit > 0 && len(concepts) >= limit {
				return concepts, nil
			}
		}
	}
	return concepts, nil
}

func (m *Matcher) extract(text string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model == nil {
		return nil, fmt.Errorf("span model not loaded")
	}

	results, err := m.model.Predict([]string{text}, conceptLabels)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	mentions := make([]string, 0, len(results[0]))
	for _, e := range results[0] {
		mentions = append(mentions, e.Text)
	}
	return mentions, nil
}

// Close releases the model.
func (m *Matcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model != nil {
		m.model.Close()
		m.model = nil
	}
}
