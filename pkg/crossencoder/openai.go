package crossencoder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/researchkb/researchkb/pkg/nlp"
)

// OpenAIRerankerClient reranks passages by running a boolean relevance
// classifier prompt per passage, concurrently under a semaphore.
type OpenAIRerankerClient struct {
	client    nlp.Client
	config    Config
	semaphore chan struct{}
}

// NewOpenAIRerankerClient creates a new OpenAI-based reranker client.
func NewOpenAIRerankerClient(client nlp.Client, config Config) *OpenAIRerankerClient {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	return &OpenAIRerankerClient{
		client:    client,
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
	}
}

// Rank ranks the given passages based on their relevance to the query.
func (c *OpenAIRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	type passageResult struct {
		score float64
		err   error
	}

	results := make([]passageResult, len(passages))
	var wg sync.WaitGroup

	for i, passage := range passages {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			c.semaphore <- struct{}{}
			defer func() { <-c.semaphore }()

			score, err := c.scorePassage(ctx, query, p)
			results[idx] = passageResult{score: score, err: err}
		}(i, passage)
	}

	wg.Wait()

	ranked := make([]RankedPassage, 0, len(passages))
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("error scoring passage %d: %w", i, result.err)
		}
		ranked = append(ranked, RankedPassage{
			Index:   i,
			Passage: passages[i],
			Score:   result.score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// scorePassage runs the boolean classifier for one passage.
func (c *OpenAIRerankerClient) scorePassage(ctx context.Context, query, passage string) (float64, error) {
	messages := []nlp.Message{
		nlp.NewSystemMessage("You are an expert tasked with determining whether the passage is relevant to the query"),
		nlp.NewUserMessage(fmt.Sprintf(`Respond with "True" if PASSAGE is relevant to QUERY and "False" otherwise.
<PASSAGE>
%s
</PASSAGE>
<QUERY>
%s
</QUERY>`, passage, query)),
	}

	response, err := c.client.Chat(ctx, messages)
	if err != nil {
		return 0, fmt.Errorf("failed to get response: %w", err)
	}

	first, _, _ := strings.Cut(strings.TrimSpace(response.Content), " ")
	switch strings.ToLower(strings.TrimRight(first, ".,!")) {
	case "true", "yes":
		return 0.8, nil
	case "false", "no":
		return 0.2, nil
	default:
		return 0.5, nil
	}
}

// Available reports whether the backing model answers a trivial probe.
func (c *OpenAIRerankerClient) Available(ctx context.Context) bool {
	_, err := c.client.Chat(ctx, []nlp.Message{
		nlp.NewUserMessage("Respond with OK."),
	})
	return err == nil
}

// Close cleans up any resources used by the client.
func (c *OpenAIRerankerClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
