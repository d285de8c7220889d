package researchkb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/researchkb/researchkb/pkg/config"
	"github.com/researchkb/researchkb/pkg/expand"
	"github.com/researchkb/researchkb/pkg/search"
	"github.com/researchkb/researchkb/pkg/types"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var (
	searchLimit     int
	searchContext   string
	searchUseGraph  bool
	searchCitations bool
	searchExpand    bool
	searchRerank    bool
	searchExplain   bool
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results")
	searchCmd.Flags().StringVar(&searchContext, "context", "balanced", "Weight preset (building, auditing, balanced)")
	searchCmd.Flags().BoolVar(&searchUseGraph, "graph", false, "Enable graph proximity boosting")
	searchCmd.Flags().BoolVar(&searchCitations, "citations", false, "Enable citation authority boosting")
	searchCmd.Flags().BoolVar(&searchExpand, "expand", false, "Enable query expansion")
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", false, "Enable cross-encoder reranking")
	searchCmd.Flags().BoolVar(&searchExplain, "explain", false, "Print per-signal score breakdown")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := buildLogger(cfg)
	client, err := initializeClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize ResearchKB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithValue(
		context.Background(), types.ContextKeyRequestSource, "cli"), 60*time.Second)
	defer cancel()
	defer client.Close(ctx)

	q := types.DefaultSearchQuery(strings.Join(args, " "))
	q.Limit = searchLimit
	switch searchContext {
	case "building":
		q.FTSWeight, q.VectorWeight = types.BuildingContext.Weights()
	case "auditing":
		q.FTSWeight, q.VectorWeight = types.AuditingContext.Weights()
	}
	q.UseGraph = searchUseGraph
	q.UseCitations = searchCitations
	if cfg.Search.GraphWeight > 0 {
		q.GraphWeight = cfg.Search.GraphWeight
	}
	if cfg.Search.CitationWeight > 0 {
		q.CitationWeight = cfg.Search.CitationWeight
	}
	if cfg.Search.MaxHops > 0 {
		q.MaxHops = cfg.Search.MaxHops
	}

	opts := search.Options{UseRerank: searchRerank}
	if searchExpand {
		opts.Expand = expand.Options{
			UseSynonyms: cfg.Expand.UseSynonyms,
			UseGraph:    cfg.Expand.UseGraph,
			UseLLM:      cfg.Expand.UseLLM,
		}
	}

	resp, err := client.Search(ctx, q, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if resp.ExpandedQuery != "" {
		fmt.Printf("Expanded query: %s\n", resp.ExpandedQuery)
	}
	if len(resp.Degraded) > 0 {
		fmt.Printf("Degraded signals: %s\n", strings.Join(resp.Degraded, ", "))
	}
	fmt.Printf("%d results in %.1fms\n\n", len(resp.Results), resp.ExecutionMs)

	for _, r := range resp.Results {
		title := "(unknown source)"
		if r.Source != nil {
			title = r.Source.Title
		}
		fmt.Printf("%2d. [%.3f] %s\n", r.Rank, r.CombinedScore, title)
		fmt.Printf("    %s\n", snippet(r.Chunk.Content, 160))
		if searchExplain {
			fmt.Printf("    fts=%.3f vector=%.3f graph=%.3f citation=%.3f rerank=%.3f\n",
				r.Scores.FTS, r.Scores.Vector, r.Scores.Graph, r.Scores.Citation, r.Scores.Rerank)
			for _, explanation := range r.GraphExplanations {
				fmt.Printf("    via %s\n", explanation)
			}
		}
	}
	return nil
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
