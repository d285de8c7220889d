package researchkb

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	researchkb "github.com/researchkb/researchkb"
	"github.com/researchkb/researchkb/pkg/alert"
	"github.com/researchkb/researchkb/pkg/config"
	"github.com/researchkb/researchkb/pkg/crossencoder"
	"github.com/researchkb/researchkb/pkg/embedder"
	"github.com/researchkb/researchkb/pkg/expand"
	"github.com/researchkb/researchkb/pkg/gliner"
	"github.com/researchkb/researchkb/pkg/graph"
	"github.com/researchkb/researchkb/pkg/logger"
	"github.com/researchkb/researchkb/pkg/nlp"
	"github.com/researchkb/researchkb/pkg/search"
	"github.com/researchkb/researchkb/pkg/store"
	"github.com/researchkb/researchkb/pkg/telemetry"
)

// buildLogger creates the process logger, wrapping the color handler
// with Parquet error telemetry when a path is configured.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	colorHandler := logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if cfg.Telemetry.ParquetPath == "" {
		return slog.New(colorHandler)
	}

	parquetHandler, err := telemetry.NewParquetHandler(colorHandler, cfg.Telemetry.ParquetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize error tracking: %v\n", err)
		return slog.New(colorHandler)
	}
	return slog.New(parquetHandler)
}

// buildStore creates the configured store backend.
func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "neo4j":
		return store.NewNeo4jStore(cfg.Store.URI, cfg.Store.Username, cfg.Store.Password, cfg.Store.Database)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initializeClient wires the full client from configuration: store,
// embedder with cache, expander, and reranker.
func initializeClient(cfg *config.Config, log *slog.Logger) (*researchkb.Client, error) {
	st, err := buildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	client := researchkb.NewClient(st, &researchkb.Config{
		FetchMultiplier: cfg.Rerank.FetchMultiplier,
		WeightedGraph:   cfg.Search.WeightedGraph,
		Authority: graph.AuthorityConfig{
			Damping:    cfg.Authority.Damping,
			Iterations: cfg.Authority.Iterations,
			Epsilon:    cfg.Authority.Epsilon,
		},
	}, log)

	embedderClient, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	if embedderClient != nil {
		cacheSize := cfg.Embedding.CacheSize
		if cacheSize <= 0 {
			cacheSize = embedder.DefaultCacheCapacity
		}
		client.SetEmbedder(embedder.NewCache(embedderClient, cacheSize))
	}

	if cfg.GLiNER.Enabled {
		matcher, err := gliner.NewMatcher(cfg.GLiNER.Model, st)
		if err != nil {
			log.Warn("gliner matcher unavailable, using store alias matching", "error", err)
		} else {
			client.SetConceptMatcher(matcher)
		}
	}

	expander, err := buildExpander(cfg, st, log)
	if err != nil {
		return nil, err
	}
	client.SetExpander(expander)

	if cfg.Rerank.Enabled {
		rerankClient, err := buildRerankClient(cfg, embedderClient)
		if err != nil {
			log.Warn("reranker disabled", "error", err)
		} else if rerankClient != nil {
			timeout := time.Duration(cfg.Rerank.TimeoutSeconds) * time.Second
			client.SetReranker(search.NewReranker(rerankClient, timeout, log))
		}
	}

	return client, nil
}

func buildEmbedder(cfg *config.Config) (embedder.Client, error) {
	embedderConfig := embedder.Config{
		Model:   cfg.Embedding.Model,
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
	}
	switch cfg.Embedding.Provider {
	case "embedeverything":
		return embedder.NewEmbedEverythingClient(embedderConfig)
	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, nil
		}
		return embedder.NewOpenAIClient(embedderConfig), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

func buildExpander(cfg *config.Config, st store.Store, log *slog.Logger) (*expand.Expander, error) {
	synonyms := expand.DefaultSynonyms()
	if cfg.Expand.SynonymFile != "" {
		loaded, err := expand.LoadSynonyms(cfg.Expand.SynonymFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load synonyms: %w", err)
		}
		synonyms = loaded
	}

	var llmClient nlp.Client
	if cfg.Expand.UseLLM && cfg.NLP.APIKey != "" {
		base, err := nlp.NewOpenAIClient(cfg.NLP.APIKey, nlp.Config{
			Model:       cfg.NLP.Model,
			BaseURL:     cfg.NLP.BaseURL,
			Temperature: cfg.NLP.Temperature,
			MaxTokens:   cfg.NLP.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create expansion LLM client: %w", err)
		}
		llmClient = base
		if cfg.CircuitBreaker.Enabled {
			var alerter alert.Alerter = &alert.NoOpAlerter{}
			if cfg.Alert.Enabled {
				alerter = alert.NewEmailAlerter(cfg.Alert)
			}
			llmClient = nlp.NewCircuitBreakerClient(base, cfg.CircuitBreaker, alerter, "expand-llm")
		}
	}

	return expand.NewExpander(synonyms, st, st, llmClient, log), nil
}

func buildRerankClient(cfg *config.Config, embedderClient embedder.Client) (crossencoder.Client, error) {
	rerankConfig := crossencoder.Config{Model: cfg.Rerank.Model}
	switch cfg.Rerank.Provider {
	case "openai":
		if cfg.NLP.APIKey == "" {
			return nil, fmt.Errorf("openai reranker requires an API key")
		}
		nlpClient, err := nlp.NewOpenAIClient(cfg.NLP.APIKey, nlp.Config{Model: cfg.Rerank.Model})
		if err != nil {
			return nil, err
		}
		return crossencoder.NewOpenAIRerankerClient(nlpClient, rerankConfig), nil
	case "embedding":
		if embedderClient == nil {
			return nil, fmt.Errorf("embedding reranker requires an embedder")
		}
		return crossencoder.NewEmbeddingRerankerClient(embedderClient, rerankConfig), nil
	case "mock":
		return crossencoder.NewMockRerankerClient(), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported rerank provider: %s", cfg.Rerank.Provider)
	}
}
