// Package config loads application configuration from file and
// environment via viper.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	NLP       NLPConfig       `mapstructure:"nlp"`
	Rerank    RerankConfig    `mapstructure:"rerank"`
	Expand    ExpandConfig    `mapstructure:"expand"`
	GLiNER    GLiNERConfig    `mapstructure:"gliner"`
	Search    SearchConfig    `mapstructure:"search"`
	Authority AuthorityConfig `mapstructure:"authority"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Alert     AlertConfig     `mapstructure:"alert"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// StoreConfig holds store backend configuration.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, memory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// EmbeddingConfig holds embedding client configuration.
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"` // embedeverything, openai
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	CacheSize int    `mapstructure:"cache_size"`
}

// NLPConfig holds the generative model used for query expansion.
type NLPConfig struct {
	Provider    string  `mapstructure:"provider"` // openai
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// RerankConfig holds cross-encoder reranker configuration.
type RerankConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Provider        string `mapstructure:"provider"` // openai, embedding, mock
	Model           string `mapstructure:"model"`
	FetchMultiplier int    `mapstructure:"fetch_multiplier"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// ExpandConfig holds query expansion configuration.
type ExpandConfig struct {
	UseSynonyms bool   `mapstructure:"use_synonyms"`
	UseGraph    bool   `mapstructure:"use_graph"`
	UseLLM      bool   `mapstructure:"use_llm"`
	SynonymFile string `mapstructure:"synonym_file"`
}

// GLiNERConfig holds the span-model concept matcher configuration.
// When disabled, concept matching falls back to store alias lookup.
type GLiNERConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"` // local directory or Hugging Face model id
}

// SearchConfig holds pipeline defaults.
type SearchConfig struct {
	Limit          int     `mapstructure:"limit"`
	ContextType    string  `mapstructure:"context_type"`
	MaxHops        int     `mapstructure:"max_hops"`
	UseGraph       bool    `mapstructure:"use_graph"`
	GraphWeight    float64 `mapstructure:"graph_weight"`
	UseCitations   bool    `mapstructure:"use_citations"`
	CitationWeight float64 `mapstructure:"citation_weight"`
	WeightedGraph  bool    `mapstructure:"weighted_graph"`
}

// AuthorityConfig holds the offline PageRank job configuration.
type AuthorityConfig struct {
	Damping    float64 `mapstructure:"damping"`
	Iterations int     `mapstructure:"iterations"`
	Epsilon    float64 `mapstructure:"epsilon"`
}

// TelemetryConfig holds telemetry configuration.
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds configuration for alerting.
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking around
// the expansion LLM.
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("store.driver", "neo4j")
	viper.SetDefault("store.uri", "bolt://localhost:7687")
	viper.SetDefault("store.username", "neo4j")
	viper.SetDefault("store.password", "")
	viper.SetDefault("store.database", "neo4j")

	viper.SetDefault("embedding.provider", "embedeverything")
	viper.SetDefault("embedding.model", "BAAI/bge-large-en-v1.5")
	viper.SetDefault("embedding.cache_size", 1000)

	viper.SetDefault("nlp.provider", "openai")
	viper.SetDefault("nlp.model", "gpt-4o-mini")
	viper.SetDefault("nlp.temperature", 0.3)
	viper.SetDefault("nlp.max_tokens", 256)

	viper.SetDefault("rerank.enabled", true)
	viper.SetDefault("rerank.provider", "embedding")
	viper.SetDefault("rerank.fetch_multiplier", 5)
	viper.SetDefault("rerank.timeout_seconds", 10)

	viper.SetDefault("expand.use_synonyms", true)
	viper.SetDefault("expand.use_graph", true)
	viper.SetDefault("expand.use_llm", false)

	viper.SetDefault("gliner.enabled", false)
	viper.SetDefault("gliner.model", "urchade/gliner_small-v2.1")

	viper.SetDefault("search.limit", 10)
	viper.SetDefault("search.context_type", "balanced")
	viper.SetDefault("search.max_hops", 2)
	viper.SetDefault("search.use_graph", true)
	viper.SetDefault("search.graph_weight", 0.2)
	viper.SetDefault("search.use_citations", false)
	viper.SetDefault("search.citation_weight", 0.1)

	viper.SetDefault("authority.damping", 0.85)
	viper.SetDefault("authority.iterations", 20)
	viper.SetDefault("authority.epsilon", 1e-6)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.researchkb/telemetry", home))
	}
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.NLP.APIKey == "" {
			config.NLP.APIKey = apiKey
		}
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Store.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Store.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Store.Password = pass
	}
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		config.Store.Driver = driver
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
	if path := os.Getenv("SYNONYM_FILE"); path != "" {
		config.Expand.SynonymFile = path
	}
}
