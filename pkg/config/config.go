// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Document, Indexer, Snippet, Postgres, Kafka, Redis, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	RPC       RPCConfig       `yaml:"rpc"`
	Document  DocumentConfig  `yaml:"document"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Snippet   SnippetConfig   `yaml:"snippet"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RPCConfig controls the JSON-over-TCP RPC listener. Port 0 disables it.
type RPCConfig struct {
	Port int `yaml:"port"`
}

// DocumentConfig tells the loader where the indexed document lives and how
// its bytes are encoded.
type DocumentConfig struct {
	Source      string        `yaml:"source"` // "file" or "postgres"
	Path        string        `yaml:"path"`
	DocumentID  string        `yaml:"documentId"`
	Charset     string        `yaml:"charset"`
	LoadTimeout time.Duration `yaml:"loadTimeout"`
}

// IndexerConfig controls how sentence lengths are judged when scoring.
type IndexerConfig struct {
	BenchmarkLength int `yaml:"benchmarkLength"`
}

// SnippetConfig holds the ranking limits and the user-facing messages.
type SnippetConfig struct {
	MaxTokens       int            `yaml:"maxTokens"`
	MaxSentences    int            `yaml:"maxSentences"`
	CandidateFactor int            `yaml:"candidateFactor"`
	Separator       string         `yaml:"separator"`
	Messages        MessagesConfig `yaml:"messages"`
}

// MessagesConfig holds the localized strings returned instead of a snippet.
type MessagesConfig struct {
	EmptyQuery string `yaml:"emptyQuery"`
	NoMatch    string `yaml:"noMatch"`
}

// CandidateLimit is the number of TermIndex entries inspected per query term.
func (s SnippetConfig) CandidateLimit() int {
	return s.CandidateFactor * s.MaxSentences
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AnalyticsConfig controls how query events leave the process and how often
// aggregated stats are snapshotted to PostgreSQL.
type AnalyticsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	BufferSize       int           `yaml:"bufferSize"`
	BatchSize        int           `yaml:"batchSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls per-query span logging.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the snippet engine cannot run with.
func (c *Config) Validate() error {
	if c.Snippet.MaxTokens < 1 {
		return fmt.Errorf("snippet.maxTokens must be positive, got %d", c.Snippet.MaxTokens)
	}
	if c.Snippet.MaxSentences < 1 {
		return fmt.Errorf("snippet.maxSentences must be positive, got %d", c.Snippet.MaxSentences)
	}
	if c.Snippet.CandidateFactor < 1 {
		return fmt.Errorf("snippet.candidateFactor must be positive, got %d", c.Snippet.CandidateFactor)
	}
	if c.Indexer.BenchmarkLength < 1 {
		return fmt.Errorf("indexer.benchmarkLength must be positive, got %d", c.Indexer.BenchmarkLength)
	}
	switch c.Document.Source {
	case "file", "postgres":
	default:
		return fmt.Errorf("document.source must be \"file\" or \"postgres\", got %q", c.Document.Source)
	}
	return nil
}

// Default returns a Config with the defaults used for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Document: DocumentConfig{
			Source:      "file",
			Path:        "assets/document.txt",
			Charset:     "utf-8",
			LoadTimeout: 30 * time.Second,
		},
		Indexer: IndexerConfig{
			BenchmarkLength: 60,
		},
		Snippet: SnippetConfig{
			MaxTokens:       5,
			MaxSentences:    3,
			CandidateFactor: 2,
			Separator:       " ... ",
			Messages: MessagesConfig{
				EmptyQuery: "Empty query",
				NoMatch:    "Nothing was found for your query",
			},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "snippets",
			User:            "snippets",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "snippet-engine-group",
			Topics: KafkaTopics{
				AnalyticsEvents: "snippet-analytics",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Analytics: AnalyticsConfig{
			BufferSize:       10000,
			FlushInterval:    5 * time.Second,
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			SampleRate: 1,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_RPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.RPC.Port = port
		}
	}
	if v := os.Getenv("SP_DOCUMENT_SOURCE"); v != "" {
		cfg.Document.Source = v
	}
	if v := os.Getenv("SP_DOCUMENT_PATH"); v != "" {
		cfg.Document.Path = v
	}
	if v := os.Getenv("SP_DOCUMENT_ID"); v != "" {
		cfg.Document.DocumentID = v
	}
	if v := os.Getenv("SP_DOCUMENT_CHARSET"); v != "" {
		cfg.Document.Charset = v
	}
	if v := os.Getenv("SP_INDEXER_BENCHMARK_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.BenchmarkLength = n
		}
	}
	if v := os.Getenv("SP_SNIPPET_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Snippet.MaxTokens = n
		}
	}
	if v := os.Getenv("SP_SNIPPET_MAX_SENTENCES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Snippet.MaxSentences = n
		}
	}
	if v := os.Getenv("SP_SNIPPET_SEPARATOR"); v != "" {
		cfg.Snippet.Separator = v
	}
	if v := os.Getenv("SP_SNIPPET_MESSAGE_EMPTY_QUERY"); v != "" {
		cfg.Snippet.Messages.EmptyQuery = v
	}
	if v := os.Getenv("SP_SNIPPET_MESSAGE_NO_MATCH"); v != "" {
		cfg.Snippet.Messages.NoMatch = v
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_ANALYTICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analytics.Enabled = b
		}
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
