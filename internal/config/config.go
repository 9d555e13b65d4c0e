package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the lograg server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Answerer  AnswererConfig  `yaml:"answerer"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Providers.
const (
	ProviderOpenAI     = "openai"
	ProviderHashing    = "hashing"
	ProviderExtractive = "extractive"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json, console (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty api_keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyMB       int `yaml:"max_body_mb"`
}

// DatabaseConfig holds vector store connection settings.
// Driver memory keeps records in process and ignores addrs.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	HNSWEFRuntime   int `yaml:"hnsw_ef_runtime"`
}

// EmbeddingConfig holds the embedding provider and service settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // openai, hashing
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	BatchSize           int    `yaml:"batch_size"`
	Workers             int    `yaml:"workers"`
	MaxInputChars       int    `yaml:"max_input_chars"`
	CacheTTLSec         int    `yaml:"cache_ttl_sec"` // 0 = no expiry, <0 disables the cache
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// ChunkingConfig holds chunk sizing.
type ChunkingConfig struct {
	MinSize     int  `yaml:"min_size"`
	MaxSize     int  `yaml:"max_size"`
	Overlap     *int `yaml:"overlap"` // nil = 100; explicit 0 disables overlap
	SampleLines int  `yaml:"sample_lines"`
}

// IndexingConfig holds batch indexing limits.
type IndexingConfig struct {
	Workers      int `yaml:"workers"`
	MaxBatchSize int `yaml:"max_batch_size"`
}

// RetrievalConfig holds ranking settings.
type RetrievalConfig struct {
	DefaultMode   string  `yaml:"default_mode"` // vector, hybrid
	VectorWeight  float64 `yaml:"vector_weight"`
	LexicalWeight float64 `yaml:"lexical_weight"`
	Overfetch     int     `yaml:"overfetch"`
}

// AnswererConfig holds the answerer and pipeline settings.
type AnswererConfig struct {
	Provider              string  `yaml:"provider"` // openai, extractive
	APIKey                string  `yaml:"api_key"`
	BaseURL               string  `yaml:"base_url"`
	Model                 string  `yaml:"model"`
	SystemPrompt          string  `yaml:"system_prompt"`
	MaxTokens             int     `yaml:"max_tokens"`
	Temperature           float32 `yaml:"temperature"`
	MaxLines              int     `yaml:"max_lines"` // extractive only
	TimeoutSec            int     `yaml:"timeout_sec"`
	RetryBackoffMs        *int    `yaml:"retry_backoff_ms"`
	MaxContextChars       int     `yaml:"max_context_chars"`
	AnswerWithoutEvidence bool    `yaml:"answer_without_evidence"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it and applies defaults.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// query path waits for the answerer
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyMB <= 0 {
		c.HTTP.MaxBodyMB = 16
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	c.applyChunkingDefaults()
	c.applyEmbeddingDefaults()
	c.applyAnswererDefaults()
	if c.Indexing.Workers <= 0 {
		c.Indexing.Workers = 4
	}
	if c.Indexing.MaxBatchSize <= 0 {
		c.Indexing.MaxBatchSize = 100
	}
	if c.Retrieval.DefaultMode == "" {
		c.Retrieval.DefaultMode = "vector"
	}
	if c.Retrieval.VectorWeight == 0 && c.Retrieval.LexicalWeight == 0 {
		c.Retrieval.VectorWeight = 0.7
		c.Retrieval.LexicalWeight = 0.3
	}
	if c.Retrieval.Overfetch <= 0 {
		c.Retrieval.Overfetch = 3
	}
}

func (c *Config) applyChunkingDefaults() {
	ch := &c.Chunking
	if ch.MaxSize <= 0 {
		ch.MaxSize = 1000
	}
	if ch.MinSize <= 0 {
		ch.MinSize = min(500, ch.MaxSize)
	}
	if ch.Overlap == nil {
		def := 100
		ch.Overlap = &def
	}
	if ch.SampleLines <= 0 {
		ch.SampleLines = 20
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = ProviderOpenAI
	}
	if e.Model == "" {
		if e.Provider == ProviderHashing {
			e.Model = "hashing-v1"
		} else {
			e.Model = "text-embedding-3-small"
		}
	}
	if e.Dimensions <= 0 {
		e.Dimensions = 1536
	}
	if e.BatchSize <= 0 {
		e.BatchSize = 64
	}
	if e.Workers <= 0 {
		e.Workers = 4
	}
	if e.MaxInputChars <= 0 {
		e.MaxInputChars = 8000
	}
}

func (c *Config) applyAnswererDefaults() {
	a := &c.Answerer
	if a.Provider == "" {
		a.Provider = ProviderOpenAI
	}
	if a.Model == "" && a.Provider == ProviderOpenAI {
		a.Model = "gpt-4o-mini"
	}
	if a.TimeoutSec <= 0 {
		a.TimeoutSec = 30
	}
	if a.RetryBackoffMs == nil {
		def := 500
		a.RetryBackoffMs = &def
	}
	if a.MaxContextChars <= 0 {
		a.MaxContextChars = 6000
	}
	if a.MaxLines <= 0 {
		a.MaxLines = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be valkey, redis or memory, got %q", c.Database.Driver)
	}
	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderHashing:
	default:
		return fmt.Errorf("embedding.provider must be openai or hashing, got %q", c.Embedding.Provider)
	}
	switch c.Answerer.Provider {
	case ProviderOpenAI, ProviderExtractive:
	default:
		return fmt.Errorf("answerer.provider must be openai or extractive, got %q", c.Answerer.Provider)
	}
	switch c.Retrieval.DefaultMode {
	case "vector", "hybrid":
	default:
		return fmt.Errorf("retrieval.default_mode must be vector or hybrid, got %q", c.Retrieval.DefaultMode)
	}
	if c.Retrieval.VectorWeight < 0 || c.Retrieval.LexicalWeight < 0 {
		return fmt.Errorf("retrieval weights must not be negative")
	}
	if c.Chunking.MaxSize > 0 && c.Chunking.MinSize > c.Chunking.MaxSize {
		return fmt.Errorf("chunking.min_size (%d) exceeds chunking.max_size (%d)",
			c.Chunking.MinSize, c.Chunking.MaxSize)
	}
	if o := c.Chunking.Overlap; o != nil && (*o < 0 || (c.Chunking.MaxSize > 0 && *o >= c.Chunking.MaxSize)) {
		return fmt.Errorf("chunking.overlap must be in [0, max_size), got %d", *o)
	}
	if b := c.Answerer.RetryBackoffMs; b != nil && *b < 0 {
		return fmt.Errorf("answerer.retry_backoff_ms must not be negative")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
