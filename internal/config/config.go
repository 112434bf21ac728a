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

// Config holds the curriqa API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Registry  RegistryConfig  `yaml:"registry"`
	Cache     CacheConfig     `yaml:"cache"`
	Vector    VectorConfig    `yaml:"vector"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Upload    UploadConfig    `yaml:"upload"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty key list disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RegistryConfig holds document registry and chat log storage settings.
type RegistryConfig struct {
	DSN   string `yaml:"dsn"` // postgres DSN
	Debug bool   `yaml:"debug"`
}

// CacheConfig holds the optional embedding cache settings.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"` // redis addresses; empty disables the cache
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether the embedding cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// VectorConfig holds the embedded vector index settings.
type VectorConfig struct {
	Path       string `yaml:"path"` // persistence dir; empty means in-memory
	Collection string `yaml:"collection"`
}

// LLMConfig holds chat completion provider settings.
type LLMConfig struct {
	APIKey       string   `yaml:"api_key"`
	BaseURL      string   `yaml:"base_url"`
	ChatModel    string   `yaml:"chat_model"`    // answer synthesis
	ContextModel string   `yaml:"context_model"` // summaries, annotation, rewriting, expansion
	AllowModels  []string `yaml:"allow_models"`  // models accepted from clients
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Provider   string `yaml:"provider"` // metrics label
}

// RerankConfig holds the hosted reranker settings.
type RerankConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	TopN    int    `yaml:"top_n"`
}

// RetrievalConfig holds retrieval fan-out settings.
type RetrievalConfig struct {
	PoolK       int `yaml:"pool_k"`       // candidates per query variant
	MaxVariants int `yaml:"max_variants"` // query phrasings incl. the original
}

// UploadConfig holds upload handling settings.
type UploadConfig struct {
	TempDir   string `yaml:"temp_dir"` // empty means os.TempDir
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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
		// Indexing issues one LLM call per chunk; upload responses are slow
		// by nature.
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 30 * 24
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Vector.Collection == "" {
		c.Vector.Collection = "curriculum"
	}
	if c.LLM.ChatModel == "" {
		c.LLM.ChatModel = "gpt-3.5-turbo"
	}
	if c.LLM.ContextModel == "" {
		c.LLM.ContextModel = c.LLM.ChatModel
	}
	if len(c.LLM.AllowModels) == 0 {
		c.LLM.AllowModels = []string{c.LLM.ChatModel}
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Rerank.Model == "" {
		c.Rerank.Model = "ms-marco-MiniLM-L-12-v2"
	}
	if c.Rerank.TopN <= 0 {
		c.Rerank.TopN = 3
	}
	if c.Retrieval.PoolK <= 0 {
		c.Retrieval.PoolK = 10
	}
	if c.Retrieval.MaxVariants <= 0 {
		c.Retrieval.MaxVariants = 3
	}
	if c.Upload.MaxSizeMB <= 0 {
		c.Upload.MaxSizeMB = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Registry.DSN == "" {
		return fmt.Errorf("registry.dsn is required")
	}
	if c.Rerank.BaseURL == "" {
		return fmt.Errorf("rerank.base_url is required")
	}
	allowed := false
	for _, m := range c.LLM.AllowModels {
		if m == c.LLM.ChatModel {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("llm.allow_models must include the default chat model %q", c.LLM.ChatModel)
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

	// 3. Fallback to ./config/
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
