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

// Config holds the tripmate configuration.
type Config struct {
	HTTP      HTTPConfig               `yaml:"http"`
	Auth      AuthConfig               `yaml:"auth"`
	Logging   LoggingConfig            `yaml:"logging"`
	Embedding EmbeddingConfig          `yaml:"embedding"`
	Cache     CacheConfig              `yaml:"cache"`
	Engine    EngineConfig             `yaml:"engine"`
	DataDir   string                   `yaml:"data_dir"`
	Datasets  map[string]DatasetConfig `yaml:"datasets"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port               int      `yaml:"port"`
	ReadTimeoutSec     int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec    int      `yaml:"write_timeout_sec"`
	ShutdownSec        int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins        []string `yaml:"cors_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"` // 0 = unlimited
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string        `yaml:"provider"` // openai, local
	APIKey              string        `yaml:"api_key"`
	BaseURL             string        `yaml:"base_url"`
	Model               string        `yaml:"model"`
	Dimensions          int           `yaml:"dimensions"`
	DocumentInstruction string        `yaml:"document_instruction"`
	QueryInstruction    string        `yaml:"query_instruction"`
	TimeoutSec          int           `yaml:"timeout_sec"`
	MaxBatchSize        int           `yaml:"max_batch_size"`
	Breaker             BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the embedding provider.
type BreakerConfig struct {
	MaxRequests  uint32  `yaml:"max_requests"`
	IntervalSec  int     `yaml:"interval_sec"`
	TimeoutSec   int     `yaml:"timeout_sec"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
}

// CacheConfig holds embedding cache backend settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, memory, redis, badger (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EngineConfig holds match cascade and pagination settings.
type EngineConfig struct {
	DefaultLimit    int     `yaml:"default_limit"`
	ShowMoreLimit   int     `yaml:"show_more_limit"`
	AttributeCap    int     `yaml:"attribute_cap"`
	SemanticTopK    int     `yaml:"semantic_top_k"`
	SimilarityFloor float64 `yaml:"similarity_floor"`
	FuzzyTopN       int     `yaml:"fuzzy_top_n"`
}

// DatasetConfig maps one domain onto a workbook.
type DatasetConfig struct {
	File       string            `yaml:"file"`
	NameColumn string            `yaml:"name_column"` // optional override
	Cities     map[string]string `yaml:"cities"`      // city -> sheet
}

var knownDomains = map[string]bool{"attractions": true, "hotels": true, "restaurants": true}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates YAML configuration.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	c.applyBreakerDefaults()
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Engine.DefaultLimit <= 0 {
		c.Engine.DefaultLimit = 3
	}
	if c.Engine.ShowMoreLimit <= 0 {
		c.Engine.ShowMoreLimit = 2
	}
	if c.Engine.AttributeCap <= 0 {
		c.Engine.AttributeCap = 3
	}
	if c.Engine.SemanticTopK <= 0 {
		c.Engine.SemanticTopK = 5
	}
	// 0 is a legal floor, so only an unset section gets the default.
	if c.Engine.SimilarityFloor == 0 {
		c.Engine.SimilarityFloor = 0.3
	}
	if c.Engine.FuzzyTopN <= 0 {
		c.Engine.FuzzyTopN = 3
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
}

func (c *Config) applyBreakerDefaults() {
	b := &c.Embedding.Breaker
	if b.MaxRequests == 0 {
		b.MaxRequests = 3
	}
	if b.IntervalSec <= 0 {
		b.IntervalSec = 60
	}
	if b.TimeoutSec <= 0 {
		b.TimeoutSec = 30
	}
	if b.MinRequests == 0 {
		b.MinRequests = 5
	}
	if b.FailureRatio == 0 {
		b.FailureRatio = 0.6
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimitPerMinute < 0 {
		return fmt.Errorf("http.rate_limit_per_minute must be >= 0, got %d", c.HTTP.RateLimitPerMinute)
	}
	if err := c.validateDatasets(); err != nil {
		return err
	}
	switch c.Cache.Driver {
	case "none", "memory":
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	case "badger":
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the badger driver")
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, memory, redis, badger, got %q", c.Cache.Driver)
	}
	switch c.Embedding.Provider {
	case "openai", "local":
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"local\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Engine.SimilarityFloor < -1 || c.Engine.SimilarityFloor > 1 {
		return fmt.Errorf("engine.similarity_floor must be within [-1, 1], got %v", c.Engine.SimilarityFloor)
	}
	if r := c.Embedding.Breaker.FailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("embedding.breaker.failure_ratio must be within (0, 1], got %v", r)
	}
	return nil
}

func (c *Config) validateDatasets() error {
	if len(c.Datasets) == 0 {
		return fmt.Errorf("at least one dataset is required")
	}
	for name, ds := range c.Datasets {
		if !knownDomains[name] {
			return fmt.Errorf("datasets.%s: unknown domain", name)
		}
		if ds.File == "" {
			return fmt.Errorf("datasets.%s.file is required", name)
		}
		if len(ds.Cities) == 0 {
			return fmt.Errorf("datasets.%s.cities must list at least one city", name)
		}
		for city, sheet := range ds.Cities {
			if strings.TrimSpace(sheet) == "" {
				return fmt.Errorf("datasets.%s.cities.%s: sheet is empty", name, city)
			}
		}
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
