// Package config 提供推荐系统的配置加载（支持 YAML/JSON）。
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是推荐系统的完整配置结构。
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Sync      SyncConfig      `yaml:"sync" json:"sync"`
	Recommend RecommendConfig `yaml:"recommend" json:"recommend"`
}

// EmbeddingConfig 向量化客户端配置。
type EmbeddingConfig struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	APIKey          string `yaml:"api_key" json:"api_key"`
	Model           string `yaml:"model" json:"model"`
	Dimension       int    `yaml:"dimension" json:"dimension"`
	BatchSize       int    `yaml:"batch_size" json:"batch_size"`
	BatchDelayMs    int    `yaml:"batch_delay_ms" json:"batch_delay_ms"`
	FallbackDelayMs int    `yaml:"fallback_delay_ms" json:"fallback_delay_ms"`
}

// LLMConfig 补全客户端配置。
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	APIKey      string  `yaml:"api_key" json:"api_key"`
	Model       string  `yaml:"model" json:"model"`
	Referer     string  `yaml:"referer" json:"referer"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// StoreConfig 存储后端配置。
type StoreConfig struct {
	// Catalog 向量索引后端：memory / postgres
	Catalog string `yaml:"catalog" json:"catalog"`
	// PostgresDSN Catalog 为 postgres 时的连接串
	PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"`

	// KV 游玩历史与缓存后端：memory / redis
	KV        string `yaml:"kv" json:"kv"`
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`
	RedisDB   int    `yaml:"redis_db" json:"redis_db"`
}

// SyncConfig 目录同步配置。
type SyncConfig struct {
	MetadataEndpoint string `yaml:"metadata_endpoint" json:"metadata_endpoint"`
	Concurrency      int    `yaml:"concurrency" json:"concurrency"`
	BatchDelayMs     int    `yaml:"batch_delay_ms" json:"batch_delay_ms"`
	MaxLibrarySize   int    `yaml:"max_library_size" json:"max_library_size"`
	CacheTTLSeconds  int    `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
}

// RecommendConfig 推荐引擎配置。
type RecommendConfig struct {
	TopPlayed int `yaml:"top_played" json:"top_played"`
	SearchK   int `yaml:"search_k" json:"search_k"`
	// ValidateCandidate 开启推荐结果的候选集校验
	ValidateCandidate bool `yaml:"validate_candidate" json:"validate_candidate"`
	// FilterExpr 候选过滤的 CEL 表达式，空则不启用
	FilterExpr string `yaml:"filter_expr" json:"filter_expr"`
	// ExcludeOwned 过滤用户已拥有的物品
	ExcludeOwned bool `yaml:"exclude_owned" json:"exclude_owned"`
}

// Default 返回带默认值的配置。
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Model:           "embedding-001",
			Dimension:       768,
			BatchSize:       100,
			BatchDelayMs:    500,
			FallbackDelayMs: 100,
		},
		LLM: LLMConfig{
			Model:       "moonshotai/kimi-k2:free",
			Temperature: 0.7,
		},
		Store: StoreConfig{
			Catalog: "memory",
			KV:      "memory",
		},
		Sync: SyncConfig{
			Concurrency:     3,
			BatchDelayMs:    2000,
			MaxLibrarySize:  5000,
			CacheTTLSeconds: 24 * 3600,
		},
		Recommend: RecommendConfig{
			TopPlayed: 5,
			SearchK:   15,
		},
	}
}

// LoadFromYAML 从 YAML 文件加载配置，未出现的字段保持默认值。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromJSON 从 JSON 文件加载配置，未出现的字段保持默认值。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置的基本合法性。
func (c *Config) Validate() error {
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Recommend.TopPlayed <= 0 {
		return fmt.Errorf("recommend.top_played must be positive, got %d", c.Recommend.TopPlayed)
	}
	if c.Recommend.SearchK <= 0 {
		return fmt.Errorf("recommend.search_k must be positive, got %d", c.Recommend.SearchK)
	}
	switch c.Store.Catalog {
	case "memory":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn required when store.catalog is postgres")
		}
	default:
		return fmt.Errorf("unknown store.catalog %q", c.Store.Catalog)
	}
	switch c.Store.KV {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr required when store.kv is redis")
		}
	default:
		return fmt.Errorf("unknown store.kv %q", c.Store.KV)
	}
	return nil
}
