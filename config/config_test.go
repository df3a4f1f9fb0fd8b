package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入临时文件失败: %v", err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
embedding:
  endpoint: https://generativelanguage.googleapis.com/v1beta
  api_key: test-key
  dimension: 768
llm:
  endpoint: https://openrouter.ai/api/v1/chat/completions
  api_key: llm-key
store:
  catalog: postgres
  postgres_dsn: postgres://localhost/playrec
  kv: redis
  redis_addr: localhost:6379
recommend:
  search_k: 20
  exclude_owned: true
`)

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("加载 YAML 失败: %v", err)
	}
	if cfg.Embedding.APIKey != "test-key" {
		t.Errorf("embedding.api_key 错误: %s", cfg.Embedding.APIKey)
	}
	if cfg.Store.Catalog != "postgres" {
		t.Errorf("store.catalog 错误: %s", cfg.Store.Catalog)
	}
	if cfg.Recommend.SearchK != 20 {
		t.Errorf("recommend.search_k 错误: %d", cfg.Recommend.SearchK)
	}
	if !cfg.Recommend.ExcludeOwned {
		t.Error("recommend.exclude_owned 应为 true")
	}

	// 未出现的字段保持默认值
	if cfg.Recommend.TopPlayed != 5 {
		t.Errorf("recommend.top_played 应保持默认 5: %d", cfg.Recommend.TopPlayed)
	}
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("embedding.batch_size 应保持默认 100: %d", cfg.Embedding.BatchSize)
	}
	if cfg.Sync.Concurrency != 3 {
		t.Errorf("sync.concurrency 应保持默认 3: %d", cfg.Sync.Concurrency)
	}
}

func TestLoadFromJSON(t *testing.T) {
	path := writeTemp(t, "config.json", `{
		"llm": {"model": "custom/model"},
		"sync": {"concurrency": 5}
	}`)

	cfg, err := LoadFromJSON(path)
	if err != nil {
		t.Fatalf("加载 JSON 失败: %v", err)
	}
	if cfg.LLM.Model != "custom/model" {
		t.Errorf("llm.model 错误: %s", cfg.LLM.Model)
	}
	if cfg.Sync.Concurrency != 5 {
		t.Errorf("sync.concurrency 错误: %d", cfg.Sync.Concurrency)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"默认配置合法", func(c *Config) {}, false},
		{"维度非正", func(c *Config) { c.Embedding.Dimension = 0 }, true},
		{"top_played 非正", func(c *Config) { c.Recommend.TopPlayed = -1 }, true},
		{"search_k 非正", func(c *Config) { c.Recommend.SearchK = 0 }, true},
		{"postgres 缺 DSN", func(c *Config) { c.Store.Catalog = "postgres" }, true},
		{"redis 缺地址", func(c *Config) { c.Store.KV = "redis" }, true},
		{"未知 catalog 后端", func(c *Config) { c.Store.Catalog = "cassandra" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate 结果错误: %v", err)
			}
		})
	}
}

func TestLoadFromYAMLMissingFile(t *testing.T) {
	if _, err := LoadFromYAML("/nonexistent/config.yaml"); err == nil {
		t.Error("文件不存在应报错")
	}
}
