// Package embedding 提供文本向量化客户端实现。
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/playrec/core"
)

// 批处理与限速常量（上游 API 的硬约束，调大会触发限流）
const (
	// DefaultBatchSize 单次批量请求的最大文本数
	DefaultBatchSize = 100

	// DefaultBatchDelay 批次间的固定延迟
	DefaultBatchDelay = 500 * time.Millisecond

	// DefaultFallbackDelay 批量失败后逐条重试时的单条间隔
	DefaultFallbackDelay = 100 * time.Millisecond

	// DefaultDimension 默认向量维度（embedding-001 模型为 768）
	DefaultDimension = 768

	// MaxTextRunes 文本截断点（按 rune 计，固定常量保证确定性）
	MaxTextRunes = 8192
)

// GeminiEmbedder 是 Gemini 风格 embedContent API 的向量化客户端。
//
// 降级策略（可用性优先）：
//   - 批量调用失败时，以更短间隔逐条重试
//   - 单条仍失败时以 D 维零向量占位，绝不因一条文本拖垮整批
//   - 调用方可用 core.IsZeroVector 检测占位向量
//
// 无状态，可并发共享；作为依赖注入而非进程级单例。
type GeminiEmbedder struct {
	// Endpoint API 根地址，例如 "https://generativelanguage.googleapis.com/v1beta"
	Endpoint string

	// APIKey 鉴权密钥（query 参数方式）
	APIKey string

	// Model 模型名称，默认 "embedding-001"
	Model string

	// BatchSize / BatchDelay / FallbackDelay 见包级常量
	BatchSize     int
	BatchDelay    time.Duration
	FallbackDelay time.Duration

	dimension  int
	httpClient *http.Client
	log        *zap.Logger
}

// GeminiOption 向量化客户端配置选项
type GeminiOption func(*GeminiEmbedder)

// WithModel 设置模型名称
func WithModel(model string) GeminiOption {
	return func(e *GeminiEmbedder) { e.Model = model }
}

// WithDimension 设置向量维度 D（随模型切换，一处配置）
func WithDimension(dim int) GeminiOption {
	return func(e *GeminiEmbedder) { e.dimension = dim }
}

// WithBatchSize 设置单批最大文本数
func WithBatchSize(n int) GeminiOption {
	return func(e *GeminiEmbedder) { e.BatchSize = n }
}

// WithDelays 设置批次间与逐条兜底的固定延迟
func WithDelays(batch, fallback time.Duration) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.BatchDelay = batch
		e.FallbackDelay = fallback
	}
}

// WithHTTPClient 使用自定义 HTTP 客户端（测试注入用）
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(e *GeminiEmbedder) { e.httpClient = client }
}

// WithLogger 设置日志器，默认静默
func WithLogger(log *zap.Logger) GeminiOption {
	return func(e *GeminiEmbedder) { e.log = log }
}

// NewGeminiEmbedder 创建向量化客户端。
func NewGeminiEmbedder(endpoint, apiKey string, opts ...GeminiOption) *GeminiEmbedder {
	e := &GeminiEmbedder{
		Endpoint:      strings.TrimRight(endpoint, "/"),
		APIKey:        apiKey,
		Model:         "embedding-001",
		BatchSize:     DefaultBatchSize,
		BatchDelay:    DefaultBatchDelay,
		FallbackDelay: DefaultFallbackDelay,
		dimension:     DefaultDimension,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.httpClient == nil {
		e.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Dimension 实现 core.Embedder 接口
func (e *GeminiEmbedder) Dimension() int { return e.dimension }

// EmbedBatch 实现 core.Embedder 接口。
// 返回的向量与输入一一对应，长度恒等于 len(texts)。
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput,
				fmt.Sprintf("embedding: text %d is empty", i))
		}
	}

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	results := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		vectors, err := e.embedChunk(ctx, chunk)
		if err != nil {
			// 批量失败：以更短间隔逐条重试，单条仍失败则零向量占位
			e.log.Warn("embedding batch failed, falling back to per-text calls",
				zap.Int("chunk_start", start), zap.Int("chunk_size", len(chunk)), zap.Error(err))
			vectors = make([][]float64, 0, len(chunk))
			for _, text := range chunk {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				vec, singleErr := e.embedSingle(ctx, text)
				if singleErr != nil {
					e.log.Warn("embedding single text failed, substituting zero vector", zap.Error(singleErr))
					vec = core.ZeroVector(e.dimension)
				}
				vectors = append(vectors, vec)
				if err := sleepCtx(ctx, e.FallbackDelay); err != nil {
					return nil, err
				}
			}
		}
		results = append(results, vectors...)

		if end < len(texts) {
			if err := sleepCtx(ctx, e.BatchDelay); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// EmbedOne 实现 core.Embedder 接口。
// 失败时返回零向量而不是错误，调用方据此决定是否重试。
func (e *GeminiEmbedder) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return core.ZeroVector(e.dimension), nil
	}
	vec, err := e.embedSingle(ctx, text)
	if err != nil {
		e.log.Warn("embedding failed, substituting zero vector", zap.Error(err))
		return core.ZeroVector(e.dimension), nil
	}
	return vec, nil
}

// Verify 对探针文本做一次向量化，校验服务可用且维度匹配。
func (e *GeminiEmbedder) Verify(ctx context.Context) error {
	vec, err := e.embedSingle(ctx, "测试文本")
	if err != nil {
		return core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "embedding: verify", err)
	}
	if len(vec) != e.dimension {
		return core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidVector,
			fmt.Sprintf("embedding: verify dimension %d, want %d", len(vec), e.dimension))
	}
	return nil
}

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Parts []contentPart `json:"parts"`
}

type embedRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType,omitempty"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type embeddingValues struct {
	Values []float64 `json:"values"`
}

type batchEmbedResponse struct {
	Embeddings []embeddingValues `json:"embeddings"`
}

type embedResponse struct {
	Embedding embeddingValues `json:"embedding"`
}

func (e *GeminiEmbedder) embedChunk(ctx context.Context, texts []string) ([][]float64, error) {
	req := batchEmbedRequest{Requests: make([]embedRequest, 0, len(texts))}
	for _, t := range texts {
		req.Requests = append(req.Requests, embedRequest{
			Model:    "models/" + e.Model,
			Content:  content{Parts: []contentPart{{Text: truncate(t)}}},
			TaskType: "RETRIEVAL_DOCUMENT",
		})
	}

	var resp batchEmbedResponse
	if err := e.post(ctx, ":batchEmbedContents", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	out := make([][]float64, 0, len(texts))
	for _, emb := range resp.Embeddings {
		out = append(out, emb.Values)
	}
	return out, nil
}

func (e *GeminiEmbedder) embedSingle(ctx context.Context, text string) ([]float64, error) {
	req := embedRequest{
		Model:    "models/" + e.Model,
		Content:  content{Parts: []contentPart{{Text: truncate(text)}}},
		TaskType: "RETRIEVAL_QUERY",
	}

	var resp embedResponse
	if err := e.post(ctx, ":embedContent", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return resp.Embedding.Values, nil
}

func (e *GeminiEmbedder) post(ctx context.Context, method string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s%s?key=%s", e.Endpoint, e.Model, method, e.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("embedding service error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate 在固定 rune 数处截断，保证同一文本多次截断结果一致。
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxTextRunes {
		return text
	}
	return string(runes[:MaxTextRunes])
}

// sleepCtx 在等待期间响应取消。
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ core.Embedder = (*GeminiEmbedder)(nil)
