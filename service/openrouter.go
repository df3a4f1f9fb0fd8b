// Package service 提供外部生成式服务的客户端。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rushteam/playrec/core"
)

// DefaultCompletionModel 默认补全模型
const DefaultCompletionModel = "moonshotai/kimi-k2:free"

// OpenRouterClient 是 chat/completions 风格 API 的补全客户端。
//
// 设计原则：
//   - 只负责"一次 prompt 进、一段文本出"，不理解推荐语义
//   - 响应内容的解析与降级由推荐引擎负责
type OpenRouterClient struct {
	// Endpoint 服务端点，例如 "https://openrouter.ai/api/v1/chat/completions"
	Endpoint string

	// APIKey Bearer 鉴权密钥
	APIKey string

	// Model 模型名称，默认 DefaultCompletionModel
	Model string

	// Referer 部分网关要求的 HTTP-Referer 来源标识
	Referer string

	// Temperature 采样温度
	Temperature float64

	httpClient *http.Client
}

// OpenRouterOption 补全客户端配置选项
type OpenRouterOption func(*OpenRouterClient)

// WithCompletionModel 设置模型名称
func WithCompletionModel(model string) OpenRouterOption {
	return func(c *OpenRouterClient) { c.Model = model }
}

// WithReferer 设置 HTTP-Referer 头
func WithReferer(referer string) OpenRouterOption {
	return func(c *OpenRouterClient) { c.Referer = referer }
}

// WithTemperature 设置采样温度
func WithTemperature(t float64) OpenRouterOption {
	return func(c *OpenRouterClient) { c.Temperature = t }
}

// WithCompletionHTTPClient 使用自定义 HTTP 客户端（测试注入用）
func WithCompletionHTTPClient(client *http.Client) OpenRouterOption {
	return func(c *OpenRouterClient) { c.httpClient = client }
}

// NewOpenRouterClient 创建补全客户端。
func NewOpenRouterClient(endpoint, apiKey string, opts ...OpenRouterOption) *OpenRouterClient {
	c := &OpenRouterClient{
		Endpoint:    endpoint,
		APIKey:      apiKey,
		Model:       DefaultCompletionModel,
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatError struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error"`
}

// Complete 实现 core.CompletionService 接口
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInternalError, "completion: marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInternalError, "completion: create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if c.Referer != "" {
		req.Header.Set("HTTP-Referer", c.Referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeUnavailable, "completion: http request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeUnavailable,
			fmt.Sprintf("completion: status=%d, body=%s", resp.StatusCode, string(body)), nil)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInternalError, "completion: decode response", err)
	}
	if chatResp.Error != nil {
		return "", core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnavailable,
			"completion: upstream error: "+chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInternalError, "completion: empty choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

var _ core.CompletionService = (*OpenRouterClient)(nil)
