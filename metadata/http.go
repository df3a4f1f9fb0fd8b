// Package metadata 提供物品描述性元数据的获取与缓存。
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rushteam/playrec/core"
)

// HTTPProvider 是 storefront 风格 appdetails API 的元数据客户端。
//
// 响应信封以 appid 字符串为动态 key：
//
//	{"220": {"success": true, "data": {"name": "...", "genres": [...], ...}}}
//
// 约定：
//   - success=false 或缺少 name 视为"物品不存在"，返回 (nil, nil) 而非错误
//   - 只有网络/HTTP 层故障才返回 error
type HTTPProvider struct {
	// Endpoint 服务端点，例如 "https://store.example.com/api/appdetails"
	Endpoint string

	// Timeout 单次请求超时时间
	Timeout time.Duration

	httpClient *http.Client
}

// HTTPProviderOption 元数据客户端配置选项
type HTTPProviderOption func(*HTTPProvider)

// WithTimeout 设置超时时间
func WithTimeout(timeout time.Duration) HTTPProviderOption {
	return func(p *HTTPProvider) {
		p.Timeout = timeout
	}
}

// WithHTTPClient 使用自定义 HTTP 客户端（测试注入用）
func WithHTTPClient(client *http.Client) HTTPProviderOption {
	return func(p *HTTPProvider) {
		p.httpClient = client
	}
}

// NewHTTPProvider 创建 appdetails 元数据客户端。
func NewHTTPProvider(endpoint string, opts ...HTTPProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		Endpoint: endpoint,
		Timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: p.Timeout}
	}
	return p
}

type appDetailsEnvelope struct {
	Success bool            `json:"success"`
	Data    *appDetailsData `json:"data"`
}

type appDetailsData struct {
	SteamAppID          int64             `json:"steam_appid"`
	Name                string            `json:"name"`
	DetailedDescription string            `json:"detailed_description"`
	ShortDescription    string            `json:"short_description"`
	Genres              []descriptionItem `json:"genres"`
	Categories          []descriptionItem `json:"categories"`
	Developers          []string          `json:"developers"`
	Publishers          []string          `json:"publishers"`
	Metacritic          *struct {
		Score int `json:"score"`
	} `json:"metacritic"`
	ReleaseDate *struct {
		Date string `json:"date"`
	} `json:"release_date"`
	HeaderImage string `json:"header_image"`
}

type descriptionItem struct {
	Description string `json:"description"`
}

// GetDetails 实现 core.MetadataProvider 接口
func (p *HTTPProvider) GetDetails(ctx context.Context, itemID int64) (*core.ItemDetails, error) {
	appID := strconv.FormatInt(itemID, 10)

	u, err := url.Parse(p.Endpoint)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleMetadata, core.ErrorCodeInvalidInput, "metadata: parse endpoint", err)
	}
	q := u.Query()
	q.Set("appids", appID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleMetadata, core.ErrorCodeInternalError, "metadata: create request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleMetadata, core.ErrorCodeUnavailable, "metadata: http request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, core.WrapDomainError(core.ModuleMetadata, core.ErrorCodeUnavailable,
			fmt.Sprintf("metadata: status=%d, body=%s", resp.StatusCode, string(body)), nil)
	}

	var envelope map[string]appDetailsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, core.WrapDomainError(core.ModuleMetadata, core.ErrorCodeInternalError, "metadata: decode response", err)
	}

	entry, ok := envelope[appID]
	if !ok || !entry.Success || entry.Data == nil || entry.Data.Name == "" {
		// 数据缺失按"跳过"处理，不作为失败
		return nil, nil
	}

	d := entry.Data
	details := &core.ItemDetails{
		ItemID:           itemID,
		Name:             d.Name,
		Description:      d.DetailedDescription,
		ShortDescription: d.ShortDescription,
		Genres:           descriptions(d.Genres),
		Tags:             descriptions(d.Categories),
		Developers:       d.Developers,
		Publishers:       d.Publishers,
		HeaderImage:      d.HeaderImage,
	}
	if d.Metacritic != nil {
		details.MetacriticScore = d.Metacritic.Score
	}
	if d.ReleaseDate != nil {
		details.ReleaseDate = d.ReleaseDate.Date
	}
	return details, nil
}

func descriptions(items []descriptionItem) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.Description != "" {
			out = append(out, it.Description)
		}
	}
	return out
}

var _ core.MetadataProvider = (*HTTPProvider)(nil)
