package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/playrec/core"
)

// MemoryCatalogStore 是内存实现的目录向量存储，用于测试/开发/原型。
// 平替 pgvector 等持久化向量存储，支持按 ItemID 覆盖写入与余弦相似度检索。
//
// 特点：
//   - 纯内存实现，进程重启后数据丢失
//   - 线程安全
//   - 检索排序确定：相似度降序，同分按 ItemID 升序
type MemoryCatalogStore struct {
	mu        sync.RWMutex
	dimension int
	items     map[int64]*core.CatalogItem
}

// NewMemoryCatalogStore 创建内存目录存储，dimension 为向量维度 D。
func NewMemoryCatalogStore(dimension int) *MemoryCatalogStore {
	return &MemoryCatalogStore{
		dimension: dimension,
		items:     make(map[int64]*core.CatalogItem),
	}
}

func (m *MemoryCatalogStore) Name() string { return "memory_catalog" }

// Upsert 实现 core.CatalogStore 接口
func (m *MemoryCatalogStore) Upsert(ctx context.Context, item *core.CatalogItem) error {
	if item == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "catalog item is nil")
	}
	if len(item.Embedding) != m.dimension {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidVector, "embedding dimension mismatch")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 整条覆盖，不做字段级合并
	stored := *item
	stored.Embedding = append([]float64(nil), item.Embedding...)
	stored.Genres = append([]string(nil), item.Genres...)
	stored.Tags = append([]string(nil), item.Tags...)
	stored.UpdatedAt = time.Now()
	m.items[item.ItemID] = &stored
	return nil
}

// Search 实现 core.CatalogStore 接口
func (m *MemoryCatalogStore) Search(ctx context.Context, vector []float64, topK int) ([]core.CandidateMatch, error) {
	if topK < 1 {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "topK must be >= 1")
	}
	if len(vector) != m.dimension {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidVector, "query vector dimension mismatch")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]core.CandidateMatch, 0, len(m.items))
	for _, it := range m.items {
		// 无向量的记录不参与检索（不是按 0 分计）
		if len(it.Embedding) != m.dimension {
			continue
		}
		matches = append(matches, core.CandidateMatch{
			ItemID:      it.ItemID,
			Name:        it.Name,
			Description: it.ShortDescription,
			Genres:      append([]string(nil), it.Genres...),
			Developer:   it.Developer,
			Similarity:  cosineSimilarity(vector, it.Embedding),
		})
	}

	// 相似度降序，同分按 ItemID 升序保证两次检索顺序一致
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ItemID < matches[j].ItemID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// CountIndexed 实现 core.CatalogStore 接口
func (m *MemoryCatalogStore) CountIndexed(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, it := range m.items {
		if len(it.Embedding) == m.dimension {
			n++
		}
	}
	return n, nil
}

// Has 实现 core.CatalogStore 接口
func (m *MemoryCatalogStore) Has(ctx context.Context, itemID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.items[itemID]
	return ok, nil
}

// Close 实现 core.CatalogStore 接口
func (m *MemoryCatalogStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[int64]*core.CatalogItem)
	return nil
}

// Get 返回某条记录的副本（测试辅助）。
func (m *MemoryCatalogStore) Get(itemID int64) (*core.CatalogItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[itemID]
	if !ok {
		return nil, false
	}
	cp := *it
	return &cp, true
}

// cosineSimilarity 计算余弦相似度
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// 确保实现了接口
var _ core.CatalogStore = (*MemoryCatalogStore)(nil)
