package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/playrec/core"
)

const (
	// DefaultConcurrency 单批并行同步的物品数（上游 API 限流约束）
	DefaultConcurrency = 3

	// DefaultBatchDelay 批次间的固定延迟
	DefaultBatchDelay = 2 * time.Second

	// DefaultMaxLibrarySize 单次全库同步处理的物品数上限
	DefaultMaxLibrarySize = 5000
)

// Syncer 把用户游戏库逐个同步进向量索引。
//
// 实现：
//   - 按固定并发分批处理，批内并行、批间串行加延迟
//   - all-settled 语义：单个物品失败只计数，不中断整库同步
//   - 元数据缺失按"跳过"处理，既不算成功也不算失败
//
// 只有游玩历史本身拉取失败才让整次同步失败。
type Syncer struct {
	Meta     core.MetadataProvider
	Embedder core.Embedder
	Store    core.CatalogStore
	History  core.PlayHistoryProvider

	// Concurrency / BatchDelay / MaxLibrarySize 见包级常量
	Concurrency    int
	BatchDelay     time.Duration
	MaxLibrarySize int

	log *zap.Logger
}

// SyncerOption 同步器配置选项
type SyncerOption func(*Syncer)

// WithConcurrency 设置单批并发数
func WithConcurrency(n int) SyncerOption {
	return func(s *Syncer) { s.Concurrency = n }
}

// WithBatchDelay 设置批次间延迟
func WithBatchDelay(d time.Duration) SyncerOption {
	return func(s *Syncer) { s.BatchDelay = d }
}

// WithMaxLibrarySize 设置单次同步的物品数上限
func WithMaxLibrarySize(n int) SyncerOption {
	return func(s *Syncer) { s.MaxLibrarySize = n }
}

// WithLogger 设置日志器，默认静默
func WithLogger(log *zap.Logger) SyncerOption {
	return func(s *Syncer) { s.log = log }
}

// NewSyncer 创建目录同步器。
func NewSyncer(meta core.MetadataProvider, embedder core.Embedder, store core.CatalogStore, history core.PlayHistoryProvider, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		Meta:           meta,
		Embedder:       embedder,
		Store:          store,
		History:        history,
		Concurrency:    DefaultConcurrency,
		BatchDelay:     DefaultBatchDelay,
		MaxLibrarySize: DefaultMaxLibrarySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SyncItem 同步单个物品：取元数据、向量化、写入索引。
// 元数据缺失返回 (false, nil)，表示跳过；true 表示已写入索引。
func (s *Syncer) SyncItem(ctx context.Context, itemID int64) (bool, error) {
	details, err := s.Meta.GetDetails(ctx, itemID)
	if err != nil {
		return false, err
	}
	if details == nil {
		s.log.Info("item details missing, skipped", zap.Int64("item_id", itemID))
		return false, nil
	}

	text := BuildEmbeddingText(details)
	vec, err := s.Embedder.EmbedOne(ctx, text)
	if err != nil {
		return false, err
	}
	if core.IsZeroVector(vec) {
		s.log.Warn("embedding degraded to zero vector", zap.Int64("item_id", itemID))
	}

	item := &core.CatalogItem{
		ItemID:           itemID,
		Name:             details.Name,
		Description:      details.Description,
		ShortDescription: details.ShortDescription,
		Genres:           details.Genres,
		Tags:             details.Tags,
		Developer:        joinOr(details.Developers, ""),
		Publisher:        joinOr(details.Publishers, ""),
		MetacriticScore:  details.MetacriticScore,
		ReleaseDate:      details.ReleaseDate,
		HeaderImage:      details.HeaderImage,
		Embedding:        vec,
	}
	if err := s.Store.Upsert(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

// SyncUserLibrary 同步用户整个游戏库。
// 返回的 SyncResult 统计成功/失败/跳过数；部分失败不视为整体失败。
func (s *Syncer) SyncUserLibrary(ctx context.Context, userID string) (*core.SyncResult, error) {
	maxSize := s.MaxLibrarySize
	if maxSize <= 0 {
		maxSize = DefaultMaxLibrarySize
	}

	records, _, err := s.History.GetAllPlayed(ctx, userID, maxSize, 0)
	if err != nil {
		return nil, err
	}
	s.log.Info("library sync started", zap.String("user_id", userID), zap.Int("items", len(records)))

	result := &core.SyncResult{Total: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var mu sync.Mutex
	for start := 0; start < len(records); start += concurrency {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + concurrency
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		g, gctx := errgroup.WithContext(ctx)
		for _, rec := range batch {
			rec := rec
			g.Go(func() error {
				synced, err := s.SyncItem(gctx, rec.ItemID)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					s.log.Warn("item sync failed", zap.Int64("item_id", rec.ItemID), zap.Error(err))
					result.Failed++
				case synced:
					result.Succeeded++
				default:
					result.Skipped++
				}
				// 失败只计数，不中断同批其余物品
				return nil
			})
		}
		_ = g.Wait()

		if end < len(records) {
			if err := sleepCtx(ctx, s.BatchDelay); err != nil {
				return nil, err
			}
		}
	}

	s.log.Info("library sync finished",
		zap.String("user_id", userID),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// IsItemSynced 检查物品是否已入索引。
func (s *Syncer) IsItemSynced(ctx context.Context, itemID int64) (bool, error) {
	return s.Store.Has(ctx, itemID)
}

// CountSynced 返回已入索引的物品数。
func (s *Syncer) CountSynced(ctx context.Context) (int64, error) {
	return s.Store.CountIndexed(ctx)
}

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
