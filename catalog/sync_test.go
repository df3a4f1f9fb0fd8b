package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/rushteam/playrec/core"
	"github.com/rushteam/playrec/history"
	"github.com/rushteam/playrec/store"
)

// fakeMeta 按物品号分流的元数据测试桩
type fakeMeta struct {
	failIDs map[int64]bool // 返回错误
	skipIDs map[int64]bool // 返回 (nil, nil)
}

func (f *fakeMeta) GetDetails(ctx context.Context, itemID int64) (*core.ItemDetails, error) {
	if f.failIDs[itemID] {
		return nil, core.NewDomainError(core.ModuleMetadata, core.ErrorCodeUnavailable, "metadata: boom")
	}
	if f.skipIDs[itemID] {
		return nil, nil
	}
	return &core.ItemDetails{
		ItemID: itemID,
		Name:   fmt.Sprintf("游戏 %d", itemID),
		Genres: []string{"动作"},
	}, nil
}

// fakeEmbedder 返回确定性向量的测试桩
type fakeEmbedder struct{ dim int }

func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, f.dim)
	for i, r := range text {
		vec[i%f.dim] += float64(r%13) / 13
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		vec, _ := f.EmbedOne(ctx, t)
		out = append(out, vec)
	}
	return out, nil
}

func newSyncHarness(t *testing.T, meta *fakeMeta) (*Syncer, *store.MemoryCatalogStore, *history.KVProvider, func()) {
	t.Helper()
	embedder := &fakeEmbedder{dim: 4}
	catalogStore := store.NewMemoryCatalogStore(4)
	kv := store.NewMemoryStore()
	hist := history.NewKVProvider(kv)

	syncer := NewSyncer(meta, embedder, catalogStore, hist,
		WithBatchDelay(0),
	)
	return syncer, catalogStore, hist, func() {
		catalogStore.Close()
		kv.Close()
	}
}

func TestSyncer_SyncItem(t *testing.T) {
	ctx := context.Background()
	syncer, catalogStore, _, done := newSyncHarness(t, &fakeMeta{})
	defer done()

	synced, err := syncer.SyncItem(ctx, 220)
	if err != nil {
		t.Fatalf("SyncItem 失败: %v", err)
	}
	if !synced {
		t.Error("期望同步成功")
	}

	ok, err := syncer.IsItemSynced(ctx, 220)
	if err != nil || !ok {
		t.Errorf("同步后应可查到: ok=%v err=%v", ok, err)
	}

	item, ok := catalogStore.Get(220)
	if !ok {
		t.Fatal("索引中应有记录")
	}
	if item.Name != "游戏 220" {
		t.Errorf("记录名称错误: %s", item.Name)
	}
	if len(item.Embedding) != 4 {
		t.Errorf("向量维度错误: %d", len(item.Embedding))
	}
}

func TestSyncer_SyncItemSkipped(t *testing.T) {
	ctx := context.Background()
	syncer, _, _, done := newSyncHarness(t, &fakeMeta{skipIDs: map[int64]bool{999: true}})
	defer done()

	synced, err := syncer.SyncItem(ctx, 999)
	if err != nil {
		t.Fatalf("元数据缺失不应报错: %v", err)
	}
	if synced {
		t.Error("元数据缺失应视为跳过")
	}

	ok, _ := syncer.IsItemSynced(ctx, 999)
	if ok {
		t.Error("跳过的物品不应入索引")
	}
}

func TestSyncer_SyncUserLibraryAllSettled(t *testing.T) {
	ctx := context.Background()
	// 10 个物品：item-4 元数据报错，item-7 元数据缺失
	meta := &fakeMeta{
		failIDs: map[int64]bool{4: true},
		skipIDs: map[int64]bool{7: true},
	}
	syncer, catalogStore, hist, done := newSyncHarness(t, meta)
	defer done()

	records := make([]core.UserPlayRecord, 0, 10)
	for id := int64(1); id <= 10; id++ {
		records = append(records, core.UserPlayRecord{
			ItemID: id, Name: fmt.Sprintf("游戏 %d", id), PlaytimeMinutes: id * 100,
		})
	}
	if err := hist.SetLibrary(ctx, "user-1", records); err != nil {
		t.Fatalf("SetLibrary 失败: %v", err)
	}

	result, err := syncer.SyncUserLibrary(ctx, "user-1")
	if err != nil {
		t.Fatalf("单物品失败不应让整库同步失败: %v", err)
	}

	if result.Total != 10 {
		t.Errorf("Total 期望 10，实际 %d", result.Total)
	}
	if result.Succeeded != 8 {
		t.Errorf("Succeeded 期望 8，实际 %d", result.Succeeded)
	}
	if result.Failed != 1 {
		t.Errorf("Failed 期望 1，实际 %d", result.Failed)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped 期望 1，实际 %d", result.Skipped)
	}

	// 失败/跳过的物品不入索引，其余全部入索引
	count, err := catalogStore.CountIndexed(ctx)
	if err != nil {
		t.Fatalf("CountIndexed 失败: %v", err)
	}
	if count != 8 {
		t.Errorf("索引记录数期望 8，实际 %d", count)
	}
	for _, id := range []int64{4, 7} {
		if ok, _ := catalogStore.Has(ctx, id); ok {
			t.Errorf("物品 %d 不应入索引", id)
		}
	}
}

func TestSyncer_SyncUserLibraryEmpty(t *testing.T) {
	ctx := context.Background()
	syncer, _, _, done := newSyncHarness(t, &fakeMeta{})
	defer done()

	result, err := syncer.SyncUserLibrary(ctx, "nobody")
	if err != nil {
		t.Fatalf("空库同步不应报错: %v", err)
	}
	if result.Total != 0 || result.Succeeded != 0 || result.Failed != 0 {
		t.Errorf("空库应返回零结果: %+v", result)
	}
}

func TestSyncer_SyncUserLibraryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	syncer, _, hist, done := newSyncHarness(t, &fakeMeta{})
	defer done()

	_ = hist.SetLibrary(context.Background(), "user-1", []core.UserPlayRecord{
		{ItemID: 1, Name: "A", PlaytimeMinutes: 100},
	})

	if _, err := syncer.SyncUserLibrary(ctx, "user-1"); err == nil {
		t.Error("已取消的 context 应中止同步")
	}
}

func TestSyncer_CountSynced(t *testing.T) {
	ctx := context.Background()
	syncer, _, _, done := newSyncHarness(t, &fakeMeta{})
	defer done()

	for _, id := range []int64{1, 2, 3} {
		if _, err := syncer.SyncItem(ctx, id); err != nil {
			t.Fatalf("SyncItem 失败: %v", err)
		}
	}
	count, err := syncer.CountSynced(ctx)
	if err != nil || count != 3 {
		t.Errorf("CountSynced 期望 3，实际 %d err=%v", count, err)
	}
}
