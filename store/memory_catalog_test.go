package store

import (
	"context"
	"testing"

	"github.com/rushteam/playrec/core"
)

func TestMemoryCatalogStore_Upsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCatalogStore(3)
	defer s.Close()

	item := &core.CatalogItem{
		ItemID:    220,
		Name:      "Half-Life 2",
		Genres:    []string{"FPS"},
		Embedding: []float64{0.1, 0.2, 0.3},
	}
	if err := s.Upsert(ctx, item); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}

	// 同 ItemID 再次写入应整条覆盖，总数不变
	item2 := &core.CatalogItem{
		ItemID:    220,
		Name:      "Half-Life 2 (updated)",
		Embedding: []float64{0.3, 0.2, 0.1},
	}
	if err := s.Upsert(ctx, item2); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}

	count, err := s.CountIndexed(ctx)
	if err != nil {
		t.Fatalf("CountIndexed 失败: %v", err)
	}
	if count != 1 {
		t.Errorf("期望 1 条记录，实际 %d", count)
	}

	got, ok := s.Get(220)
	if !ok {
		t.Fatal("记录不存在")
	}
	if got.Name != "Half-Life 2 (updated)" {
		t.Errorf("覆盖后名称错误: %s", got.Name)
	}
	// 覆盖是整条替换，旧字段不保留
	if len(got.Genres) != 0 {
		t.Errorf("覆盖后旧 Genres 不应保留: %v", got.Genres)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt 应在写入时刷新")
	}
}

func TestMemoryCatalogStore_UpsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCatalogStore(3)
	defer s.Close()

	err := s.Upsert(ctx, &core.CatalogItem{ItemID: 1, Embedding: []float64{0.1, 0.2}})
	if err == nil {
		t.Fatal("维度不匹配应报错")
	}
	if !core.IsInvalidVector(err) {
		t.Errorf("期望 INVALID_VECTOR，实际: %v", err)
	}
}

func TestMemoryCatalogStore_SearchOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCatalogStore(2)
	defer s.Close()

	items := []*core.CatalogItem{
		{ItemID: 1, Name: "正交", Embedding: []float64{0, 1}},
		{ItemID: 2, Name: "同向", Embedding: []float64{1, 0}},
		{ItemID: 3, Name: "斜向", Embedding: []float64{1, 1}},
	}
	for _, it := range items {
		if err := s.Upsert(ctx, it); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	matches, err := s.Search(ctx, []float64{1, 0}, 10)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("期望 3 个候选，实际 %d", len(matches))
	}

	// 余弦相似度降序：同向(1.0) > 斜向(0.707) > 正交(0.0)
	wantOrder := []int64{2, 3, 1}
	for i, want := range wantOrder {
		if matches[i].ItemID != want {
			t.Errorf("位置 %d 期望 ItemID %d，实际 %d", i, want, matches[i].ItemID)
		}
	}
	if matches[0].Similarity <= matches[1].Similarity || matches[1].Similarity <= matches[2].Similarity {
		t.Errorf("相似度应严格降序: %v, %v, %v",
			matches[0].Similarity, matches[1].Similarity, matches[2].Similarity)
	}
}

func TestMemoryCatalogStore_SearchTieBreak(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCatalogStore(2)
	defer s.Close()

	// 同向向量相似度完全相同，排序应按 ItemID 升序
	for _, id := range []int64{30, 10, 20} {
		if err := s.Upsert(ctx, &core.CatalogItem{ItemID: id, Embedding: []float64{1, 0}}); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		matches, err := s.Search(ctx, []float64{2, 0}, 10)
		if err != nil {
			t.Fatalf("检索失败: %v", err)
		}
		wantOrder := []int64{10, 20, 30}
		for j, want := range wantOrder {
			if matches[j].ItemID != want {
				t.Fatalf("第 %d 次检索位置 %d 期望 %d，实际 %d", i, j, want, matches[j].ItemID)
			}
		}
	}
}

func TestMemoryCatalogStore_SearchTopK(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCatalogStore(2)
	defer s.Close()

	for id := int64(1); id <= 20; id++ {
		if err := s.Upsert(ctx, &core.CatalogItem{ItemID: id, Embedding: []float64{1, float64(id)}}); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	matches, err := s.Search(ctx, []float64{1, 1}, 5)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(matches) != 5 {
		t.Errorf("期望 topK=5 截断，实际 %d", len(matches))
	}

	// topK 超过总量时返回全部
	matches, err = s.Search(ctx, []float64{1, 1}, 100)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(matches) != 20 {
		t.Errorf("期望返回全部 20 条，实际 %d", len(matches))
	}
}

func TestMemoryCatalogStore_SearchInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCatalogStore(2)
	defer s.Close()

	if _, err := s.Search(ctx, []float64{1, 0}, 0); err == nil {
		t.Error("topK=0 应报错")
	}
	if _, err := s.Search(ctx, []float64{1}, 5); !core.IsInvalidVector(err) {
		t.Errorf("查询向量维度不匹配应返回 INVALID_VECTOR，实际: %v", err)
	}
}

func TestMemoryCatalogStore_ZeroVectorQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCatalogStore(2)
	defer s.Close()

	if err := s.Upsert(ctx, &core.CatalogItem{ItemID: 1, Embedding: []float64{1, 0}}); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	// 零向量是合法查询（降级路径会产生），所有相似度为 0
	matches, err := s.Search(ctx, core.ZeroVector(2), 10)
	if err != nil {
		t.Fatalf("零向量查询不应报错: %v", err)
	}
	if len(matches) != 1 || matches[0].Similarity != 0 {
		t.Errorf("零向量查询相似度应为 0: %+v", matches)
	}
}

func TestMemoryCatalogStore_Has(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCatalogStore(2)
	defer s.Close()

	if err := s.Upsert(ctx, &core.CatalogItem{ItemID: 42, Embedding: []float64{1, 1}}); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	ok, err := s.Has(ctx, 42)
	if err != nil || !ok {
		t.Errorf("已写入的记录应存在: ok=%v err=%v", ok, err)
	}
	ok, err = s.Has(ctx, 99)
	if err != nil || ok {
		t.Errorf("未写入的记录不应存在: ok=%v err=%v", ok, err)
	}
}
