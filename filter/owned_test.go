package filter

import (
	"context"
	"testing"

	"github.com/rushteam/playrec/core"
	"github.com/rushteam/playrec/history"
	"github.com/rushteam/playrec/store"
)

func TestOwnedFilter_Apply(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	hist := history.NewKVProvider(kv)

	// 已拥有包括 0 时长的游戏（买了没玩也算拥有）
	err := hist.SetLibrary(ctx, "user-1", []core.UserPlayRecord{
		{ItemID: 1, Name: "Hades", PlaytimeMinutes: 600},
		{ItemID: 3, Name: "Stardew Valley", PlaytimeMinutes: 0},
	})
	if err != nil {
		t.Fatalf("SetLibrary 失败: %v", err)
	}

	candidates := []core.CandidateMatch{
		{ItemID: 1, Name: "Hades", Similarity: 0.9},
		{ItemID: 2, Name: "Celeste", Similarity: 0.8},
		{ItemID: 3, Name: "Stardew Valley", Similarity: 0.7},
		{ItemID: 4, Name: "Undertale", Similarity: 0.6},
	}

	f := NewOwnedFilter(hist)
	out, err := f.Apply(ctx, "user-1", candidates)
	if err != nil {
		t.Fatalf("Apply 失败: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("期望剩 2 个候选，实际 %d", len(out))
	}
	// 顺序保持不变
	if out[0].ItemID != 2 || out[1].ItemID != 4 {
		t.Errorf("过滤后顺序错误: %+v", out)
	}
}

func TestOwnedFilter_EmptyLibrary(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	hist := history.NewKVProvider(kv)

	candidates := []core.CandidateMatch{{ItemID: 1, Name: "Hades"}}
	f := NewOwnedFilter(hist)
	out, err := f.Apply(ctx, "nobody", candidates)
	if err != nil {
		t.Fatalf("Apply 失败: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("空库不应过滤任何候选: %+v", out)
	}
}
