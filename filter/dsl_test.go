package filter

import (
	"context"
	"testing"

	"github.com/rushteam/playrec/core"
)

func TestDSLFilter_Apply(t *testing.T) {
	candidates := []core.CandidateMatch{
		{ItemID: 1, Name: "Hades", Genres: []string{"动作", "Roguelike"}, Developer: "Supergiant", Similarity: 0.9},
		{ItemID: 2, Name: "Celeste", Genres: []string{"平台"}, Developer: "EXOK", Similarity: 0.4},
		{ItemID: 3, Name: "Stardew Valley", Genres: []string{"模拟"}, Developer: "ConcernedApe", Similarity: 0.7},
	}

	tests := []struct {
		name    string
		expr    string
		wantIDs []int64
	}{
		{"相似度阈值", `item.similarity > 0.5`, []int64{1, 3}},
		{"类型包含", `"Roguelike" in item.genres`, []int64{1}},
		{"开发商排除", `item.developer != "EXOK"`, []int64{1, 3}},
		{"组合条件", `item.similarity > 0.5 && size(item.genres) == 1`, []int64{3}},
		{"全部保留", `true`, []int64{1, 2, 3}},
		{"全部过滤", `false`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewDSLFilter(tt.expr)
			if err != nil {
				t.Fatalf("编译表达式失败: %v", err)
			}
			out, err := f.Apply(context.Background(), "user-1", candidates)
			if err != nil {
				t.Fatalf("Apply 失败: %v", err)
			}
			if len(out) != len(tt.wantIDs) {
				t.Fatalf("期望 %d 个候选，实际 %d: %+v", len(tt.wantIDs), len(out), out)
			}
			for i, want := range tt.wantIDs {
				if out[i].ItemID != want {
					t.Errorf("位置 %d 期望 ItemID %d，实际 %d", i, want, out[i].ItemID)
				}
			}
		})
	}
}

func TestDSLFilter_CompileError(t *testing.T) {
	if _, err := NewDSLFilter("item.similarity >"); err == nil {
		t.Error("非法表达式应在构造时报错")
	}
}

func TestDSLFilter_NonBooleanExpr(t *testing.T) {
	f, err := NewDSLFilter(`item.name`)
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	_, err = f.Apply(context.Background(), "user-1", []core.CandidateMatch{{ItemID: 1, Name: "X"}})
	if err == nil {
		t.Error("非布尔表达式应在求值时报错")
	}
}

func TestChain(t *testing.T) {
	candidates := []core.CandidateMatch{
		{ItemID: 1, Similarity: 0.9},
		{ItemID: 2, Similarity: 0.2},
	}

	f1, _ := NewDSLFilter(`item.similarity > 0.1`)
	f2, _ := NewDSLFilter(`item.similarity > 0.5`)

	out, err := Chain(context.Background(), "user-1", candidates, f1, f2)
	if err != nil {
		t.Fatalf("Chain 失败: %v", err)
	}
	if len(out) != 1 || out[0].ItemID != 1 {
		t.Errorf("链式过滤结果错误: %+v", out)
	}

	// 无过滤器时原样返回
	out, err = Chain(context.Background(), "user-1", candidates)
	if err != nil || len(out) != 2 {
		t.Errorf("空过滤链应原样返回: %+v err=%v", out, err)
	}
}
