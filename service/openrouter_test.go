package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rushteam/playrec/core"
)

func TestOpenRouterClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization 头错误: %s", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://example.com" {
			t.Errorf("HTTP-Referer 头错误: %s", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("解析请求失败: %v", err)
		}
		if req.Model != "moonshotai/kimi-k2:free" {
			t.Errorf("默认模型错误: %s", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("消息结构错误: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: `{"recommendedGame": "Hades"}`}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "test-key", WithReferer("https://example.com"))
	content, err := c.Complete(context.Background(), "推荐一个游戏")
	if err != nil {
		t.Fatalf("Complete 失败: %v", err)
	}
	if content != `{"recommendedGame": "Hades"}` {
		t.Errorf("回复内容错误: %s", content)
	}
}

func TestOpenRouterClient_CompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "test-key")
	_, err := c.Complete(context.Background(), "prompt")
	if !core.IsUnavailable(err) {
		t.Errorf("上游故障应返回 UNAVAILABLE，实际: %v", err)
	}
}

func TestOpenRouterClient_CompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "test-key")
	if _, err := c.Complete(context.Background(), "prompt"); err == nil {
		t.Error("空 choices 应报错")
	}
}
