package cannon

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GO4ME1/morgus-agent-sub009/pkg/adapter"
)

func staticCaller(content string) ModelCaller {
	return func(context.Context, string, []adapter.Message) (string, error) {
		return content, nil
	}
}

func failingCaller(err error) ModelCaller {
	return func(context.Context, string, []adapter.Message) (string, error) {
		return "", err
	}
}

func TestFireConsensus(t *testing.T) {
	c := New(map[string]ModelCaller{
		"model-a": staticCaller("the quick brown fox jumps over the lazy dog"),
		"model-b": staticCaller("the quick brown fox jumps over the lazy dog today"),
	})

	resp, err := c.Fire(context.Background(), "describe the fox", []string{"model-a", "model-b"}, nil)
	if err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if resp.Method != MethodConsensus {
		t.Fatalf("expected consensus, got %s", resp.Method)
	}
	if len(resp.Models) < 2 {
		t.Fatalf("expected at least two contributing models, got %v", resp.Models)
	}
	if resp.Confidence < consensusThreshold {
		t.Fatalf("consensus confidence below threshold: %.3f", resp.Confidence)
	}
}

func TestFireDivergentFallsBackToBest(t *testing.T) {
	long := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta ", 20)
	c := New(map[string]ModelCaller{
		"model-a": staticCaller(long + "\n```go\nfunc main() {}\n```"),
		"model-b": staticCaller("completely unrelated words about cooking pasta"),
	})

	resp, err := c.Fire(context.Background(), "question", []string{"model-a", "model-b"}, nil)
	if err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if resp.Method != MethodBest {
		t.Fatalf("expected best, got %s", resp.Method)
	}
	if len(resp.Models) != 1 || resp.Models[0] != "model-a" {
		t.Fatalf("expected the higher-confidence model to win, got %v", resp.Models)
	}
}

func TestFireAllFailed(t *testing.T) {
	c := New(map[string]ModelCaller{
		"model-a": failingCaller(errors.New("boom")),
		"model-b": failingCaller(errors.New("bang")),
	})

	_, err := c.Fire(context.Background(), "question", []string{"model-a", "model-b"}, nil)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("expected ErrAllFailed, got %v", err)
	}
}

func TestFireSingleSurvivorVerbatim(t *testing.T) {
	const answer = "forty-two"
	c := New(map[string]ModelCaller{
		"model-a": failingCaller(errors.New("boom")),
		"model-b": staticCaller(answer),
	})

	resp, err := c.Fire(context.Background(), "question", []string{"model-a", "model-b"}, nil)
	if err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if resp.Content != answer {
		t.Fatalf("expected verbatim content %q, got %q", answer, resp.Content)
	}
	if resp.Method != MethodBest {
		t.Fatalf("expected best for single survivor, got %s", resp.Method)
	}
	if len(resp.Models) != 1 || resp.Models[0] != "model-b" {
		t.Fatalf("unexpected contributors: %v", resp.Models)
	}
}

func TestFireEmptyResponsesDiscarded(t *testing.T) {
	c := New(map[string]ModelCaller{
		"model-a": staticCaller(""),
		"model-b": staticCaller("real content"),
	})

	resp, err := c.Fire(context.Background(), "question", []string{"model-a", "model-b"}, nil)
	if err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if resp.Content != "real content" {
		t.Fatalf("expected empty response to be discarded, got %q", resp.Content)
	}
}

func TestFireUnknownModelIsNotFatal(t *testing.T) {
	c := New(map[string]ModelCaller{
		"model-a": staticCaller("answer"),
	})

	resp, err := c.Fire(context.Background(), "question", []string{"model-a", "ghost"}, nil)
	if err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if resp.Content != "answer" {
		t.Fatalf("expected surviving model's answer, got %q", resp.Content)
	}
}

func TestFireNoModels(t *testing.T) {
	c := New(map[string]ModelCaller{})
	if _, err := c.Fire(context.Background(), "question", nil, nil); err == nil {
		t.Fatalf("expected error for empty model list")
	}
}

func TestFireSlowSiblingNotCancelled(t *testing.T) {
	var slowDone atomic.Bool
	c := New(map[string]ModelCaller{
		"fast-fail": failingCaller(errors.New("boom")),
		"slow-ok": func(ctx context.Context, _ string, _ []adapter.Message) (string, error) {
			select {
			case <-time.After(50 * time.Millisecond):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			slowDone.Store(true)
			return "slow answer", nil
		},
	})

	resp, err := c.Fire(context.Background(), "question", []string{"fast-fail", "slow-ok"}, nil)
	if err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if !slowDone.Load() {
		t.Fatalf("synthesis ran before the slow call settled")
	}
	if resp.Content != "slow answer" {
		t.Fatalf("expected the slow survivor's answer, got %q", resp.Content)
	}
}

func TestCallersFromAdapters(t *testing.T) {
	mock := adapter.NewMockAdapterWithResponses(map[string]string{"hi": "hello"}, "")
	callers := CallersFromAdapters(mock)

	caller, ok := callers["mock-1"]
	if !ok {
		t.Fatalf("expected caller for mock-1")
	}
	content, err := caller(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("caller failed: %v", err)
	}
	if content != "hello" {
		t.Fatalf("unexpected content %q", content)
	}
}
