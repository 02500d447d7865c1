package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/wardenhq/warden/schema"
)

func TestExecutorSuccess(t *testing.T) {
	registry := NewRegistry()
	tool := newStubTool("probe", nil)
	tool.execute = func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{"score":42}`), nil
	}
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	executor := NewExecutor(registry, nil)
	result := executor.Execute(context.Background(), &schema.Action{Tool: "probe", Params: map[string]interface{}{}})

	if !result.OK() {
		t.Fatalf("expected ok result, got %+v", result)
	}
	if string(result.Data) != `{"score":42}` {
		t.Fatalf("unexpected data: %s", result.Data)
	}
	if result.ErrorKind != "" || result.Message != "" {
		t.Fatalf("error fields populated on success: %+v", result)
	}
}

func TestExecutorRemoteRejected(t *testing.T) {
	registry := NewRegistry()
	tool := newStubTool("probe", nil)
	tool.execute = func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
		return nil, schema.NewRemoteError("upstream", 429, "rate limited")
	}
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	executor := NewExecutor(registry, nil)
	result := executor.Execute(context.Background(), &schema.Action{Tool: "probe"})

	if result.OK() {
		t.Fatalf("expected error result")
	}
	if result.ErrorKind != schema.KindRemoteRejected {
		t.Fatalf("expected remote_rejected, got %s", result.ErrorKind)
	}
	if result.Data != nil {
		t.Fatalf("data populated on error: %+v", result)
	}
}

func TestExecutorTimeoutIsUnavailable(t *testing.T) {
	registry := NewRegistry()
	tool := newStubTool("slow", nil)
	tool.execute = func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	executor := NewExecutor(registry, &ExecutorConfig{Timeout: 10 * time.Millisecond})
	result := executor.Execute(context.Background(), &schema.Action{Tool: "slow"})

	if result.ErrorKind != schema.KindUnavailable {
		t.Fatalf("expected unavailable, got %s (%s)", result.ErrorKind, result.Message)
	}
	if !schema.KindUnavailable.Retryable() || schema.KindRemoteRejected.Retryable() {
		t.Fatalf("retryable classification wrong")
	}
}

func TestExecutorStats(t *testing.T) {
	registry := NewRegistry()
	ok := newStubTool("good", nil)
	bad := newStubTool("bad", nil)
	bad.execute = func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
		return nil, schema.NewRemoteError("upstream", 500, "boom")
	}
	for _, tool := range []Tool{ok, bad} {
		if err := registry.Register(tool); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	executor := NewExecutor(registry, nil)
	executor.Execute(context.Background(), &schema.Action{Tool: "good"})
	executor.Execute(context.Background(), &schema.Action{Tool: "good"})
	executor.Execute(context.Background(), &schema.Action{Tool: "bad"})

	stats := executor.Stats()
	if stats["good"].Succeeded != 2 || stats["good"].Total != 2 {
		t.Fatalf("unexpected good stats: %+v", stats["good"])
	}
	if stats["bad"].Failed != 1 {
		t.Fatalf("unexpected bad stats: %+v", stats["bad"])
	}
}
