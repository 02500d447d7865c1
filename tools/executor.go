package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wardenhq/warden/schema"
)

// ExecutorConfig configures tool execution.
type ExecutorConfig struct {
	Timeout time.Duration
}

// DefaultExecutorConfig provides sensible defaults.
var DefaultExecutorConfig = &ExecutorConfig{
	Timeout: 15 * time.Second,
}

// Executor dispatches a validated action to its tool and normalizes the
// outcome into a tool-agnostic result. It performs no retries; retry
// policy belongs to the dispatch loop.
type Executor struct {
	registry *Registry
	config   *ExecutorConfig

	mu    sync.Mutex
	stats map[string]*ExecutionStats
}

// ExecutionStats counts executions per tool.
type ExecutionStats struct {
	Total     int
	Succeeded int
	Failed    int
}

// NewExecutor constructs a tool executor.
func NewExecutor(registry *Registry, config *ExecutorConfig) *Executor {
	if config == nil {
		config = DefaultExecutorConfig
	}
	return &Executor{
		registry: registry,
		config:   config,
		stats:    make(map[string]*ExecutionStats),
	}
}

// Execute runs the action's tool once with a bounded timeout and maps the
// outcome: an explicit upstream rejection becomes remote_rejected,
// transport and timeout failures become unavailable.
func (e *Executor) Execute(ctx context.Context, action *schema.Action) schema.ToolResult {
	tool, err := e.registry.Lookup(action.Tool)
	if err != nil {
		// Validation should have caught this; treat as a terminal rejection.
		e.record(action.Tool, false)
		return schema.ErrorResult(action.Tool, schema.KindRemoteRejected, err.Error())
	}

	input, err := json.Marshal(action.Params)
	if err != nil {
		e.record(action.Tool, false)
		return schema.ErrorResult(action.Tool, schema.KindRemoteRejected, "parameters not serializable: "+err.Error())
	}

	execCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	data, err := tool.Execute(execCtx, input)
	if err != nil {
		e.record(action.Tool, false)
		return mapExecutionError(action.Tool, err)
	}

	e.record(action.Tool, true)
	return schema.OKResult(action.Tool, data)
}

// Stats returns a copy of the per-tool execution counters.
func (e *Executor) Stats() map[string]ExecutionStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]ExecutionStats, len(e.stats))
	for name, s := range e.stats {
		out[name] = *s
	}
	return out
}

func (e *Executor) record(tool string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.stats[tool]
	if s == nil {
		s = &ExecutionStats{}
		e.stats[tool] = s
	}
	s.Total++
	if ok {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

func mapExecutionError(tool string, err error) schema.ToolResult {
	var remote *schema.RemoteError
	if errors.As(err, &remote) {
		return schema.ErrorResult(tool, schema.KindRemoteRejected, remote.Error())
	}
	return schema.ErrorResult(tool, schema.KindUnavailable, err.Error())
}
