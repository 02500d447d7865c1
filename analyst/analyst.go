// Package analyst drives one request through the decision-dispatch loop:
// prompt the model, parse its decision, validate and execute at most one
// tool per round trip, and fold the result back until the model produces
// a final advisory or a bound is hit.
package analyst

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/decision"
	"github.com/wardenhq/warden/llm"
	"github.com/wardenhq/warden/schema"
	"github.com/wardenhq/warden/tools"
)

// State names the dispatch loop's position within one request.
type State string

const (
	StateAwaitingDecision State = "awaiting_decision"
	StateActionPending    State = "action_pending"
	StateExecuting        State = "executing"
	StateAnswering        State = "answering"
	StateDone             State = "done"
)

// Config bounds the dispatch loop.
type Config struct {
	// MaxTurns caps model round trips per request.
	MaxTurns int

	// MaxCorrections caps validation-failure feedback turns before the
	// loop gives up with a degraded advisory.
	MaxCorrections int

	// UnavailableRetries caps re-executions after an unavailable tool
	// result. Remote rejections are never retried.
	UnavailableRetries int
}

// DefaultConfig provides the deliberate bounds: one tool call plus one
// synthesis turn in the common case, two corrective turns at most.
var DefaultConfig = Config{
	MaxTurns:           4,
	MaxCorrections:     2,
	UnavailableRetries: 1,
}

// Analyst orchestrates one request at a time. Safe for concurrent use:
// all per-request state lives in the Analyze call frame.
type Analyst struct {
	provider  llm.Provider
	registry  *tools.Registry
	parser    *decision.Parser
	validator *tools.Validator
	executor  *tools.Executor
	config    Config
	logger    *slog.Logger
}

// New wires an analyst from its collaborators.
func New(provider llm.Provider, registry *tools.Registry, executor *tools.Executor, config Config, logger *slog.Logger) *Analyst {
	if config.MaxTurns <= 0 {
		config.MaxTurns = DefaultConfig.MaxTurns
	}
	if config.MaxCorrections <= 0 {
		config.MaxCorrections = DefaultConfig.MaxCorrections
	}
	if config.UnavailableRetries < 0 {
		config.UnavailableRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyst{
		provider:  provider,
		registry:  registry,
		parser:    decision.NewParser(registry),
		validator: tools.NewValidator(registry),
		executor:  executor,
		config:    config,
		logger:    logger,
	}
}

// Report is the outcome of one analyzed request.
type Report struct {
	RequestID string
	Advisory  string
	Degraded  bool
	Turns     int
	Actions   []schema.Action
	Results   []schema.ToolResult
}

// Analyze runs the dispatch loop for one free-text query. Validation and
// execution failures degrade the advisory instead of aborting; only an
// unusable analyst (nil provider or registry) returns an error.
func (a *Analyst) Analyze(ctx context.Context, query string) (*Report, error) {
	if a.provider == nil {
		return nil, schema.NewToolError("", "analyze", schema.ErrModelUnreachable)
	}
	if a.registry == nil || a.executor == nil {
		return nil, &schema.ToolError{Op: "analyze", Err: schema.ErrUnknownTool}
	}

	report := &Report{RequestID: uuid.New().String()}
	logger := a.logger.With(slog.String("request_id", report.RequestID))

	conversation := []schema.Message{
		systemTurn(a.registry),
		userTurn(query),
	}

	state := StateAwaitingDecision
	corrections := 0
	executedOK := map[string]bool{}

	for turn := 1; turn <= a.config.MaxTurns; turn++ {
		report.Turns = turn
		logger.Debug("requesting decision", slog.Int("turn", turn), slog.String("state", string(state)))

		resp, err := a.provider.Chat(ctx, toChatRequest(conversation))
		if err != nil {
			logger.Error("model call failed", slog.Any("error", err))
			return a.degrade(report, "the analysis model could not be reached"), nil
		}
		raw := resp.Text()
		conversation = append(conversation, assistantTurn(raw))

		d := a.parser.Parse(raw)
		if !d.IsAction() {
			report.Advisory = d.Answer
			logger.Info("analysis complete",
				slog.Int("turns", turn),
				slog.String("state", string(StateDone)))
			return report, nil
		}

		action := d.Action
		// A heuristic re-detection of a tool that already returned data
		// this cycle is the synthesis text mentioning its own findings,
		// not a new request. Actions run at most once per cycle.
		if action.Confidence == schema.ConfidenceHeuristic && executedOK[action.Tool] {
			report.Advisory = decision.Clean(raw)
			logger.Info("analysis complete",
				slog.Int("turns", turn),
				slog.String("state", string(StateAnswering)))
			return report, nil
		}

		state = StateActionPending
		report.Actions = append(report.Actions, *action)

		if err := a.validator.Validate(action); err != nil {
			corrections++
			logger.Warn("action rejected",
				slog.String("tool", action.Tool),
				slog.Int("corrections", corrections),
				slog.Any("error", err))
			if corrections >= a.config.MaxCorrections {
				return a.degrade(report, "the model kept requesting invalid lookups"), nil
			}
			conversation = append(conversation, correctiveTurn(action, err))
			state = StateAwaitingDecision
			continue
		}

		state = StateExecuting
		result := a.executeBounded(ctx, action, logger)
		report.Results = append(report.Results, result)

		if !result.OK() {
			return a.degrade(report, "the "+action.Tool+" lookup failed: "+result.Message), nil
		}

		executedOK[action.Tool] = true
		conversation = append(conversation, toolResultTurn(result))
		state = StateAwaitingDecision
	}

	return a.degrade(report, "the analysis exceeded its round-trip budget"), nil
}

// executeBounded runs the action once, re-executing only for unavailable
// results and only up to the configured bound. A remote rejection is
// terminal for the cycle.
func (a *Analyst) executeBounded(ctx context.Context, action *schema.Action, logger *slog.Logger) schema.ToolResult {
	result := a.executor.Execute(ctx, action)
	for attempt := 0; attempt < a.config.UnavailableRetries && !result.OK() && result.ErrorKind.Retryable(); attempt++ {
		logger.Warn("tool unavailable, retrying",
			slog.String("tool", action.Tool),
			slog.Int("attempt", attempt+1))
		result = a.executor.Execute(ctx, action)
	}

	if result.OK() {
		logger.Info("tool executed", slog.String("tool", action.Tool))
	} else {
		logger.Error("tool failed",
			slog.String("tool", action.Tool),
			slog.String("error_kind", string(result.ErrorKind)),
			slog.String("message", result.Message))
	}
	return result
}

func (a *Analyst) degrade(report *Report, reason string) *Report {
	report.Degraded = true
	report.Advisory = DegradedAdvisory(reason)
	return report
}

func toChatRequest(conversation []schema.Message) llm.ChatRequest {
	messages := make([]llm.Message, len(conversation))
	for i, m := range conversation {
		messages[i] = llm.Message{Role: string(m.Role), Content: m.Content}
	}
	return llm.ChatRequest{Messages: messages}
}

func userTurn(content string) schema.Message {
	return schema.Message{
		ID:        uuid.New().String(),
		Role:      schema.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func assistantTurn(content string) schema.Message {
	return schema.Message{
		ID:        uuid.New().String(),
		Role:      schema.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}
