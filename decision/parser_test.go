package decision

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/wardenhq/warden/schema"
	"github.com/wardenhq/warden/tools"
)

type parserStubTool struct {
	*tools.BaseTool
}

func (t *parserStubTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func parserRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry()

	repTool := &parserStubTool{BaseTool: tools.NewBaseTool(tools.ToolCheckIPReputation, "check IP reputation",
		tools.CreateToolSchema("check IP reputation",
			map[string]interface{}{"ip": tools.IPProperty("address to check")},
			[]string{"ip"}))}
	foxTool := &parserStubTool{BaseTool: tools.NewBaseTool(tools.ToolQueryThreatFox, "query recent IOCs",
		tools.CreateToolSchema("query recent IOCs",
			map[string]interface{}{
				"days":  tools.IntegerProperty("lookback window"),
				"limit": tools.IntegerProperty("max entries"),
			}, nil))}

	if err := registry.Register(repTool); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(foxTool); err != nil {
		t.Fatalf("register: %v", err)
	}
	return registry
}

func TestParseStructuredDecision(t *testing.T) {
	p := NewParser(parserRegistry(t))

	raw := `<think>The user wants a reputation lookup, I should call the tool.</think>
Sure, I will look that up.
{"action": "use_tool", "reasoning": "reputation lookup", "tool_name": "check_ip_reputation", "arguments": {"ip": "185.220.101.34"}}`

	decision := p.Parse(raw)
	if !decision.IsAction() {
		t.Fatalf("expected an action, got answer %q", decision.Answer)
	}
	if decision.Action.Tool != tools.ToolCheckIPReputation {
		t.Fatalf("unexpected tool: %s", decision.Action.Tool)
	}
	if decision.Action.Confidence != schema.ConfidenceStructured {
		t.Fatalf("expected structured confidence, got %s", decision.Action.Confidence)
	}
	if decision.Action.Params["ip"] != "185.220.101.34" {
		t.Fatalf("unexpected params: %v", decision.Action.Params)
	}
}

func TestParseCompleteAction(t *testing.T) {
	p := NewParser(parserRegistry(t))

	raw := `{"action": "complete", "reasoning": "nothing to look up"}
The address is private and needs no external lookup.`

	decision := p.Parse(raw)
	if decision.IsAction() {
		t.Fatalf("expected a direct answer, got action for %s", decision.Action.Tool)
	}
	if decision.Answer != "The address is private and needs no external lookup." {
		t.Fatalf("payload not stripped from answer: %q", decision.Answer)
	}
}

func TestParseSkipsMalformedCandidates(t *testing.T) {
	p := NewParser(parserRegistry(t))

	// First span has no action key, second is the real decision.
	raw := `{"note": "these are {braces} in a string"}
{"action": "use_tool", "tool_name": "query_threatfox", "arguments": {"days": 7}}`

	decision := p.Parse(raw)
	if !decision.IsAction() {
		t.Fatalf("expected an action, got answer %q", decision.Answer)
	}
	if decision.Action.Tool != tools.ToolQueryThreatFox {
		t.Fatalf("unexpected tool: %s", decision.Action.Tool)
	}
}

func TestParseParametersAlias(t *testing.T) {
	p := NewParser(parserRegistry(t))

	raw := `{"action": "use_tool", "tool_name": "check_ip_reputation", "parameters": {"ip": "1.2.3.4"}}`
	decision := p.Parse(raw)
	if !decision.IsAction() {
		t.Fatalf("expected an action")
	}
	if decision.Action.Params["ip"] != "1.2.3.4" {
		t.Fatalf("parameters alias not honored: %v", decision.Action.Params)
	}
}

func TestParseCoercesNumericString(t *testing.T) {
	p := NewParser(parserRegistry(t))

	raw := `{"action": "use_tool", "tool_name": "query_threatfox", "arguments": {"days": "7"}}`
	decision := p.Parse(raw)
	if !decision.IsAction() {
		t.Fatalf("expected an action")
	}
	if got, ok := decision.Action.Params["days"].(float64); !ok || got != 7 {
		t.Fatalf("expected days coerced to 7, got %v", decision.Action.Params["days"])
	}
	if len(decision.Action.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", decision.Action.Issues)
	}
}

func TestParseAttachesMalformedParameter(t *testing.T) {
	p := NewParser(parserRegistry(t))

	raw := `{"action": "use_tool", "tool_name": "query_threatfox", "arguments": {"days": "a week"}}`
	decision := p.Parse(raw)
	if !decision.IsAction() {
		t.Fatalf("expected an action")
	}
	if len(decision.Action.Issues) != 1 {
		t.Fatalf("expected one malformed-parameter issue, got %v", decision.Action.Issues)
	}
}

func TestHeuristicIPLookup(t *testing.T) {
	p := NewParser(parserRegistry(t))

	decision := p.Parse("I should check whether 45.155.205.233 is a known malicious host before answering.")
	if !decision.IsAction() {
		t.Fatalf("expected a heuristic action, got answer %q", decision.Answer)
	}
	if decision.Action.Tool != tools.ToolCheckIPReputation {
		t.Fatalf("unexpected tool: %s", decision.Action.Tool)
	}
	if decision.Action.Confidence != schema.ConfidenceHeuristic {
		t.Fatalf("expected heuristic confidence, got %s", decision.Action.Confidence)
	}
	if decision.Action.Params["ip"] != "45.155.205.233" {
		t.Fatalf("unexpected params: %v", decision.Action.Params)
	}
}

func TestHeuristicRecentIOCs(t *testing.T) {
	p := NewParser(parserRegistry(t))

	decision := p.Parse("Let me pull the latest IOCs from the past 3 days to compare.")
	if !decision.IsAction() {
		t.Fatalf("expected a heuristic action, got answer %q", decision.Answer)
	}
	if decision.Action.Tool != tools.ToolQueryThreatFox {
		t.Fatalf("unexpected tool: %s", decision.Action.Tool)
	}
	if got, ok := decision.Action.Params["days"].(float64); !ok || got != 3 {
		t.Fatalf("expected days 3, got %v", decision.Action.Params["days"])
	}
}

func TestBareFeedMentionIsAnswer(t *testing.T) {
	p := NewParser(parserRegistry(t))

	decision := p.Parse("ThreatFox is a community feed of indicators of compromise run by abuse.ch.")
	if decision.IsAction() {
		t.Fatalf("feed description must not trigger a lookup, got action for %s", decision.Action.Tool)
	}
}

func TestIPWithoutQueryVocabularyIsAnswer(t *testing.T) {
	p := NewParser(parserRegistry(t))

	decision := p.Parse("The server at 10.0.0.1 hosts the internal wiki.")
	if decision.IsAction() {
		t.Fatalf("bare IP mention must not trigger a lookup, got action for %s", decision.Action.Tool)
	}
}

func TestCleanStripsThinkBlocks(t *testing.T) {
	raw := "<think>step one\nstep two</think>  final verdict  "
	if got := Clean(raw); got != "final verdict" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}
