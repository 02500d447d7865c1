// Package decision translates raw language-model output into a structured
// action or a direct answer. Extraction is two-stage: strict JSON payload
// scanning first, then a best-effort intent heuristic, with the result
// tagged so downstream stages can treat heuristic actions more cautiously.
package decision

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/wardenhq/warden/schema"
	"github.com/wardenhq/warden/tools"
)

const (
	actionUseTool  = "use_tool"
	actionComplete = "complete"
)

var (
	thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	ipRe    = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	repRe   = regexp.MustCompile(`(?i)\b(reputation|abuse|abusive|malicious|suspicious|blacklist|blocklist|threat|compromised|check|look\s?up)\b`)
	iocRe   = regexp.MustCompile(`(?i)\b(recent|latest|new|current|today'?s?|pull|fetch|list|show)\b[^.?!]*\b(iocs?|indicators?)\b`)
	daysRe  = regexp.MustCompile(`(?i)\b(?:past|last)\s+(\d{1,3})\s+days?\b`)
)

// Parser extracts decisions from model responses. It never executes
// anything and never returns an error: a response that yields no action
// is a direct answer.
type Parser struct {
	registry *tools.Registry
}

// NewParser creates a parser that recognizes the registry's tool names.
func NewParser(registry *tools.Registry) *Parser {
	return &Parser{registry: registry}
}

// decisionPayload is the structured protocol the model is instructed to
// emit. "parameters" is accepted as an alias of "arguments".
type decisionPayload struct {
	Action     string                 `json:"action"`
	Tool       string                 `json:"tool_name"`
	Arguments  map[string]interface{} `json:"arguments"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Clean strips reasoning blocks and surrounding whitespace from a raw
// model response.
func Clean(raw string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(raw, ""))
}

// Parse turns one raw model response into a Decision.
func (p *Parser) Parse(raw string) schema.Decision {
	cleaned := Clean(raw)

	for _, candidate := range jsonCandidates(cleaned) {
		var payload decisionPayload
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			continue
		}
		if payload.Action == "" {
			// Parses as a container but lacks the decision key: a failed
			// extraction attempt, keep scanning.
			continue
		}
		if payload.Action != actionUseTool {
			return schema.NoAction(answerWithout(cleaned, candidate))
		}
		if payload.Tool == "" {
			continue
		}

		params := payload.Arguments
		if params == nil {
			params = payload.Parameters
		}
		if params == nil {
			params = map[string]interface{}{}
		}

		action := &schema.Action{
			Tool:       payload.Tool,
			Params:     params,
			Confidence: schema.ConfidenceStructured,
		}
		p.coerceParams(action)
		return schema.Decision{Action: action}
	}

	if action := p.heuristicAction(cleaned); action != nil {
		return schema.Decision{Action: action}
	}

	return schema.NoAction(cleaned)
}

// coerceParams fixes unambiguous primitive-type mismatches against the
// tool's schema; ambiguous values get a MalformedParameterError attached
// for the validator to surface.
func (p *Parser) coerceParams(action *schema.Action) {
	tool, err := p.registry.Lookup(action.Tool)
	if err != nil || tool.Schema() == nil {
		return
	}

	for name, value := range action.Params {
		prop, ok := tool.Schema().Properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		expected, _ := prop["type"].(string)

		switch expected {
		case "string":
			if n, ok := value.(float64); ok {
				if n == float64(int64(n)) {
					action.Params[name] = strconv.FormatInt(int64(n), 10)
				} else {
					action.Params[name] = strconv.FormatFloat(n, 'f', -1, 64)
				}
			}
		case "integer":
			switch v := value.(type) {
			case string:
				if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
					action.Params[name] = float64(n)
				} else {
					action.Issues = append(action.Issues, &schema.MalformedParameterError{
						Param:  name,
						Reason: fmt.Sprintf("cannot interpret %q as an integer", v),
					})
				}
			case float64:
				if v != float64(int64(v)) {
					action.Issues = append(action.Issues, &schema.MalformedParameterError{
						Param:  name,
						Reason: fmt.Sprintf("expected a whole number, got %v", v),
					})
				}
			}
		}
	}
}

// heuristicAction recovers an intent from free text when no structured
// payload was found. It requires an indicator plus query vocabulary so a
// bare mention of a feed name does not trigger a lookup.
func (p *Parser) heuristicAction(text string) *schema.Action {
	if p.registry.Has(tools.ToolCheckIPReputation) {
		if ip := firstValidIP(text); ip != "" && repRe.MatchString(text) {
			return &schema.Action{
				Tool:       tools.ToolCheckIPReputation,
				Params:     map[string]interface{}{"ip": ip},
				Confidence: schema.ConfidenceHeuristic,
			}
		}
	}

	if p.registry.Has(tools.ToolQueryThreatFox) && iocRe.MatchString(text) {
		params := map[string]interface{}{}
		if m := daysRe.FindStringSubmatch(text); m != nil {
			if days, err := strconv.Atoi(m[1]); err == nil {
				params["days"] = float64(days)
			}
		}
		return &schema.Action{
			Tool:       tools.ToolQueryThreatFox,
			Params:     params,
			Confidence: schema.ConfidenceHeuristic,
		}
	}

	return nil
}

func firstValidIP(text string) string {
	for _, token := range ipRe.FindAllString(text, -1) {
		if _, err := netip.ParseAddr(token); err == nil {
			return token
		}
	}
	return ""
}

// jsonCandidates returns every balanced top-level {...} span in order of
// appearance. The scan is quote-aware so braces inside string values do
// not unbalance the count.
func jsonCandidates(text string) []string {
	var candidates []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidates = append(candidates, text[start:i+1])
				start = -1
			}
		}
	}
	return candidates
}

// answerWithout strips the decision payload from the answer text, falling
// back to the full text when nothing else remains.
func answerWithout(text, payload string) string {
	answer := strings.TrimSpace(strings.Replace(text, payload, "", 1))
	if answer == "" {
		return text
	}
	return answer
}
