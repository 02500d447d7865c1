package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/wardenhq/warden/intel"
)

// ToolCheckIPReputation and ToolQueryThreatFox are the registered intel
// tool names referenced by the decision parser's heuristics.
const (
	ToolCheckIPReputation = "check_ip_reputation"
	ToolQueryThreatFox    = "query_threatfox"
)

// IPReputationTool wraps the AbuseIPDB collaborator.
type IPReputationTool struct {
	*BaseTool
	client *intel.AbuseIPDBClient
}

type ipReputationArgs struct {
	IP string `mapstructure:"ip"`
}

// NewIPReputationTool creates the check_ip_reputation tool.
func NewIPReputationTool(client *intel.AbuseIPDBClient) *IPReputationTool {
	schema := CreateToolSchema(
		"Checks reputation and abuse data for a given IP address using the AbuseIPDB API.",
		map[string]interface{}{
			"ip": IPProperty("The IP address to check for abuse reports."),
		},
		[]string{"ip"},
	)
	return &IPReputationTool{
		BaseTool: NewBaseTool(ToolCheckIPReputation, "Checks reputation and abuse data for an IP address.", schema),
		client:   client,
	}
}

// Execute performs the reputation lookup.
func (t *IPReputationTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args ipReputationArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}

	rep, err := t.client.Check(ctx, args.IP)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rep)
}

// ThreatFoxTool wraps the ThreatFox collaborator.
type ThreatFoxTool struct {
	*BaseTool
	client *intel.ThreatFoxClient
}

type threatFoxArgs struct {
	Days  int `mapstructure:"days"`
	Limit int `mapstructure:"limit"`
}

// NewThreatFoxTool creates the query_threatfox tool.
func NewThreatFoxTool(client *intel.ThreatFoxClient) *ThreatFoxTool {
	schema := CreateToolSchema(
		"Fetches IP-based threat intelligence indicators from ThreatFox within the past specified number of days.",
		map[string]interface{}{
			"days":  IntegerProperty("Number of days back to query threat intelligence (default is 1)."),
			"limit": IntegerProperty("Maximum number of indicators to return (default is 10)."),
		},
		nil,
	)
	return &ThreatFoxTool{
		BaseTool: NewBaseTool(ToolQueryThreatFox, "Fetches recent IP-based threat indicators from ThreatFox.", schema),
		client:   client,
	}
}

// Execute fetches the recent indicator feed.
func (t *ThreatFoxTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args threatFoxArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}

	iocs, err := t.client.RecentIOCs(ctx, args.Days, args.Limit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{
		"total": len(iocs),
		"iocs":  iocs,
	})
}

// decodeArgs decodes weakly typed JSON parameters into a typed args
// struct, tolerating numeric strings where integers are expected.
func decodeArgs(input json.RawMessage, out interface{}) error {
	var raw map[string]interface{}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &raw); err != nil {
			return fmt.Errorf("decode parameters: %w", err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}
