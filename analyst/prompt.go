package analyst

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/schema"
	"github.com/wardenhq/warden/tools"
)

const personaPrompt = `You are Warden, an expert SOC (Security Operations Center) analyst with access to threat intelligence tools.

Your role is to analyze security threats and indicators of compromise, decide which tool (if any) to use, and provide clear, actionable security assessments.

When deciding what to do next, respond with a JSON object:
{
    "action": "use_tool" | "complete",
    "reasoning": "brief explanation",
    "tool_name": "name of the tool" (only if action is "use_tool"),
    "arguments": {"arg": "value"} (only if action is "use_tool")
}

If action is "complete", write your final assessment as plain text around the JSON object. You may reason in <think></think> tags before the JSON.`

// DegradedAdvisory is the advisory shape returned when the automated
// lookup could not be completed. The prefix is stable so callers can
// recognize degraded answers.
func DegradedAdvisory(reason string) string {
	return fmt.Sprintf("Unable to complete automated lookup: %s. Manual investigation of the reported indicators is recommended.", reason)
}

// systemTurn builds the system instructions enumerating every available
// tool and its parameter schema, in registration order.
func systemTurn(registry *tools.Registry) schema.Message {
	var b strings.Builder
	b.WriteString(personaPrompt)
	b.WriteString("\n\nAVAILABLE TOOLS:\n")

	for _, tool := range registry.List() {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name(), tool.Description())
		if spec := tool.Schema(); spec != nil {
			if encoded, err := json.Marshal(spec); err == nil {
				fmt.Fprintf(&b, "  parameters: %s\n", encoded)
			}
		}
	}

	return schema.Message{
		ID:        uuid.New().String(),
		Role:      schema.RoleSystem,
		Content:   b.String(),
		Timestamp: time.Now(),
	}
}

// correctiveTurn reports every validation failure back to the model as a
// tool-role turn so it gets one chance to fix its request.
func correctiveTurn(action *schema.Action, err error) schema.Message {
	content := fmt.Sprintf(
		"Your requested action could not be executed.\ntool: %s\nproblems: %s\nCorrect the request and respond with a new JSON decision object, or complete the analysis without this tool.",
		action.Tool, err.Error(),
	)
	msg := schema.Message{
		ID:        uuid.New().String(),
		Role:      schema.RoleTool,
		Content:   content,
		Timestamp: time.Now(),
	}
	msg.SetMetadata("validation_failure", true)
	return msg
}

// toolResultTurn folds a successful tool result into the conversation.
func toolResultTurn(result schema.ToolResult) schema.Message {
	encoded, err := json.Marshal(result)
	content := string(encoded)
	if err != nil {
		content = fmt.Sprintf(`{"tool":%q,"status":"error","message":"result not serializable"}`, result.Tool)
	}

	msg := schema.Message{
		ID:        uuid.New().String(),
		Role:      schema.RoleTool,
		Content:   "TOOL RESULT:\n" + content + "\nUse this data to produce the final assessment, or request another tool if the analysis is incomplete.",
		Timestamp: time.Now(),
	}
	msg.SetMetadata("tool", result.Tool)
	return msg
}
