package tools

import (
	"context"
	"encoding/json"
)

// Tool defines a named external capability the model can request.
type Tool interface {
	Name() string
	Description() string
	Schema() *ToolSchema
	Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

// ToolSchema describes a tool's parameters as a JSON schema object.
type ToolSchema struct {
	Type        string                 `json:"type"`
	Properties  map[string]interface{} `json:"properties"`
	Required    []string               `json:"required,omitempty"`
	Description string                 `json:"description,omitempty"`
}

// BaseTool provides shared tool metadata handling.
type BaseTool struct {
	name        string
	description string
	schema      *ToolSchema
}

// NewBaseTool creates a base tool.
func NewBaseTool(name, description string, schema *ToolSchema) *BaseTool {
	return &BaseTool{
		name:        name,
		description: description,
		schema:      schema,
	}
}

func (t *BaseTool) Name() string {
	return t.name
}

func (t *BaseTool) Description() string {
	return t.description
}

func (t *BaseTool) Schema() *ToolSchema {
	return t.schema
}

// CreateToolSchema builds an object schema.
func CreateToolSchema(description string, properties map[string]interface{}, required []string) *ToolSchema {
	return &ToolSchema{
		Type:        "object",
		Description: description,
		Properties:  properties,
		Required:    required,
	}
}

// StringProperty defines a string property.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// IPProperty defines a string property that must hold an IP literal.
// The validator syntax-checks parameters carrying the "ip" format.
func IPProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"format":      "ip",
		"description": description,
	}
}

// IntegerProperty defines an integer property.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// NumberProperty defines a numeric property.
func NumberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// BooleanProperty defines a boolean property.
func BooleanProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
	}
}
