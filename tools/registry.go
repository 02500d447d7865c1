package tools

import (
	"sync"

	"github.com/wardenhq/warden/schema"
)

// Registry stores registered tools in registration order. It is populated
// once at process start and read-shared across concurrent requests.
type Registry struct {
	tools map[string]Tool
	order []string
	mutex sync.RWMutex
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Registering a name twice is an error.
func (r *Registry) Register(tool Tool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := tool.Name()
	if name == "" {
		return schema.NewToolError(name, "register", schema.ErrUnknownTool)
	}
	if _, exists := r.tools[name]; exists {
		return schema.NewToolError(name, "register", schema.ErrDuplicateTool)
	}

	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Lookup retrieves a tool by name.
func (r *Registry) Lookup(name string) (Tool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, schema.NewToolError(name, "lookup", schema.ErrUnknownTool)
	}
	return tool, nil
}

// Has reports whether a tool exists.
func (r *Registry) Has(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return append([]string(nil), r.order...)
}

// Count returns the number of tools.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.tools)
}
