package schema

import (
	"time"
)

// Role defines conversation message roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message represents one turn in a dispatch cycle's conversation.
// A conversation is owned by a single request and discarded at its end.
type Message struct {
	ID        string                 `json:"id"`
	Role      Role                   `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Clone deep-copies the message.
func (m *Message) Clone() *Message {
	clone := &Message{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// SetMetadata sets metadata.
func (m *Message) SetMetadata(key string, value interface{}) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
}

// GetMetadata retrieves metadata.
func (m *Message) GetMetadata(key string) (interface{}, bool) {
	if m.Metadata == nil {
		return nil, false
	}
	value, exists := m.Metadata[key]
	return value, exists
}
