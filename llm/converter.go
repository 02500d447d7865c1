package llm

import (
	"github.com/voocel/litellm"
)

// convertMessages converts our message format to litellm format.
func convertMessages(messages []Message) []litellm.Message {
	result := make([]litellm.Message, len(messages))
	for i, msg := range messages {
		result[i] = litellm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}
