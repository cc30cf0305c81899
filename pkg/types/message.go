package types

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	// RoleSystem is for instructions that frame the model's behavior.
	RoleSystem MessageRole = "system"

	// RoleUser is for content supplied by the application.
	RoleUser MessageRole = "user"

	// RoleAssistant is for content produced by the model.
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn in a model conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// ModelInfo describes the model behind a provider.
type ModelInfo struct {
	Provider          string                 `json:"provider"`
	Name              string                 `json:"name"`
	MaxTokens         int                    `json:"max_tokens"`
	SupportsStreaming bool                   `json:"supports_streaming"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}
