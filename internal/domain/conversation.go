package domain

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatEntry is one line of a bot conversation.
type ChatEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

const DefaultSystemPrompt = "You are a helpful and friendly AI assistant. Keep your responses concise and conversational. **Don't use emoji**"
