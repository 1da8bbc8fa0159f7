package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. Messages are replaced whole, never edited in place.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CloneMessages returns a copy that callers may keep without aliasing the source.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
