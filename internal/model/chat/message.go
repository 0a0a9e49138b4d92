package chat

// Roles carried by transcript messages. The persisted layout keeps only
// user/assistant turns; system context lives outside the transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// User builds a user turn.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant turn.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// CloneTranscript returns an independent copy so callers cannot mutate the
// loop-owned transcript.
func CloneTranscript(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	copied := make([]Message, len(msgs))
	copy(copied, msgs)
	return copied
}
