package llm

// Roles of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Greeting opens every new conversation.
const Greeting = "Hello! Welcome to ZeroDeadline."

// Apology replaces an answer the model could not produce.
const Apology = "Sorry, I couldn't get an answer from the AI right now. Please try again in a moment."

// Message is one turn of a chat.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Conversation is a chat transcript owned by the caller.
type Conversation []Message

// NewConversation starts a transcript with the greeting.
func NewConversation() Conversation {
	return Conversation{{Role: RoleAssistant, Text: Greeting}}
}

// With returns a copy of c with m appended.
func (c Conversation) With(m Message) Conversation {
	out := make(Conversation, len(c), len(c)+1)
	copy(out, c)
	return append(out, m)
}

// Asked returns a copy of c with question appended as a user turn. An empty
// transcript starts with the greeting.
func (c Conversation) Asked(question string) Conversation {
	if len(c) == 0 {
		c = NewConversation()
	}
	return c.With(Message{Role: RoleUser, Text: question})
}

// Unanswered returns a copy of c with question and Apology appended.
func (c Conversation) Unanswered(question string) Conversation {
	return c.Asked(question).With(Message{Role: RoleAssistant, Text: Apology})
}
