package chat

import "time"

// Sender identifies who authored a turn in the conversation log.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one turn of the conversation log. Text grows in place while the
// assistant reply streams in and is fixed once Pending is cleared.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Pending   bool      `json:"pending,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Role is the provider-facing role of a history turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is a role-tagged history entry handed to the completion provider.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// TurnOf maps a logged message to its provider role.
func TurnOf(msg Message) Turn {
	role := RoleUser
	if msg.Sender == SenderAssistant {
		role = RoleModel
	}
	return Turn{Role: role, Text: msg.Text}
}
