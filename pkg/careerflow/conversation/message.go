// Package conversation defines the persisted shape of a career guidance
// conversation: the transcript, completion flags, intake fields and the
// scraped profile document.
package conversation

import "time"

// Role identifies who authored a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Kind classifies assistant messages so that routing and presentation can
// tell an analysis result apart from a refusal or a failure notice.
type Kind string

// Message kinds.
const (
	KindInput        Kind = "input"
	KindResult       Kind = "result"
	KindPrecondition Kind = "precondition"
	KindFailure      Kind = "failure"
	KindNoop         Kind = "noop"
)

// SpeakerUser is the speaker name attached to user messages.
const SpeakerUser = "User"

// Message is a single transcript entry. Messages are never modified after
// they have been appended to a State.
type Message struct {
	Speaker   string    `json:"speaker"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// UserMessage builds a message authored by the user.
func UserMessage(content string) Message {
	return Message{
		Speaker:   SpeakerUser,
		Role:      RoleUser,
		Kind:      KindInput,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// AssistantMessage builds an assistant message attributed to speaker.
func AssistantMessage(speaker string, kind Kind, content string) Message {
	return Message{
		Speaker:   speaker,
		Role:      RoleAssistant,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
