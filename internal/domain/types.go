// Package domain defines the core types shared across the assistant gateway:
// assistants, conversation turns, citations, stream events, and the canonical
// error type.
package domain

import "time"

// Assistant identifies one of the gateway's conversational personas.
type Assistant string

const (
	// AssistantPersonal is the default persona every session starts with.
	AssistantPersonal Assistant = "personal"

	// AssistantHR answers HR and leave policy questions.
	AssistantHR Assistant = "hr"

	// AssistantIT answers IT security and compliance questions.
	AssistantIT Assistant = "it"
)

// ParseAssistant validates an assistant name from the wire.
func ParseAssistant(s string) (Assistant, bool) {
	switch Assistant(s) {
	case AssistantPersonal, AssistantHR, AssistantIT:
		return Assistant(s), true
	}
	return "", false
}

// Valid reports whether a is one of the known assistants.
func (a Assistant) Valid() bool {
	_, ok := ParseAssistant(string(a))
	return ok
}

// Sender identifies who authored a turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Citation points at a retrieved document passage that grounded an answer.
// Rank is 1-based and ordered by descending relevance.
type Citation struct {
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Rank    int    `json:"rank"`
	Preview string `json:"preview"`
}

// Passage is a scored retrieval result.
type Passage struct {
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Turn is a single message within one assistant's history.
type Turn struct {
	Sender    Sender     `json:"sender"`
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// RouteReason explains why a routing decision picked its target.
type RouteReason string

const (
	// RouteExplicitRequest means the user asked for the target by name.
	RouteExplicitRequest RouteReason = "explicit-request"

	// RouteDefaultPersona means no transfer was requested and the session's
	// active assistant handles the message.
	RouteDefaultPersona RouteReason = "default-persona"
)

// RouteDecision is the outcome of transfer matching for one user message.
type RouteDecision struct {
	Target   Assistant
	Transfer bool
	Reason   RouteReason
}

// EventType tags a frame on the streaming wire.
type EventType string

const (
	EventToken    EventType = "token"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// StreamEvent is one logical frame of a streamed reply. Token events carry a
// text fragment; the terminal complete event carries the reply metadata; the
// terminal error event carries a message.
type StreamEvent struct {
	Type               EventType
	Token              string
	Assistant          Assistant
	Citations          []Citation
	WorkflowPath       []string
	NeedsClarification bool
	ErrorMessage       string
}

// TokenEvent builds a token frame carrying one text fragment.
func TokenEvent(fragment string) StreamEvent {
	return StreamEvent{Type: EventToken, Token: fragment}
}

// CompleteEvent builds the terminal frame for a successful reply.
func CompleteEvent(res *TurnResult) StreamEvent {
	return StreamEvent{
		Type:               EventComplete,
		Assistant:          res.Assistant,
		Citations:          res.Citations,
		WorkflowPath:       res.WorkflowPath,
		NeedsClarification: res.NeedsClarification,
	}
}

// ErrorEvent builds the terminal frame for a failed reply.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, ErrorMessage: message}
}

// TurnResult is the outcome of one processed user message.
type TurnResult struct {
	Answer             string
	Assistant          Assistant
	Citations          []Citation
	NeedsClarification bool
	WorkflowPath       []string
}

// Message is one prompt history entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is the assembled input for the generation backend.
type Prompt struct {
	System   string
	History  []Message
	Question string
	Passages []Passage
}
