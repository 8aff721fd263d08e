package completion

type EventType string

const (
	EventToken    EventType = "token"
	EventToolCall EventType = "tool_call"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// Event is pushed to the caller while a turn runs. Data is a string for
// EventToken and EventError, a chat.ToolCall for EventToolCall and a *Result
// for EventDone.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}
