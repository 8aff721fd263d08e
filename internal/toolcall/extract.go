package toolcall

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"fngate/internal/chat"
)

// ErrMalformedArguments reports a tool call whose arguments can never parse.
var ErrMalformedArguments = errors.New("malformed tool call arguments")

// MalformedError carries the details of a rejected tool call.
type MalformedError struct {
	Name   string
	Text   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s (function %q)", ErrMalformedArguments, e.Reason, e.Name)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedArguments }

// Extractor turns scanned tool calls into chat.ToolCall values with fresh ids.
type Extractor struct {
	ids chat.IDGenerator
}

// NewExtractor returns an extractor that draws ids from ids, or from
// chat.RandomIDs when ids is nil.
func NewExtractor(ids chat.IDGenerator) *Extractor {
	if ids == nil {
		ids = chat.RandomIDs{}
	}
	return &Extractor{ids: ids}
}

// Extract scans the buffered text. It returns a single tool call once the
// call's argument object is complete, nothing while there is no call or the
// call is still arriving, and an error wrapping ErrMalformedArguments when the
// call cannot be parsed.
func (e *Extractor) Extract(buf *Buffer) ([]chat.ToolCall, error) {
	return e.FromMatch(Scan(buf.String()))
}

// FromMatch builds the tool call for an already scanned match.
func (e *Extractor) FromMatch(m Match) ([]chat.ToolCall, error) {
	switch m.Status {
	case Complete:
	case Malformed:
		return nil, &MalformedError{Name: m.Name, Text: m.Arguments, Reason: m.Reason}
	default:
		return nil, nil
	}

	var args bytes.Buffer
	if err := json.Compact(&args, []byte(m.Arguments)); err != nil {
		return nil, &MalformedError{Name: m.Name, Text: m.Arguments, Reason: err.Error()}
	}
	return []chat.ToolCall{chat.NewToolCall(e.ids.NextID(), m.Name, args.String())}, nil
}

// Finish is called once the stream has ended. A call that is still
// incomplete at that point will never close and is reported as malformed.
func (e *Extractor) Finish(buf *Buffer) ([]chat.ToolCall, error) {
	m := Scan(buf.String())
	if m.Status == Incomplete {
		m.Status = Malformed
		m.Reason = "stream ended before the call was complete"
		m.Arguments = buf.String()[m.Start:]
	}
	return e.FromMatch(m)
}
