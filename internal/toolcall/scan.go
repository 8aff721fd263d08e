// Package toolcall detects <function=name>{json}</function> tool calls in
// streamed model output.
package toolcall

import (
	"encoding/json"
	"strings"
)

const (
	OpenTag  = "<function="
	CloseTag = "</function>"
)

// Status is the outcome of scanning text for a tool call.
type Status int

const (
	// None means the text holds no OpenTag.
	None Status = iota
	// Incomplete means a call has started but its argument object is not closed yet.
	Incomplete
	// Complete means a call with a valid JSON argument object was found.
	Complete
	// Malformed means the call can no longer become valid, whatever follows.
	Malformed
)

func (s Status) String() string {
	switch s {
	case None:
		return "none"
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	case Malformed:
		return "malformed"
	}
	return "unknown"
}

// Match describes the first tool call found in a text.
type Match struct {
	Status    Status
	Name      string
	Arguments string
	// Start is the byte offset of OpenTag. End is the offset just past the
	// argument object, or past CloseTag when it directly follows. Both are
	// meaningful for Complete and Malformed only; Start is also set for Incomplete.
	Start int
	End   int
	// Reason explains a Malformed status.
	Reason string
}

// Scan looks for the first tool call in s. The function name is everything
// between OpenTag and the next '>' and must not contain '}'. A name can never
// contain '>', so the name is settled as soon as the first '>' streams in;
// "<function=a>b>{...}" is Malformed rather than a call to "a>b". The arguments
// are the JSON object starting right after '>', delimited by a balanced-brace
// scan that ignores braces inside JSON strings. The closing tag is optional.
func Scan(s string) Match {
	start := strings.Index(s, OpenTag)
	if start < 0 {
		return Match{Status: None, Start: -1, End: -1}
	}
	m := Match{Status: Incomplete, Start: start, End: -1}

	nameStart := start + len(OpenTag)
	gt := strings.IndexByte(s[nameStart:], '>')
	if gt < 0 {
		if strings.ContainsRune(s[nameStart:], '}') {
			return m.malformed(len(s), "function name contains '}'")
		}
		return m
	}
	name := s[nameStart : nameStart+gt]
	switch {
	case name == "":
		return m.malformed(nameStart+gt+1, "empty function name")
	case strings.ContainsRune(name, '}'):
		return m.malformed(nameStart+gt+1, "function name contains '}'")
	}
	m.Name = name

	open := nameStart + gt + 1
	if open == len(s) {
		return m
	}
	if s[open] != '{' {
		return m.malformed(open, "arguments must be a JSON object")
	}

	end, ok := objectEnd(s[open:])
	if !ok {
		return m
	}
	args := s[open : open+end]
	m.End = open + end
	if strings.HasPrefix(s[m.End:], CloseTag) {
		m.End += len(CloseTag)
	}
	if !json.Valid([]byte(args)) {
		m.Arguments = args
		m.Status = Malformed
		m.Reason = "arguments are not valid JSON"
		return m
	}
	m.Arguments = args
	m.Status = Complete
	return m
}

func (m Match) malformed(end int, reason string) Match {
	m.Status = Malformed
	m.End = end
	m.Reason = reason
	return m
}

// objectEnd returns the length of the brace-balanced prefix of s, which must
// start with '{'. ok is false when the object is not closed within s.
func objectEnd(s string) (n int, ok bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
