package prompt

import (
	"strings"

	"fngate/internal/chat"
)

// Llama 3.1 special tokens.
const (
	BeginOfText = "<|begin_of_text|>"
	StartHeader = "<|start_header_id|>"
	EndHeader   = "<|end_header_id|>"
	EndOfTurn   = "<|eot_id|>"
	EndOfMsg    = "<|eom_id|>"
	EndOfText   = "<|end_of_text|>"
)

// StopTokens are the sequences that end an assistant turn.
var StopTokens = []string{EndOfTurn, EndOfMsg, EndOfText}

// Render formats messages with the Llama 3.1 chat template and appends the
// assistant header so the model continues as the assistant. Tool results
// are rendered under the ipython role, which is what Llama 3.1 was trained on.
func Render(messages []chat.Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i == 0 {
			b.WriteString(BeginOfText)
		}
		writeHeader(&b, templateRole(m.Role))
		if chat.NormalizeRole(m.Role) == chat.RoleAssistant && len(m.ToolCalls) > 0 {
			for _, tc := range m.ToolCalls {
				b.WriteString("{'id': ")
				b.WriteString(pyRepr(tc.ID))
				b.WriteString(", 'name': ")
				b.WriteString(pyRepr(tc.Function.Name))
				b.WriteString(", 'arguments': ")
				b.WriteString(pyRepr(tc.Function.Arguments))
				b.WriteString("}")
			}
		} else {
			b.WriteString(m.Content)
		}
		b.WriteString(EndOfTurn)
		b.WriteString("\n")
	}
	writeHeader(&b, string(chat.RoleAssistant))
	return b.String()
}

func writeHeader(b *strings.Builder, role string) {
	b.WriteString(StartHeader)
	b.WriteString(role)
	b.WriteString(EndHeader)
	b.WriteString("\n\n")
}

func templateRole(r chat.Role) string {
	if chat.NormalizeRole(r) == chat.RoleTool {
		return "ipython"
	}
	return string(chat.NormalizeRole(r))
}

// pyRepr quotes s the way the model saw string literals in its training
// template: single quotes unless the text contains a single quote and no
// double quote.
func pyRepr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case quote:
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
