// Package prompt turns a conversation and a tool catalog into the message
// sequence and rendered text handed to a Llama 3.1 style model.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fngate/internal/chat"
)

const (
	DefaultKnowledgeCutoff = "December 2023"
	DefaultSystemPrompt    = "You are a helpful Assistant."

	dateLayout = "02 January 2006"
)

// ErrEmptyMessages is returned when there is no conversation to assemble.
var ErrEmptyMessages = errors.New("messages must not be empty")

const toolRules = `Think very carefully before calling functions.
If you choose to call a function ONLY reply in the following format with no prefix or suffix:

<function=example_function_name>{"example_name": "example_value"}</function>

Reminder:
- If looking for real time information use relevant functions before falling back to brave_search
- Function calls MUST follow the specified format, start with <function= and end with </function>
- Required parameters MUST be specified
- Only call one function at a time
- Put the entire function call reply on one line

`

type Option func(*Assembler)

// WithClock sets the time source used for the "Today Date" line.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func WithKnowledgeCutoff(s string) Option {
	return func(a *Assembler) {
		if s != "" {
			a.cutoff = s
		}
	}
}

// WithDefaultSystemPrompt sets the text used when the conversation has no
// system message of its own.
func WithDefaultSystemPrompt(s string) Option {
	return func(a *Assembler) {
		if s != "" {
			a.defaultSystem = s
		}
	}
}

// Assembler builds the system preamble: a date block, the tool catalog and
// the tool usage rules, followed by the caller's own system content.
type Assembler struct {
	now           func() time.Time
	cutoff        string
	defaultSystem string
}

func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		now:           time.Now,
		cutoff:        DefaultKnowledgeCutoff,
		defaultSystem: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns a new message slice whose first element is a system
// message carrying the preamble. An existing leading system message keeps its
// position and gets the preamble prefixed; otherwise one is inserted at index
// 0. The input slice and its messages are left untouched.
func (a *Assembler) Assemble(messages []chat.Message, tools []chat.ToolDefinition) ([]chat.Message, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyMessages
	}

	var b strings.Builder
	b.WriteString(a.dateBlock())
	if len(tools) > 0 {
		catalog, err := ToolCatalog(tools)
		if err != nil {
			return nil, err
		}
		b.WriteString(catalog)
	}

	if chat.NormalizeRole(messages[0].Role) == chat.RoleSystem {
		out := make([]chat.Message, len(messages))
		copy(out, messages)
		first := out[0]
		first.Role = chat.RoleSystem
		first.Content = b.String() + first.Content
		out[0] = first
		return out, nil
	}

	b.WriteString(a.defaultSystem)
	out := make([]chat.Message, 0, len(messages)+1)
	out = append(out, chat.Message{Role: chat.RoleSystem, Content: b.String()})
	out = append(out, messages...)
	return out, nil
}

func (a *Assembler) dateBlock() string {
	return fmt.Sprintf("\nCutting Knowledge Date: %s\nToday Date: %s\n\n", a.cutoff, a.now().Format(dateLayout))
}

// ToolCatalog renders the tool section of the system preamble: one
// instruction line and the JSON definition per tool, then the usage rules.
func ToolCatalog(tools []chat.ToolDefinition) (string, error) {
	var params strings.Builder
	for _, t := range tools {
		def, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("encoding tool %q: %w", t.Name, err)
		}
		params.WriteString(Instruction(t))
		params.WriteString("\n")
		params.Write(def)
		params.WriteString("\n\n")
	}

	var b strings.Builder
	b.WriteString("\nYou have access to the following functions:\n\n")
	b.WriteString(params.String())
	b.WriteString("\n")
	b.WriteString(toolRules)
	return b.String(), nil
}

func Instruction(t chat.ToolDefinition) string {
	return fmt.Sprintf("Use the function '%s' to '%s'", t.Name, t.Description)
}
