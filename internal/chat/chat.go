// Package chat holds the OpenAI-compatible chat types shared by the prompt
// assembler, the tool-call extractor and the HTTP surface.
package chat

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// NormalizeRole maps role aliases sent by Llama clients onto the canonical set.
func NormalizeRole(r Role) Role {
	switch Role(strings.ToLower(string(r))) {
	case "ipython", RoleTool:
		return RoleTool
	case RoleSystem:
		return RoleSystem
	case RoleAssistant:
		return RoleAssistant
	case RoleUser:
		return RoleUser
	}
	return r
}

const ToolTypeFunction = "function"

// ToolDefinition describes a function the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

type toolEnvelope struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// MarshalJSON encodes the definition in the OpenAI tool envelope.
func (t ToolDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(toolEnvelope{
		Type: ToolTypeFunction,
		Function: toolFunction{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		},
	})
}

func (t *ToolDefinition) UnmarshalJSON(data []byte) error {
	var env toolEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	t.Name = env.Function.Name
	t.Description = env.Function.Description
	t.Parameters = env.Function.Parameters
	return nil
}

// FunctionCall is the function half of a tool call. Arguments is serialized JSON.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// NewToolCall builds a function tool call with the given id.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{
		ID:       id,
		Type:     ToolTypeFunction,
		Function: FunctionCall{Name: name, Arguments: arguments},
	}
}

type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}
