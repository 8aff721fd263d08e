package client

import (
	"context"
	"fmt"
	"sort"

	"github.com/openai/openai-go/v3"
)

// Tool is a function the client executes locally when the model calls it.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Execute(ctx context.Context, input string) (string, error)
}

type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns the registered tools sorted by name.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Params converts the registry into chat completion tool definitions.
func (r *Registry) Params() []openai.ChatCompletionToolUnionParam {
	var params []openai.ChatCompletionToolUnionParam
	for _, t := range r.All() {
		params = append(params, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String(t.Description()),
			Parameters:  openai.FunctionParameters(t.InputSchema()),
		}))
	}
	return params
}

// Execute runs the named tool. Failures are returned as text so the model
// can see them on the next round.
func (r *Registry) Execute(ctx context.Context, name, input string) string {
	t, ok := r.Get(name)
	if !ok {
		return "error: unknown tool"
	}
	out, err := runTraced(ctx, t, input)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return out
}
