package prompt

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"fngate/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, time.July, 23, 10, 0, 0, 0, time.UTC) }

const wantDateBlock = "\nCutting Knowledge Date: December 2023\nToday Date: 23 July 2024\n\n"

func weatherTool() chat.ToolDefinition {
	return chat.ToolDefinition{
		Name:        "get_current_weather",
		Description: "Get the current weather in a given location",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"location":{"type":"string"}},"required":["location"]}`),
	}
}

func TestAssemble_SynthesizesSystemMessage(t *testing.T) {
	t.Parallel()
	a := NewAssembler(WithClock(fixedNow))
	in := []chat.Message{{Role: chat.RoleUser, Content: "hi"}}

	out, err := a.Assemble(in, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, chat.Message{Role: chat.RoleSystem, Content: wantDateBlock + "You are a helpful Assistant."}, out[0])
	assert.Equal(t, in[0], out[1])
}

func TestAssemble_PrefixesExistingSystemMessage(t *testing.T) {
	t.Parallel()
	a := NewAssembler(WithClock(fixedNow))
	in := []chat.Message{
		{Role: chat.RoleSystem, Content: "Be terse."},
		{Role: chat.RoleUser, Content: "What's the weather like in Kathmandu today?"},
	}

	out, err := a.Assemble(in, []chat.ToolDefinition{weatherTool()})
	require.NoError(t, err)
	require.Len(t, out, len(in))
	assert.True(t, strings.HasPrefix(out[0].Content, wantDateBlock))
	assert.True(t, strings.HasSuffix(out[0].Content, "Be terse."))
	assert.Contains(t, out[0].Content, "Use the function 'get_current_weather' to 'Get the current weather in a given location'\n")
	assert.Equal(t, in[1:], out[1:])
}

func TestAssemble_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	a := NewAssembler(WithClock(fixedNow))
	in := []chat.Message{
		{Role: chat.RoleSystem, Content: "original"},
		{Role: chat.RoleUser, Content: "hi"},
	}
	snapshot := append([]chat.Message(nil), in...)

	_, err := a.Assemble(in, []chat.ToolDefinition{weatherTool()})
	require.NoError(t, err)
	assert.Equal(t, snapshot, in)
}

func TestAssemble_EmptyMessages(t *testing.T) {
	t.Parallel()
	_, err := NewAssembler().Assemble(nil, nil)
	require.ErrorIs(t, err, ErrEmptyMessages)
}

func TestAssemble_LengthProperty(t *testing.T) {
	t.Parallel()
	a := NewAssembler(WithClock(fixedNow))
	tools := [][]chat.ToolDefinition{nil, {weatherTool()}}
	convs := [][]chat.Message{
		{{Role: chat.RoleUser, Content: "a"}},
		{{Role: chat.RoleUser, Content: "a"}, {Role: chat.RoleAssistant, Content: "b"}},
		{{Role: chat.RoleSystem, Content: "s"}},
		{{Role: chat.RoleSystem, Content: "s"}, {Role: chat.RoleUser, Content: "a"}, {Role: chat.RoleTool, Content: "{}"}},
	}
	for _, ts := range tools {
		for _, m := range convs {
			out, err := a.Assemble(m, ts)
			require.NoError(t, err)
			assert.Equal(t, chat.RoleSystem, out[0].Role)
			if m[0].Role == chat.RoleSystem {
				assert.Len(t, out, len(m))
				assert.Equal(t, m[1:], out[1:])
			} else {
				assert.Len(t, out, len(m)+1)
				assert.Equal(t, m, out[1:])
			}
		}
	}
}

func TestToolCatalog(t *testing.T) {
	t.Parallel()
	got, err := ToolCatalog([]chat.ToolDefinition{weatherTool()})
	require.NoError(t, err)

	want := "\nYou have access to the following functions:\n\n" +
		"Use the function 'get_current_weather' to 'Get the current weather in a given location'\n" +
		`{"type":"function","function":{"name":"get_current_weather","description":"Get the current weather in a given location","parameters":{"type":"object","properties":{"location":{"type":"string"}},"required":["location"]}}}` +
		"\n\n\n" + toolRules
	assert.Equal(t, want, got)
	assert.Contains(t, got, "<function=example_function_name>{\"example_name\": \"example_value\"}</function>")
}

func TestAssemble_Options(t *testing.T) {
	t.Parallel()
	a := NewAssembler(
		WithClock(fixedNow),
		WithKnowledgeCutoff("March 2025"),
		WithDefaultSystemPrompt("You are fngate."),
	)
	out, err := a.Assemble([]chat.Message{{Role: chat.RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "\nCutting Knowledge Date: March 2025\nToday Date: 23 July 2024\n\nYou are fngate.", out[0].Content)
}
