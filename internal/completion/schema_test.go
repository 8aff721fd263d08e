package completion

import (
	"encoding/json"
	"testing"

	"fngate/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSchemas(t *testing.T) {
	t.Parallel()
	set, err := compileSchemas([]chat.ToolDefinition{
		weatherTool,
		{Name: "no_params"},
	})
	require.NoError(t, err)
	assert.Len(t, set, 2)

	_, err = compileSchemas([]chat.ToolDefinition{{Description: "nameless"}})
	require.ErrorIs(t, err, ErrInvalidToolSchema)

	_, err = compileSchemas([]chat.ToolDefinition{{Name: "x", Parameters: json.RawMessage(`{"type": "not-a-type"}`)}})
	require.ErrorIs(t, err, ErrInvalidToolSchema)
}

func TestSchemaSet_Check(t *testing.T) {
	t.Parallel()
	set, err := compileSchemas([]chat.ToolDefinition{weatherTool, {Name: "no_params"}})
	require.NoError(t, err)

	assert.Empty(t, set.check(chat.NewToolCall("id", "get_current_weather", `{"location": "Boston", "unit": "celsius"}`)))
	assert.NotEmpty(t, set.check(chat.NewToolCall("id", "get_current_weather", `{"unit": "kelvin"}`)))
	assert.Equal(t, []string{`unknown function "brave_search"`}, set.check(chat.NewToolCall("id", "brave_search", `{}`)))
	assert.Empty(t, set.check(chat.NewToolCall("id", "no_params", `{"anything": 1}`)))

	var empty schemaSet
	assert.Empty(t, empty.check(chat.NewToolCall("id", "whatever", `{}`)))
}
