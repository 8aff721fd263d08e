package history

import (
	"context"
	"testing"

	"fngate/internal/chat"
	"fngate/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Migrate())
	return NewStore(d)
}

func TestStore_SaveAndRecent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := Turn{
		Model:        "llama",
		Messages:     []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
		Response:     chat.Message{Role: chat.RoleAssistant, Content: "hello"},
		FinishReason: "stop",
	}
	second := Turn{
		Model:    "llama",
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "weather?"}},
		Response: chat.Message{
			Role:      chat.RoleAssistant,
			ToolCalls: []chat.ToolCall{chat.NewToolCall("call_abc123", "get_current_weather", `{"location":"Boston"}`)},
		},
		FinishReason: "tool_calls",
	}

	id1, err := s.SaveTurn(ctx, first)
	require.NoError(t, err)
	id2, err := s.SaveTurn(ctx, second)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	turns, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, id2, turns[0].ID)
	assert.Equal(t, second.Response, turns[0].Response)
	assert.Equal(t, first.Messages, turns[1].Messages)
	assert.Equal(t, "stop", turns[1].FinishReason)
	assert.False(t, turns[0].CreatedAt.IsZero())

	turns, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
