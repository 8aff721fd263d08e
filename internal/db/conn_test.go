package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMigrateInsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fngate.db")
	d, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	v, err := d.Version()
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, d.Migrate())
	require.NoError(t, d.Migrate(), "migrations are idempotent")
	v, err = d.Version()
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)

	q := New(d.Conn())
	ctx := context.Background()
	id, err := q.InsertTurn(ctx, InsertTurnParams{
		Model:        sql.NullString{String: "llama", Valid: true},
		RequestJson:  `[]`,
		ResponseJson: `{}`,
		FinishReason: "stop",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	n, err := q.CountTurns(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	turns, err := q.ListRecentTurns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "llama", turns[0].Model.String)
	assert.NotEmpty(t, turns[0].CreatedAt)
}

func TestOpen_Memory(t *testing.T) {
	d, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Migrate())

	n, err := New(d.Conn()).CountTurns(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
