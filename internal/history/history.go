// Package history records finished completion turns in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"fngate/internal/chat"
	"fngate/internal/db"
)

const createdAtLayout = "2006-01-02T15:04:05.000Z"

// Turn is one request/response pair.
type Turn struct {
	ID           int64
	Model        string
	Messages     []chat.Message
	Response     chat.Message
	FinishReason string
	CreatedAt    time.Time
}

type Store struct {
	q *db.Queries
}

func NewStore(database *db.DB) *Store {
	return &Store{q: db.New(database.Conn())}
}

// SaveTurn stores the turn and returns its id.
func (s *Store) SaveTurn(ctx context.Context, turn Turn) (int64, error) {
	req, err := json.Marshal(turn.Messages)
	if err != nil {
		return 0, fmt.Errorf("encoding request messages: %w", err)
	}
	resp, err := json.Marshal(turn.Response)
	if err != nil {
		return 0, fmt.Errorf("encoding response message: %w", err)
	}
	return s.q.InsertTurn(ctx, db.InsertTurnParams{
		Model:        sql.NullString{String: turn.Model, Valid: turn.Model != ""},
		RequestJson:  string(req),
		ResponseJson: string(resp),
		FinishReason: turn.FinishReason,
		ToolCalls:    int64(len(turn.Response.ToolCalls)),
	})
}

// Recent returns up to limit turns, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.q.ListRecentTurns(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	turns := make([]Turn, 0, len(rows))
	for _, row := range rows {
		t := Turn{
			ID:           row.ID,
			Model:        row.Model.String,
			FinishReason: row.FinishReason,
		}
		if err := json.Unmarshal([]byte(row.RequestJson), &t.Messages); err != nil {
			slog.Warn("skipping turn with invalid request JSON", "turn_id", row.ID, "error", err)
			continue
		}
		if err := json.Unmarshal([]byte(row.ResponseJson), &t.Response); err != nil {
			slog.Warn("skipping turn with invalid response JSON", "turn_id", row.ID, "error", err)
			continue
		}
		if ts, err := time.Parse(createdAtLayout, row.CreatedAt); err == nil {
			t.CreatedAt = ts
		}
		turns = append(turns, t)
	}
	return turns, nil
}
