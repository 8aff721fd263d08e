package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Turn struct {
	ID           int64
	Model        sql.NullString
	RequestJson  string
	ResponseJson string
	FinishReason string
	ToolCalls    int64
	CreatedAt    string
}

type InsertTurnParams struct {
	Model        sql.NullString
	RequestJson  string
	ResponseJson string
	FinishReason string
	ToolCalls    int64
}

const insertTurn = `
INSERT INTO turns (model, request_json, response_json, finish_reason, tool_calls)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) InsertTurn(ctx context.Context, arg InsertTurnParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertTurn,
		arg.Model,
		arg.RequestJson,
		arg.ResponseJson,
		arg.FinishReason,
		arg.ToolCalls,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listRecentTurns = `
SELECT id, model, request_json, response_json, finish_reason, tool_calls, created_at
FROM turns
ORDER BY id DESC
LIMIT ?`

func (q *Queries) ListRecentTurns(ctx context.Context, limit int64) ([]Turn, error) {
	rows, err := q.db.QueryContext(ctx, listRecentTurns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Turn
	for rows.Next() {
		var i Turn
		if err := rows.Scan(
			&i.ID,
			&i.Model,
			&i.RequestJson,
			&i.ResponseJson,
			&i.FinishReason,
			&i.ToolCalls,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTurns = `SELECT count(*) FROM turns`

func (q *Queries) CountTurns(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTurns)
	var n int64
	err := row.Scan(&n)
	return n, err
}
