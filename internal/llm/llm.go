// Package llm defines the text-generation backend used to produce
// completions for a rendered prompt.
package llm

import (
	"context"
	"errors"
)

// ErrStreamClosed is returned by Stream.Err after Close was called while
// fragments were still pending.
var ErrStreamClosed = errors.New("stream closed")

// Params are the sampling parameters of one generation.
type Params struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   int
	Stop        []string
}

// Stream is a lazy, finite, non-restartable sequence of text fragments.
// Next advances to the next fragment and returns false at end of sequence or
// on error; Err reports which.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (Stream, error)
	Model() string
}
