package llm

import (
	"context"
	"sync"
)

// StaticGenerator replays canned replies. The n-th call to Generate streams
// Replies[n]; once they run out the last reply repeats.
type StaticGenerator struct {
	Replies [][]string
	Name    string

	mu      sync.Mutex
	prompts []string
	params  []Params
}

func NewStatic(fragments ...string) *StaticGenerator {
	return NewScripted(fragments)
}

// NewScripted returns a generator that answers successive prompts with
// successive replies.
func NewScripted(replies ...[]string) *StaticGenerator {
	return &StaticGenerator{Replies: replies, Name: "static"}
}

func (g *StaticGenerator) Model() string { return g.Name }

func (g *StaticGenerator) Generate(ctx context.Context, prompt string, params Params) (Stream, error) {
	g.mu.Lock()
	var fragments []string
	if n := len(g.Replies); n > 0 {
		fragments = g.Replies[min(len(g.prompts), n-1)]
	}
	g.prompts = append(g.prompts, prompt)
	g.params = append(g.params, params)
	g.mu.Unlock()
	return &sliceStream{ctx: ctx, fragments: fragments, pos: -1}, nil
}

// Prompts returns every prompt passed to Generate so far.
func (g *StaticGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// LastParams returns the parameters of the most recent Generate call.
func (g *StaticGenerator) LastParams() Params {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.params) == 0 {
		return Params{}
	}
	return g.params[len(g.params)-1]
}

type sliceStream struct {
	ctx       context.Context
	fragments []string
	pos       int
	err       error
	closed    bool
}

func (s *sliceStream) Next() bool {
	if s.err != nil || s.closed {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	s.pos++
	return s.pos < len(s.fragments)
}

func (s *sliceStream) Current() string {
	if s.pos < 0 || s.pos >= len(s.fragments) {
		return ""
	}
	return s.fragments[s.pos]
}

func (s *sliceStream) Err() error {
	if s.err != nil {
		return s.err
	}
	if s.closed && s.pos < len(s.fragments)-1 {
		return ErrStreamClosed
	}
	return nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}
