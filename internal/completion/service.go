// Package completion runs one chat completion turn: it assembles and renders
// the prompt, streams the backend's output and turns a
// <function=name>{json}</function> reply into an OpenAI tool call.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fngate/internal/chat"
	"fngate/internal/history"
	"fngate/internal/llm"
	"fngate/internal/prompt"
	"fngate/internal/toolcall"
	"fngate/internal/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"

	DefaultMaxTokens = 1024
)

// Request is an inbound chat completion request.
type Request struct {
	Model       string
	Messages    []chat.Message
	Tools       []chat.ToolDefinition
	Temperature *float64
	TopP        *float64
	MaxTokens   int
}

// Result is the outcome of a finished turn.
type Result struct {
	Model        string
	Message      chat.Message
	FinishReason string
}

type Option func(*Service)

func WithAssembler(a *prompt.Assembler) Option {
	return func(s *Service) { s.assembler = a }
}

// WithIDGenerator sets the source of tool call ids.
func WithIDGenerator(ids chat.IDGenerator) Option {
	return func(s *Service) { s.extractor = toolcall.NewExtractor(ids) }
}

// WithStore records every finished turn in the history store.
func WithStore(store *history.Store) Option {
	return func(s *Service) { s.store = store }
}

func WithDefaultMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithStopTokens replaces the stop sequences sent to the backend. They are
// also stripped from content.
func WithStopTokens(stop []string) Option {
	return func(s *Service) { s.stop = stop }
}

type Service struct {
	generator llm.Generator
	assembler *prompt.Assembler
	extractor *toolcall.Extractor
	store     *history.Store
	maxTokens int
	stop      []string
}

func NewService(generator llm.Generator, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		assembler: prompt.NewAssembler(),
		extractor: toolcall.NewExtractor(nil),
		maxTokens: DefaultMaxTokens,
		stop:      prompt.StopTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model is the backend model name reported in responses.
func (s *Service) Model() string { return s.generator.Model() }

// Complete runs one generation turn. Content is emitted as EventToken events
// only once it is certain not to be part of a tool call. The first complete
// tool call ends the turn. A malformed call is logged and left out of the
// content; the turn then carries on as plain text.
func (s *Service) Complete(ctx context.Context, req Request, emit func(Event)) (*Result, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	messages := normalize(req.Messages)
	if len(messages) == 0 {
		return nil, prompt.ErrEmptyMessages
	}
	schemas, err := compileSchemas(req.Tools)
	if err != nil {
		return nil, err
	}

	ctx, span := trace.Tracer().Start(ctx, "completion.turn",
		oteltrace.WithAttributes(
			attribute.String("gen_ai.request.model", s.model(req)),
			attribute.Int("completion.messages", len(messages)),
			attribute.Int("completion.tools", len(req.Tools)),
		),
	)
	defer span.End()

	assembled, err := s.assembler.Assemble(messages, req.Tools)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	rendered := prompt.Render(assembled)

	res, err := s.generate(ctx, rendered, s.params(req), schemas, emit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		emit(Event{Type: EventError, Data: err.Error()})
		return nil, err
	}
	res.Model = s.model(req)

	span.SetAttributes(
		attribute.String("completion.finish_reason", res.FinishReason),
		attribute.Int("completion.tool_calls", len(res.Message.ToolCalls)),
	)

	s.persist(ctx, messages, res)
	emit(Event{Type: EventDone, Data: res})
	return res, nil
}

func (s *Service) generate(ctx context.Context, rendered string, params llm.Params, schemas schemaSet, emit func(Event)) (*Result, error) {
	genCtx, genSpan := trace.Tracer().Start(ctx, "llm.generate",
		oteltrace.WithAttributes(
			attribute.Int("llm.prompt_length", len(rendered)),
			attribute.Int("llm.max_tokens", params.MaxTokens),
		),
	)
	defer genSpan.End()

	stream, err := s.generator.Generate(genCtx, rendered, params)
	if err != nil {
		genSpan.RecordError(err)
		genSpan.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("starting generation: %w", err)
	}
	defer stream.Close()

	t := &turn{
		extractor: s.extractor,
		schemas:   schemas,
		markers:   append([]string{toolcall.OpenTag}, s.stop...),
		stop:      s.stop,
		emit:      emit,
		buf:       toolcall.NewBuffer(),
	}

	fragments := 0
	for stream.Next() {
		fragments++
		t.buf.Append(stream.Current())
		if t.advance(false) {
			genSpan.SetAttributes(attribute.Int("llm.fragments", fragments))
			return t.result(FinishToolCalls), nil
		}
	}
	genSpan.SetAttributes(attribute.Int("llm.fragments", fragments))

	if err := stream.Err(); err != nil {
		genSpan.RecordError(err)
		genSpan.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("generating: %w", err)
	}

	if t.advance(true) {
		return t.result(FinishToolCalls), nil
	}
	return t.result(FinishStop), nil
}

// turn is the per-request state of the fragment loop. It is owned by the
// goroutine serving the request.
type turn struct {
	extractor *toolcall.Extractor
	schemas   schemaSet
	markers   []string
	stop      []string
	emit      func(Event)

	buf     *toolcall.Buffer
	flushed int
	content strings.Builder
	calls   []chat.ToolCall
	// closeDue is set after a malformed call whose CloseTag has not been
	// seen yet. A CloseTag arriving next belongs to that call.
	closeDue bool
}

// advance inspects the text that has not been emitted yet. It returns true
// once a tool call has been extracted. At end of stream (final) nothing is
// held back any more.
func (t *turn) advance(final bool) bool {
	for {
		if t.closeDue && !t.skipCloseTag(final) {
			return false
		}
		base := t.flushed
		pending := t.buf.String()[base:]
		m := toolcall.Scan(pending)

		switch m.Status {
		case toolcall.None:
			n := len(pending)
			if !final {
				n -= holdback(pending, t.markers)
			}
			t.flush(pending[:n])
			return false

		case toolcall.Incomplete:
			t.flush(pending[:m.Start])
			if !final {
				return false
			}
			_, err := t.extractor.Finish(toolcall.NewBuffer(pending[m.Start:]))
			slog.Warn("dropping unfinished tool call", "function", m.Name, "error", err)
			t.flushed = t.buf.Len()
			return false

		case toolcall.Complete:
			t.flush(pending[:m.Start])
			calls, err := t.extractor.FromMatch(m)
			if err != nil {
				slog.Warn("dropping malformed tool call", "function", m.Name, "error", err)
				t.dropCall(pending, base, m.End)
				continue
			}
			for _, tc := range calls {
				if problems := t.schemas.check(tc); len(problems) > 0 {
					slog.Warn("tool call does not match its declared parameters",
						"function", tc.Function.Name, "call_id", tc.ID, "problems", joinProblems(problems))
				}
				t.emit(Event{Type: EventToolCall, Data: tc})
			}
			t.calls = calls
			return true

		case toolcall.Malformed:
			t.flush(pending[:m.Start])
			_, err := t.extractor.FromMatch(m)
			slog.Warn("dropping malformed tool call", "function", m.Name, "error", err)
			t.dropCall(pending, base, m.End)
		}
	}
}

// dropCall consumes a rejected call spanning pending[:end]. If its CloseTag
// has not arrived yet, the next text is checked for it.
func (t *turn) dropCall(pending string, base, end int) {
	t.flushed = base + end
	t.closeDue = !strings.HasSuffix(pending[:end], toolcall.CloseTag)
}

// skipCloseTag consumes the CloseTag of a dropped call. It returns false
// while the pending text is still a prefix of CloseTag and more may come.
// Text that turns out not to be the tag is left for the normal scan.
func (t *turn) skipCloseTag(final bool) bool {
	pending := t.buf.String()[t.flushed:]
	switch {
	case strings.HasPrefix(pending, toolcall.CloseTag):
		t.flushed += len(toolcall.CloseTag)
	case strings.HasPrefix(toolcall.CloseTag, pending):
		if !final {
			return false
		}
		t.flushed += len(pending)
	}
	t.closeDue = false
	return true
}

// flush emits text as content and marks it consumed. Stop tokens are stripped.
func (t *turn) flush(text string) {
	t.flushed += len(text)
	text = stripTokens(text, t.stop)
	if text == "" {
		return
	}
	t.content.WriteString(text)
	t.emit(Event{Type: EventToken, Data: text})
}

func (t *turn) result(finish string) *Result {
	return &Result{
		Message: chat.Message{
			Role:      chat.RoleAssistant,
			Content:   t.content.String(),
			ToolCalls: t.calls,
		},
		FinishReason: finish,
	}
}

// holdback returns the length of the longest suffix of s that is a proper
// prefix of one of markers, i.e. text that may still grow into a marker.
func holdback(s string, markers []string) int {
	best := 0
	for _, m := range markers {
		for n := min(len(m)-1, len(s)); n > best; n-- {
			if strings.HasSuffix(s, m[:n]) {
				best = n
				break
			}
		}
	}
	return best
}

func stripTokens(s string, tokens []string) string {
	for _, tok := range tokens {
		if tok != "" {
			s = strings.ReplaceAll(s, tok, "")
		}
	}
	return s
}

func normalize(in []chat.Message) []chat.Message {
	if len(in) == 0 {
		return nil
	}
	out := make([]chat.Message, len(in))
	for i, m := range in {
		m.Role = chat.NormalizeRole(m.Role)
		out[i] = m
	}
	return out
}

func (s *Service) params(req Request) llm.Params {
	p := llm.Params{
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Stop:        s.stop,
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = s.maxTokens
	}
	return p
}

func (s *Service) model(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	return s.generator.Model()
}

func (s *Service) persist(ctx context.Context, messages []chat.Message, res *Result) {
	if s.store == nil {
		return
	}
	if _, err := s.store.SaveTurn(ctx, history.Turn{
		Model:        res.Model,
		Messages:     messages,
		Response:     res.Message,
		FinishReason: res.FinishReason,
	}); err != nil {
		slog.Warn("failed to save turn", "error", err)
	}
}
