package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fngate/internal/chat"
	"fngate/internal/completion"
	"fngate/internal/prompt"

	"github.com/google/uuid"
)

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "messages must not be empty")
		return
	}

	id := "chatcmpl-" + uuid.NewString()
	slog.Debug("chat completion request", "id", id, "model", req.Model, "stream", req.Stream,
		"messages", len(req.Messages), "tools", len(req.Tools))

	if req.Stream {
		s.streamCompletion(w, r, id, req)
		return
	}

	res, err := s.completer.Complete(r.Context(), req.toCompletion(), nil)
	if err != nil {
		s.writeCompletionError(w, r, id, err)
		return
	}

	writeJSON(w, http.StatusOK, chatCompletion{
		ID:      id,
		Object:  "chat.completion",
		Created: s.now().Unix(),
		Model:   res.Model,
		Choices: []choice{{
			Index:        0,
			Message:      res.Message,
			FinishReason: res.FinishReason,
		}},
	})
}

// streamCompletion relays completion events as chat.completion.chunk
// events. Headers are only written with the first event, so a request that
// fails validation still gets a plain JSON error.
func (s *Server) streamCompletion(w http.ResponseWriter, r *http.Request, id string, req chatCompletionRequest) {
	var sse *SSEWriter
	created := s.now().Unix()
	model := req.Model
	if model == "" {
		model = s.completer.Model()
	}

	chunk := func(d delta, finish *string) chatCompletionChunk {
		return chatCompletionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Choices: []chunkChoice{{Index: 0, Delta: d, FinishReason: finish}},
		}
	}
	send := func(d delta, finish *string) {
		if sse == nil {
			sse = NewSSEWriter(w)
			if err := sse.Send(chunk(delta{Role: chat.RoleAssistant}, nil)); err != nil {
				slog.Debug("sse write failed", "id", id, "error", err)
			}
		}
		if err := sse.Send(chunk(d, finish)); err != nil {
			slog.Debug("sse write failed", "id", id, "error", err)
		}
	}

	toolIndex := 0
	_, err := s.completer.Complete(r.Context(), req.toCompletion(), func(ev completion.Event) {
		switch ev.Type {
		case completion.EventToken:
			text, _ := ev.Data.(string)
			send(delta{Content: &text}, nil)
		case completion.EventToolCall:
			tc, _ := ev.Data.(chat.ToolCall)
			send(delta{ToolCalls: []toolCallDelta{{Index: toolIndex, ToolCall: tc}}}, nil)
			toolIndex++
		case completion.EventDone:
			res, _ := ev.Data.(*completion.Result)
			finish := completion.FinishStop
			if res != nil {
				finish = res.FinishReason
			}
			send(delta{}, &finish)
		}
	})

	if err != nil {
		if sse == nil {
			s.writeCompletionError(w, r, id, err)
			return
		}
		slog.Warn("stream aborted", "id", id, "error", err)
		if sendErr := sse.Send(errorResponse{Error: errorBody{Message: err.Error(), Type: "server_error"}}); sendErr != nil {
			slog.Debug("sse write failed", "id", id, "error", sendErr)
		}
		return
	}

	if sse == nil {
		sse = NewSSEWriter(w)
	}
	if err := sse.Done(); err != nil {
		slog.Debug("sse write failed", "id", id, "error", err)
	}
}

func (s *Server) writeCompletionError(w http.ResponseWriter, r *http.Request, id string, err error) {
	switch {
	case errors.Is(err, prompt.ErrEmptyMessages), errors.Is(err, completion.ErrInvalidToolSchema):
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		slog.Info("client went away", "id", id)
	default:
		slog.Error("chat completion failed", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, "server_error", err.Error())
	}
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modelList{
		Object: "list",
		Data: []modelInfo{{
			ID:      s.completer.Model(),
			Object:  "model",
			Created: s.now().Unix(),
			OwnedBy: "fngate",
		}},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Debug("writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, typ, msg string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Message: msg, Type: typ}})
}
