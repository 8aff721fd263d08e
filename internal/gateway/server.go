// Package gateway exposes the completion service over an OpenAI-compatible
// HTTP API.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fngate/internal/completion"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxRequestBytes = 10 << 20
	shutdownTimeout = 10 * time.Second
)

// Completer runs chat completion turns.
type Completer interface {
	Complete(ctx context.Context, req completion.Request, emit func(completion.Event)) (*completion.Result, error)
	Model() string
}

type Server struct {
	completer Completer
	mux       *http.ServeMux
	now       func() time.Time
}

func NewServer(completer Completer) *Server {
	s := &Server{
		completer: completer,
		mux:       http.NewServeMux(),
		now:       time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	s.mux.HandleFunc("GET /v1/models", s.handleListModels)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.mux, "fngate",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down gateway", "addr", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
