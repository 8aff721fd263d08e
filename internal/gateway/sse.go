package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SSEWriter writes OpenAI-style server-sent events: one "data:" line per
// JSON payload and a final "data: [DONE]".
type SSEWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &SSEWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (s *SSEWriter) Send(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *SSEWriter) Done() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}
