package server

import (
	"fmt"
	"net/http"
)

// SSEWriter marks the response as an event stream and flushes after every
// write so translated events reach the caller immediately.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: response writer does not support flush")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{
		w:       w,
		flusher: flusher,
	}, nil
}

// WriteChunk writes an already-formatted SSE payload (line plus blank line).
func (s *SSEWriter) WriteChunk(chunk []byte) error {
	if _, err := s.w.Write(chunk); err != nil {
		return fmt.Errorf("sse write chunk: %w", err)
	}
	s.flusher.Flush()
	return nil
}

func (s *SSEWriter) WriteDone() error {
	if _, err := s.w.Write([]byte("data: [DONE]\n\n")); err != nil {
		return fmt.Errorf("sse write done: %w", err)
	}
	s.flusher.Flush()
	return nil
}
