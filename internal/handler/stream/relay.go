// Package stream relays completion chunks to SSE writers, websocket clients
// and room subscribers.
package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/learnhub/backend/internal/service/ai"
	"github.com/learnhub/backend/pkg/utils"
)

// Source yields completion chunks until io.EOF.
type Source interface {
	Recv() (ai.Chunk, error)
	Close()
}

// Sink receives every chunk in arrival order.
type Sink interface {
	Send(chunk ai.Chunk) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(chunk ai.Chunk) error

func (f SinkFunc) Send(chunk ai.Chunk) error { return f(chunk) }

// Pump forwards chunks from src to sink and returns the concatenated text once
// the final chunk has been delivered. A cancelled ctx stops consumption.
func Pump(ctx context.Context, src Source, sink Sink) (string, error) {
	defer src.Close()

	var full strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}

		chunk, err := src.Recv()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return full.String(), err
		}

		full.WriteString(chunk.Text)
		if err := sink.Send(chunk); err != nil {
			return full.String(), err
		}
		if chunk.IsFinal {
			return full.String(), nil
		}
	}
}

// SSESink writes each chunk as a `data:` frame.
type SSESink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSESink sets the SSE headers on w. It fails when w cannot flush.
func NewSSESink(w http.ResponseWriter) (*SSESink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming unsupported")
	}
	utils.SetupSSEHeaders(w)
	return &SSESink{w: w, flusher: flusher}, nil
}

func (s *SSESink) Send(chunk ai.Chunk) error {
	return utils.SendSSEChunk(s.w, s.flusher, chunk)
}

// SendError writes a terminal error frame.
func (s *SSESink) SendError(message string) error {
	return utils.SendSSEChunk(s.w, s.flusher, map[string]any{
		"error":      message,
		"isComplete": true,
	})
}
