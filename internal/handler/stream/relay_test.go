package stream

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/learnhub/backend/internal/service/ai"
)

type fakeSource struct {
	chunks []ai.Chunk
	err    error
	pos    int
	closed bool
}

func (s *fakeSource) Recv() (ai.Chunk, error) {
	if s.pos < len(s.chunks) {
		c := s.chunks[s.pos]
		s.pos++
		return c, nil
	}
	if s.err != nil {
		return ai.Chunk{}, s.err
	}
	return ai.Chunk{}, io.EOF
}

func (s *fakeSource) Close() { s.closed = true }

func chunks(texts ...string) []ai.Chunk {
	out := make([]ai.Chunk, 0, len(texts)+1)
	for _, t := range texts {
		out = append(out, ai.Chunk{Text: t, Timestamp: time.Now()})
	}
	return append(out, ai.Chunk{IsFinal: true, Timestamp: time.Now()})
}

func TestPumpForwardsInOrder(t *testing.T) {
	src := &fakeSource{chunks: chunks("a", "b", "c")}
	var got []ai.Chunk

	full, err := Pump(context.Background(), src, SinkFunc(func(c ai.Chunk) error {
		got = append(got, c)
		return nil
	}))
	if err != nil {
		t.Fatalf("Pump err: %v", err)
	}
	if full != "abc" {
		t.Fatalf("expected abc, got %q", full)
	}
	if len(got) != 4 || got[0].Text != "a" || got[2].Text != "c" || !got[3].IsFinal {
		t.Fatalf("unexpected chunks: %+v", got)
	}
	if !src.closed {
		t.Fatal("expected source to be closed")
	}
}

func TestPumpStopsOnCancel(t *testing.T) {
	src := &fakeSource{chunks: chunks("a", "b", "c")}
	ctx, cancel := context.WithCancel(context.Background())

	var sent int
	_, err := Pump(ctx, src, SinkFunc(func(c ai.Chunk) error {
		sent++
		cancel()
		return nil
	}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected consumption to stop after 1 chunk, got %d", sent)
	}
}

func TestPumpReturnsProviderError(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{chunks: []ai.Chunk{{Text: "partial"}}, err: boom}

	full, err := Pump(context.Background(), src, SinkFunc(func(ai.Chunk) error { return nil }))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if full != "partial" {
		t.Fatalf("expected partial text, got %q", full)
	}
}

func TestSSESinkWritesFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := NewSSESink(rec)
	if err != nil {
		t.Fatalf("NewSSESink err: %v", err)
	}

	if _, err := Pump(context.Background(), &fakeSource{chunks: chunks("hi")}, sink); err != nil {
		t.Fatalf("Pump err: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if strings.Count(body, "data: ") != 2 {
		t.Fatalf("expected 2 frames, got:\n%s", body)
	}
	if !strings.Contains(body, `"content":"hi"`) || !strings.Contains(body, `"isComplete":true`) {
		t.Fatalf("unexpected frames:\n%s", body)
	}
}
