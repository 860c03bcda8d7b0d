package ai_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/model/chat"
	"github.com/learnhub/backend/internal/service/ai"
)

type stubModel struct {
	deltas []string
	err    error
	last   []*schema.Message
}

func (m *stubModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.last = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(strings.Join(m.deltas, ""), nil), nil
}

func (m *stubModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.last = input
	if m.err != nil {
		return nil, m.err
	}
	messages := make([]*schema.Message, 0, len(m.deltas))
	for _, d := range m.deltas {
		messages = append(messages, schema.AssistantMessage(d, nil))
	}
	return schema.StreamReaderFromArray(messages), nil
}

func newService(t *testing.T, m *stubModel) *ai.Service {
	t.Helper()
	svc, err := ai.NewService(context.Background(), m)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return svc
}

var turns = []chat.Turn{
	{Role: chat.RoleSystem, Content: "be brief"},
	{Role: chat.RoleUser, Content: "hello"},
}

func TestStreamMatchesComplete(t *testing.T) {
	m := &stubModel{deltas: []string{"Hel", "", "lo ", "there"}}
	svc := newService(t, m)
	ctx := context.Background()

	want, err := svc.Complete(ctx, turns)
	if err != nil {
		t.Fatalf("Complete err: %v", err)
	}

	stream, err := svc.StreamComplete(ctx, turns)
	if err != nil {
		t.Fatalf("StreamComplete err: %v", err)
	}

	var builder strings.Builder
	var chunks, finals int
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv err: %v", err)
		}
		if chunk.IsFinal {
			finals++
			if chunk.Text != "" {
				t.Fatalf("final chunk must be empty, got %q", chunk.Text)
			}
			continue
		}
		if finals > 0 {
			t.Fatal("chunk received after final marker")
		}
		chunks++
		builder.WriteString(chunk.Text)
	}

	if finals != 1 {
		t.Fatalf("expected exactly one final chunk, got %d", finals)
	}
	if chunks != 3 {
		t.Fatalf("expected empty deltas to be skipped, got %d chunks", chunks)
	}
	if builder.String() != want {
		t.Fatalf("stream mismatch: got %q want %q", builder.String(), want)
	}
}

func TestCompleteMapsRoles(t *testing.T) {
	m := &stubModel{deltas: []string{"ok"}}
	svc := newService(t, m)

	if _, err := svc.Complete(context.Background(), append(turns, chat.Turn{Role: chat.RoleAssistant, Content: "hi"})); err != nil {
		t.Fatalf("Complete err: %v", err)
	}
	if len(m.last) != 3 || m.last[0].Role != schema.System || m.last[2].Role != schema.Assistant {
		t.Fatalf("unexpected provider input: %+v", m.last)
	}
}

func TestProviderErrorsAreTyped(t *testing.T) {
	m := &stubModel{err: errors.New("quota exceeded")}
	svc := newService(t, m)
	ctx := context.Background()

	if _, err := svc.Complete(ctx, turns); !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if _, err := svc.StreamComplete(ctx, turns); !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if _, err := svc.Complete(ctx, nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for empty turns, got %v", err)
	}
}

func TestSummarizeUsesFixedPrompt(t *testing.T) {
	m := &stubModel{deltas: []string{"Summary"}}
	svc := newService(t, m)

	got, err := svc.Summarize(context.Background(), "Participant: hi")
	if err != nil {
		t.Fatalf("Summarize err: %v", err)
	}
	if got != "Summary" {
		t.Fatalf("unexpected summary %q", got)
	}
	if len(m.last) != 2 || !strings.Contains(m.last[0].Content, "meeting assistant") || m.last[1].Content != "Participant: hi" {
		t.Fatalf("unexpected prompt: %+v", m.last)
	}
}
