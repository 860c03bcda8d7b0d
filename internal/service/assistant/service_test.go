package assistant_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/livekit/protocol/livekit"

	"github.com/learnhub/backend/internal/apperr"
	model "github.com/learnhub/backend/internal/model/assistant"
	"github.com/learnhub/backend/internal/model/chat"
	"github.com/learnhub/backend/internal/model/room"
	"github.com/learnhub/backend/internal/service/assistant"
	chatservice "github.com/learnhub/backend/internal/service/chat"
	roomservice "github.com/learnhub/backend/internal/service/room"
	"github.com/learnhub/backend/internal/service/room/roomtest"
)

type stubCompleter struct {
	reply      string
	err        error
	seen       []chat.Turn
	transcript string
}

func (c *stubCompleter) Complete(_ context.Context, turns []chat.Turn) (string, error) {
	c.seen = turns
	return c.reply, c.err
}

func (c *stubCompleter) Summarize(_ context.Context, transcript string) (string, error) {
	c.transcript = transcript
	return "summary", c.err
}

type fixture struct {
	api     *roomtest.FakeAPI
	rooms   *roomservice.Service
	ai      *stubCompleter
	history *chatservice.MemoryStore
	svc     *assistant.Service
}

func newFixture() *fixture {
	api := roomtest.NewFakeAPI()
	rooms := roomservice.NewService(api, roomservice.Config{
		URL:       "wss://rooms.example",
		APIKey:    "devkey",
		APISecret: "devsecret-devsecret-devsecret-123",
	})
	completer := &stubCompleter{reply: "hi there"}
	history := chatservice.NewMemoryStore()
	return &fixture{
		api:     api,
		rooms:   rooms,
		ai:      completer,
		history: history,
		svc:     assistant.NewService(rooms, completer, history),
	}
}

func TestCreateRoomSeedsHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.CreateRoom(ctx, model.CreateRoomRequest{RoomName: "demo", ParticipantName: "alice"})
	if err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}
	if res.AIAssistantName != model.DefaultName || res.UserToken == "" || res.URL != "wss://rooms.example" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Room.Metadata, `"hasAIAssistant":true`) {
		t.Fatalf("expected assistant metadata, got %s", res.Room.Metadata)
	}

	turns, _ := f.svc.History(ctx, "demo")
	if len(turns) != 1 || turns[0].Role != chat.RoleSystem || turns[0].Content != model.DefaultSystemPrompt {
		t.Fatalf("unexpected seed history: %+v", turns)
	}
}

func TestSendMessageGrowsHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateRoom(ctx, model.CreateRoomRequest{RoomName: "demo", ParticipantName: "alice", SystemPrompt: "be terse"}); err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}

	for i := 0; i < 3; i++ {
		reply, err := f.svc.SendMessage(ctx, model.SendMessageRequest{RoomName: "demo", Message: "question", ParticipantID: "alice"})
		if err != nil {
			t.Fatalf("SendMessage err: %v", err)
		}
		if reply != "hi there" {
			t.Fatalf("unexpected reply %q", reply)
		}
	}

	turns, _ := f.svc.History(ctx, "demo")
	if len(turns) != 1+2*3 {
		t.Fatalf("expected 7 turns, got %d", len(turns))
	}
	if len(f.ai.seen) != 6 || f.ai.seen[0].Content != "be terse" {
		t.Fatalf("completer should see full history, got %+v", f.ai.seen)
	}
	if turns[1].ParticipantID != "alice" || turns[2].Role != chat.RoleAssistant {
		t.Fatalf("unexpected turn order: %+v", turns)
	}

	if err := f.svc.Clear(ctx, "demo"); err != nil {
		t.Fatalf("Clear err: %v", err)
	}
	turns, _ = f.svc.History(ctx, "demo")
	if len(turns) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(turns))
	}
}

func TestSendMessageFallbackAndErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.ai.reply = "  "
	reply, err := f.svc.SendMessage(ctx, model.SendMessageRequest{RoomName: "demo", Message: "hello"})
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if !strings.HasPrefix(reply, "I apologize") {
		t.Fatalf("expected fallback reply, got %q", reply)
	}

	if _, err := f.svc.SendMessage(ctx, model.SendMessageRequest{RoomName: "demo"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	f.ai.err = apperr.Provider("upstream down")
	if _, err := f.svc.SendMessage(ctx, model.SendMessageRequest{RoomName: "demo", Message: "again"}); !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}

	noAI := assistant.NewService(f.rooms, nil, f.history)
	if _, err := noAI.SendMessage(ctx, model.SendMessageRequest{RoomName: "demo", Message: "hi"}); !errors.Is(err, apperr.ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestJoinRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.JoinRoom(ctx, model.JoinRoomRequest{RoomName: "missing", ParticipantName: "bob"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := f.rooms.CreateRoom(ctx, room.CreateRequest{Name: "plain"}); err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}
	_, err := f.svc.JoinRoom(ctx, model.JoinRoomRequest{RoomName: "plain", ParticipantName: "bob"})
	if !errors.Is(err, apperr.ErrValidation) || !strings.Contains(err.Error(), "does not have an AI assistant") {
		t.Fatalf("expected assistant-disabled error, got %v", err)
	}

	if _, err := f.svc.CreateRoom(ctx, model.CreateRoomRequest{RoomName: "demo", ParticipantName: "alice", AIAssistantName: "Ada"}); err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}
	if _, err := f.svc.SendMessage(ctx, model.SendMessageRequest{RoomName: "demo", Message: "hello"}); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}

	joined, err := f.svc.JoinRoom(ctx, model.JoinRoomRequest{RoomName: "demo", ParticipantName: "bob"})
	if err != nil {
		t.Fatalf("JoinRoom err: %v", err)
	}
	if joined.AIAssistantName != "Ada" || joined.Token == "" {
		t.Fatalf("unexpected join result: %+v", joined)
	}
	if len(joined.ChatHistory) != 2 {
		t.Fatalf("expected system turn hidden, got %+v", joined.ChatHistory)
	}
	for _, turn := range joined.ChatHistory {
		if turn.Role == chat.RoleSystem {
			t.Fatal("system turn leaked into join history")
		}
	}
}

func TestSummarize(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateRoom(ctx, model.CreateRoomRequest{RoomName: "demo", ParticipantName: "alice"}); err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}
	summary, err := f.svc.Summarize(ctx, "demo")
	if err != nil {
		t.Fatalf("Summarize err: %v", err)
	}
	if summary != "No conversation took place in this meeting." {
		t.Fatalf("unexpected empty summary %q", summary)
	}

	if _, err := f.svc.SendMessage(ctx, model.SendMessageRequest{RoomName: "demo", Message: "ship on friday?"}); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	summary, err = f.svc.Summarize(ctx, "demo")
	if err != nil {
		t.Fatalf("Summarize err: %v", err)
	}
	if summary != "summary" {
		t.Fatalf("unexpected summary %q", summary)
	}
	for _, want := range []string{"Participant: ship on friday?", "AI Assistant: hi there", "action items"} {
		if !strings.Contains(f.ai.transcript, want) {
			t.Fatalf("transcript missing %q:\n%s", want, f.ai.transcript)
		}
	}
	if strings.Contains(f.ai.transcript, model.DefaultSystemPrompt) {
		t.Fatal("system prompt should not be in transcript")
	}
}

func TestRoomFinishedClearsHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateRoom(ctx, model.CreateRoomRequest{RoomName: "demo", ParticipantName: "alice"}); err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}
	event := &livekit.WebhookEvent{Event: "room_finished", Room: &livekit.Room{Name: "demo"}}
	if err := f.svc.HandleRoomEvent(ctx, event); err != nil {
		t.Fatalf("HandleRoomEvent err: %v", err)
	}
	turns, _ := f.svc.History(ctx, "demo")
	if len(turns) != 0 {
		t.Fatalf("expected history cleared, got %d", len(turns))
	}
}
