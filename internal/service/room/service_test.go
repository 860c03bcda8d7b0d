package room_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/learnhub/backend/internal/apperr"
	model "github.com/learnhub/backend/internal/model/room"
	"github.com/learnhub/backend/internal/service/room"
	"github.com/learnhub/backend/internal/service/room/roomtest"
)

var testConfig = room.Config{URL: "wss://rooms.example", APIKey: "devkey", APISecret: "devsecret-devsecret-devsecret-123"}

func TestGetRoomNotFound(t *testing.T) {
	svc := room.NewService(roomtest.NewFakeAPI(), testConfig)

	_, err := svc.GetRoom(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateListDelete(t *testing.T) {
	api := roomtest.NewFakeAPI()
	svc := room.NewService(api, testConfig)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, model.CreateRequest{Name: "standup", Metadata: "{}", EmptyTimeout: 300})
	if err != nil {
		t.Fatalf("CreateRoom err: %v", err)
	}
	if created.Name != "standup" || created.EmptyTimeout != 300 {
		t.Fatalf("unexpected room: %+v", created)
	}

	rooms, err := svc.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms err: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}

	api.AddParticipant("standup", "alice")
	stats, err := svc.RoomStats(ctx, "standup")
	if err != nil {
		t.Fatalf("RoomStats err: %v", err)
	}
	if stats.TotalParticipants != 1 || stats.Participants[0].State != "ACTIVE" {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := svc.RemoveParticipant(ctx, "standup", "alice"); err != nil {
		t.Fatalf("RemoveParticipant err: %v", err)
	}
	if err := svc.RemoveParticipant(ctx, "standup", "alice"); !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}

	if err := svc.DeleteRoom(ctx, "standup"); err != nil {
		t.Fatalf("DeleteRoom err: %v", err)
	}
	if _, err := svc.GetRoom(ctx, "standup"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestJoinRoomCreatesMissingRoom(t *testing.T) {
	api := roomtest.NewFakeAPI()
	svc := room.NewService(api, testConfig)

	result, err := svc.JoinRoom(context.Background(), model.JoinRequest{RoomName: "pairing", ParticipantName: "bob"})
	if err != nil {
		t.Fatalf("JoinRoom err: %v", err)
	}
	if result.URL != testConfig.URL {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if parts := strings.Split(result.Token, "."); len(parts) != 3 {
		t.Fatalf("expected a JWT, got %q", result.Token)
	}
	if api.CreateCalls != 1 {
		t.Fatalf("expected one create call, got %d", api.CreateCalls)
	}
}

func TestJoinRoomAcceptsConcurrentCreator(t *testing.T) {
	api := roomtest.NewFakeAPI()
	api.FailCreate = errors.New("room already exists")
	api.CreateAnyway = true
	svc := room.NewService(api, testConfig)

	if _, err := svc.JoinRoom(context.Background(), model.JoinRequest{RoomName: "race", ParticipantName: "bob"}); err != nil {
		t.Fatalf("JoinRoom should accept the existing room, got %v", err)
	}

	api.CreateAnyway = false
	_, err := svc.JoinRoom(context.Background(), model.JoinRequest{RoomName: "other", ParticipantName: "bob"})
	if !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestUnconfigured(t *testing.T) {
	svc := room.NewService(nil, room.Config{})
	ctx := context.Background()

	if _, err := svc.ListRooms(ctx); !errors.Is(err, apperr.ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
	if _, err := svc.IssueJoinToken(model.TokenRequest{RoomName: "r", ParticipantName: "p"}); !errors.Is(err, apperr.ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
	if info := svc.ConnectionInfo(); info.Configured {
		t.Fatal("expected unconfigured connection info")
	}
}

func TestIssueJoinTokenValidates(t *testing.T) {
	svc := room.NewService(roomtest.NewFakeAPI(), testConfig)
	if _, err := svc.IssueJoinToken(model.TokenRequest{RoomName: "r"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
