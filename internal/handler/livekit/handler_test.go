package livekit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	model "github.com/learnhub/backend/internal/model/room"
	"github.com/learnhub/backend/internal/service/room"
	"github.com/learnhub/backend/internal/service/room/roomtest"
)

var testConfig = room.Config{URL: "wss://rooms.example", APIKey: "devkey", APISecret: "devsecret-devsecret-devsecret-123"}

func setupRouter(api room.RoomAPI, cfg room.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/livekit", New(room.NewService(api, cfg)).RegisterRoutes)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRoomLifecycle(t *testing.T) {
	api := roomtest.NewFakeAPI()
	r := setupRouter(api, testConfig)

	resp := do(r, http.MethodPost, "/livekit/rooms", map[string]any{"name": "standup", "emptyTimeout": 60})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(r, http.MethodGet, "/livekit/rooms/standup", nil)
	var info model.Info
	json.Unmarshal(resp.Body.Bytes(), &info)
	if resp.Code != http.StatusOK || info.EmptyTimeout != 60 {
		t.Fatalf("unexpected room: %d %+v", resp.Code, info)
	}

	api.AddParticipant("standup", "alice")
	resp = do(r, http.MethodGet, "/livekit/rooms/standup/stats", nil)
	var stats model.Stats
	json.Unmarshal(resp.Body.Bytes(), &stats)
	if stats.TotalParticipants != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if resp := do(r, http.MethodDelete, "/livekit/rooms/standup/participants/alice", nil); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	resp = do(r, http.MethodPatch, "/livekit/rooms/standup/metadata", map[string]string{"metadata": `{"topic":"retro"}`})
	json.Unmarshal(resp.Body.Bytes(), &info)
	if info.Metadata != `{"topic":"retro"}` {
		t.Fatalf("metadata not updated: %+v", info)
	}

	if resp := do(r, http.MethodDelete, "/livekit/rooms/standup", nil); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp := do(r, http.MethodGet, "/livekit/rooms/standup", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestJoinCreatesRoom(t *testing.T) {
	api := roomtest.NewFakeAPI()
	r := setupRouter(api, testConfig)

	resp := do(r, http.MethodPost, "/livekit/connection-info", map[string]string{"roomName": "pairing", "participantName": "bob"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["roomName"] != "pairing" || body["url"] != "wss://rooms.example" || strings.Count(body["token"], ".") != 2 {
		t.Fatalf("unexpected connection info: %v", body)
	}
	if api.CreateCalls != 1 {
		t.Fatalf("expected room to be created once, got %d", api.CreateCalls)
	}
}

func TestTokenValidation(t *testing.T) {
	r := setupRouter(roomtest.NewFakeAPI(), testConfig)

	if resp := do(r, http.MethodPost, "/livekit/token", map[string]string{"roomName": "x"}); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	resp := do(r, http.MethodPost, "/livekit/token", map[string]string{"roomName": "x", "participantName": "y"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestUnconfigured(t *testing.T) {
	r := setupRouter(nil, room.Config{})

	if resp := do(r, http.MethodGet, "/livekit/rooms", nil); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	resp := do(r, http.MethodGet, "/livekit/config", nil)
	var info model.ConnectionInfo
	json.Unmarshal(resp.Body.Bytes(), &info)
	if info.Configured {
		t.Fatal("expected configured=false")
	}
}
