// Package realtime serves streaming chat rooms: a completion generated in the
// background is fanned out to SSE subscribers and mirrored onto the LiveKit
// data channel.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/handler/stream"
	"github.com/learnhub/backend/internal/model/chat"
	model "github.com/learnhub/backend/internal/model/room"
	"github.com/learnhub/backend/internal/service/ai"
	"github.com/learnhub/backend/internal/service/room"
	"github.com/learnhub/backend/internal/validation"
	"github.com/learnhub/backend/pkg/utils"
)

const (
	assistantName     = "AI Assistant"
	chunkTopic        = "chat-chunk"
	heartbeatInterval = 15 * time.Second
)

type Handler struct {
	rooms *room.Service
	aiSvc *ai.Service
	hub   *stream.Hub
}

// New wires the handler. aiSvc may be nil when no provider is configured.
func New(rooms *room.Service, aiSvc *ai.Service, hub *stream.Hub) *Handler {
	return &Handler{rooms: rooms, aiSvc: aiSvc, hub: hub}
}

type createRoomRequest struct {
	RoomName        string `json:"roomName" validate:"required"`
	ParticipantName string `json:"participantName" validate:"required"`
}

type streamRequest struct {
	RoomName        string         `json:"roomName" validate:"required"`
	ParticipantName string         `json:"participantName"`
	Messages        []chat.Message `json:"messages" validate:"required,min=1,dive"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-room", h.handleCreateRoom)
	r.Get("/rooms", h.handleListRooms)
	r.Delete("/rooms/{roomName}", h.handleDeleteRoom)
	r.Post("/stream", h.handleStartStream)
	r.Get("/stream/{roomName}", h.handleSubscribe)
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	metadata, _ := json.Marshal(map[string]string{
		"type":      "streaming-chat",
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
	if _, err := h.rooms.CreateRoom(r.Context(), model.CreateRequest{Name: req.RoomName, Metadata: string(metadata)}); err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	token, err := h.rooms.IssueJoinToken(model.TokenRequest{RoomName: req.RoomName, ParticipantName: req.ParticipantName})
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"token":           token,
		"url":             h.rooms.URL(),
		"roomName":        req.RoomName,
		"participantName": req.ParticipantName,
		"message":         "Room created successfully. Use the token to connect to LiveKit and the streaming endpoint to get real-time responses.",
	})
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rooms)
}

func (h *Handler) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomName := chi.URLParam(r, "roomName")
	if err := h.rooms.DeleteRoom(r.Context(), roomName); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	h.hub.Close(roomName)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Room deleted successfully"})
}

// handleStartStream kicks off a generation that outlives the request.
func (h *Handler) handleStartStream(w http.ResponseWriter, r *http.Request) {
	if h.aiSvc == nil {
		utils.RespondServiceError(w, apperr.NotConfigured("chat provider is not configured"))
		return
	}
	var req streamRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	ctx, done := h.hub.Track(context.Background(), req.RoomName)
	go func() {
		defer done()
		h.generate(ctx, req.RoomName, chat.Turns(req.Messages))
	}()

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{
		"message":           "Streaming started",
		"roomName":          req.RoomName,
		"streamingEndpoint": "/realtime-chat/stream/" + req.RoomName,
	})
}

func (h *Handler) generate(ctx context.Context, roomName string, turns []chat.Turn) {
	src, err := h.aiSvc.StreamComplete(ctx, turns)
	if err != nil {
		h.publish(ctx, roomName, stream.Event{Type: "error", Content: "Error: " + err.Error(), Timestamp: time.Now().UTC()})
		return
	}

	full, err := stream.Pump(ctx, src, stream.SinkFunc(func(chunk ai.Chunk) error {
		ev := stream.Event{Type: "chunk", Content: chunk.Text, Timestamp: chunk.Timestamp, ParticipantName: assistantName}
		if chunk.IsFinal {
			ev.Type = "complete"
		}
		h.publish(ctx, roomName, ev)
		return nil
	}))
	if err != nil {
		log.Printf("[realtime] generation for room=%s stopped: %v", roomName, err)
		if ctx.Err() == nil {
			h.publish(ctx, roomName, stream.Event{Type: "error", Content: "Error: " + err.Error(), Timestamp: time.Now().UTC()})
		}
		return
	}
	log.Printf("[realtime] streaming complete for room=%s, %d bytes", roomName, len(full))
}

// publish fans ev out to SSE subscribers and, when LiveKit is configured, to
// the room's data channel.
func (h *Handler) publish(ctx context.Context, roomName string, ev stream.Event) {
	h.hub.Publish(roomName, ev)

	if !h.rooms.Configured() {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := h.rooms.SendData(ctx, roomName, chunkTopic, payload); err != nil {
		log.Printf("[realtime] mirror to room=%s failed: %v", roomName, err)
	}
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	roomName := chi.URLParam(r, "roomName")
	events, unsubscribe := h.hub.Subscribe(roomName)
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	log.Printf("[sse] subscriber joined room=%s", roomName)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("[sse] subscriber left room=%s", roomName)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, chunkTopic, ev); err != nil {
				log.Printf("[sse] write failed for room=%s: %v", roomName, err)
				return
			}
		case t := <-ticker.C:
			if err := utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{"time": t.UTC().Format(time.RFC3339)}); err != nil {
				return
			}
		}
	}
}
