// Package assistant serves AI-assisted rooms under /ai-livekit.
package assistant

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	model "github.com/learnhub/backend/internal/model/assistant"
	"github.com/learnhub/backend/internal/model/chat"
	"github.com/learnhub/backend/internal/service/assistant"
	"github.com/learnhub/backend/pkg/utils"
)

type Handler struct {
	svc *assistant.Service
}

func New(svc *assistant.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts everything except the webhook, which is served by
// the webhook package.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-room", h.handleCreateRoom)
	r.Post("/join-room", h.handleJoinRoom)
	r.Post("/send-message", h.handleSendMessage)
	r.Get("/rooms/{roomName}/chat-history", h.handleHistory)
	r.Post("/rooms/{roomName}/clear-history", h.handleClear)
	r.Post("/rooms/{roomName}/summary", h.handleSummary)
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRoomRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	result, err := h.svc.CreateRoom(r.Context(), req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req model.JoinRoomRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	result, err := h.svc.JoinRoom(r.Context(), req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	reply, err := h.svc.SendMessage(r.Context(), req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"response":  reply,
		"timestamp": time.Now().UTC(),
		"roomName":  req.RoomName,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	roomName := chi.URLParam(r, "roomName")
	turns, err := h.svc.History(r.Context(), roomName)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	visible := make([]chat.Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Role != chat.RoleSystem {
			visible = append(visible, turn)
		}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"roomName":    roomName,
		"chatHistory": visible,
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context(), chi.URLParam(r, "roomName")); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Chat history cleared",
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	roomName := chi.URLParam(r, "roomName")
	summary, err := h.svc.Summarize(r.Context(), roomName)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"roomName":    roomName,
		"summary":     summary,
		"generatedAt": time.Now().UTC(),
	})
}
