// Package livekit exposes room management and join tokens.
package livekit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/learnhub/backend/internal/model/room"
	"github.com/learnhub/backend/internal/service/room"
	"github.com/learnhub/backend/pkg/utils"
)

type Handler struct {
	rooms *room.Service
}

func New(rooms *room.Service) *Handler {
	return &Handler{rooms: rooms}
}

// RegisterRoutes 注册房间相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rooms", h.handleCreateRoom)
	r.Get("/rooms", h.handleListRooms)
	r.Get("/rooms/{roomName}", h.handleGetRoom)
	r.Delete("/rooms/{roomName}", h.handleDeleteRoom)
	r.Get("/rooms/{roomName}/participants", h.handleListParticipants)
	r.Delete("/rooms/{roomName}/participants/{identity}", h.handleRemoveParticipant)
	r.Patch("/rooms/{roomName}/metadata", h.handleUpdateMetadata)
	r.Get("/rooms/{roomName}/stats", h.handleRoomStats)
	r.Post("/token", h.handleToken)
	r.Post("/join", h.handleJoin)
	r.Post("/connection-info", h.handleConnectionInfo)
	r.Get("/config", h.handleConfig)
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	info, err := h.rooms.CreateRoom(r.Context(), req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, info)
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rooms)
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	info, err := h.rooms.GetRoom(r.Context(), chi.URLParam(r, "roomName"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, info)
}

func (h *Handler) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.rooms.DeleteRoom(r.Context(), chi.URLParam(r, "roomName")); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.rooms.ListParticipants(r.Context(), chi.URLParam(r, "roomName"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, participants)
}

func (h *Handler) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	err := h.rooms.RemoveParticipant(r.Context(), chi.URLParam(r, "roomName"), chi.URLParam(r, "identity"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Metadata string `json:"metadata"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	info, err := h.rooms.UpdateRoomMetadata(r.Context(), chi.URLParam(r, "roomName"), payload.Metadata)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, info)
}

func (h *Handler) handleRoomStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rooms.RoomStats(r.Context(), chi.URLParam(r, "roomName"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req model.TokenRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	token, err := h.rooms.IssueJoinToken(req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req model.JoinRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	result, err := h.rooms.JoinRoom(r.Context(), req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleConnectionInfo(w http.ResponseWriter, r *http.Request) {
	var req model.JoinRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	result, err := h.rooms.JoinRoom(r.Context(), req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"url":             result.URL,
		"token":           result.Token,
		"roomName":        req.RoomName,
		"participantName": req.ParticipantName,
	})
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.rooms.ConnectionInfo())
}
