// Package reacttopic serves the React topics.
package reacttopic

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/backend/internal/model/react"
	"github.com/learnhub/backend/internal/service/reacttopic"
	"github.com/learnhub/backend/pkg/utils"
)

type Handler struct {
	svc *reacttopic.Service
}

func New(svc *reacttopic.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/topic/{topicId}", h.handleGetByTopicID)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handleUpdate)
	r.Patch("/{id}/complete", h.handleComplete)
	r.Patch("/{id}/incomplete", h.handleIncomplete)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in react.TopicInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// handleList filters by the optional sectionId query parameter.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.List(r.Context(), r.URL.Query().Get("sectionId"))
	respond(w, topics, err)
}

func (h *Handler) handleGetByTopicID(w http.ResponseWriter, r *http.Request) {
	topic, err := h.svc.GetByTopicID(r.Context(), chi.URLParam(r, "topicId"))
	respond(w, topic, err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	topic, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, topic, err)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch react.TopicPatch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	topic, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	respond(w, topic, err)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	topic, err := h.svc.MarkCompleted(r.Context(), chi.URLParam(r, "id"))
	respond(w, topic, err)
}

func (h *Handler) handleIncomplete(w http.ResponseWriter, r *http.Request) {
	topic, err := h.svc.MarkIncomplete(r.Context(), chi.URLParam(r, "id"))
	respond(w, topic, err)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"))
	respond(w, removed, err)
}

func respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, payload)
}
