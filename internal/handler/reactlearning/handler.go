// Package reactlearning serves the React learning-path sections.
package reactlearning

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/backend/internal/model/react"
	"github.com/learnhub/backend/internal/service/reactlearning"
	"github.com/learnhub/backend/pkg/utils"
)

type Handler struct {
	svc *reactlearning.Service
}

func New(svc *reactlearning.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/level/{level}", h.handleListByLevel)
	r.Get("/level/{level}/stats", h.handleLevelStats)
	r.Get("/section/{sectionId}", h.handleGetBySectionID)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/with-topics", h.handleWithTopics)
	r.Get("/{id}/topics", h.handleTopics)
	r.Post("/{id}/topics/{topicId}", h.handleAddTopic)
	r.Delete("/{id}/topics/{topicId}", h.handleRemoveTopic)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in react.SectionInput
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

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sections, err := h.svc.List(r.Context())
	h.respondPopulated(w, r, sections, err)
}

func (h *Handler) handleListByLevel(w http.ResponseWriter, r *http.Request) {
	sections, err := h.svc.ListByLevel(r.Context(), chi.URLParam(r, "level"))
	h.respondPopulated(w, r, sections, err)
}

func (h *Handler) handleLevelStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.LevelStats(r.Context(), chi.URLParam(r, "level"))
	respond(w, stats, err)
}

func (h *Handler) handleGetBySectionID(w http.ResponseWriter, r *http.Request) {
	section, err := h.svc.GetBySectionID(r.Context(), chi.URLParam(r, "sectionId"))
	h.respondPopulatedOne(w, r, section, err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	section, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	h.respondPopulatedOne(w, r, section, err)
}

func (h *Handler) handleWithTopics(w http.ResponseWriter, r *http.Request) {
	section, err := h.svc.WithTopics(r.Context(), chi.URLParam(r, "id"))
	respond(w, section, err)
}

func (h *Handler) handleTopics(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Topics(r.Context(), chi.URLParam(r, "id"))
	respond(w, ids, err)
}

func (h *Handler) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	section, err := h.svc.AddTopic(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "topicId"))
	respond(w, section, err)
}

func (h *Handler) handleRemoveTopic(w http.ResponseWriter, r *http.Request) {
	section, err := h.svc.RemoveTopic(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "topicId"))
	respond(w, section, err)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch react.SectionPatch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	section, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	respond(w, section, err)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"))
	respond(w, removed, err)
}

// respondPopulated answers read routes with topicIds resolved to topic records.
func (h *Handler) respondPopulated(w http.ResponseWriter, r *http.Request, sections []react.Section, err error) {
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	populated, err := h.svc.Populate(r.Context(), sections...)
	respond(w, populated, err)
}

func (h *Handler) respondPopulatedOne(w http.ResponseWriter, r *http.Request, section react.Section, err error) {
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	populated, err := h.svc.Populate(r.Context(), section)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	respond(w, populated[0], nil)
}

func respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, payload)
}
