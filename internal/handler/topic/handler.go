// Package topic serves the system-design and agentic-AI collections.
package topic

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/learnhub/backend/internal/model/topic"
	"github.com/learnhub/backend/internal/service/topic"
	"github.com/learnhub/backend/pkg/utils"
)

// Handler exposes one topic collection over REST.
type Handler struct {
	svc           *topic.Service
	deleteMessage bool
}

// Option tunes a Handler.
type Option func(*Handler)

// WithDeleteMessage makes DELETE answer with a confirmation message instead
// of the removed record.
func WithDeleteMessage() Option {
	return func(h *Handler) { h.deleteMessage = true }
}

func New(svc *topic.Service, opts ...Option) *Handler {
	h := &Handler{svc: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes 注册主题相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/search", h.handleSearch)
	r.Get("/category/{category}", h.handleListByCategory)
	r.Get("/section/{sectionLink}", h.handleGetBySectionLink)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.Input
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
	topics, err := h.svc.List(r.Context())
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, topics)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, topics)
}

func (h *Handler) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, topics)
}

func (h *Handler) handleGetBySectionLink(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.GetBySectionLink(r.Context(), chi.URLParam(r, "sectionLink"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, record)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, record)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.Patch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	updated, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	if h.deleteMessage {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("%s deleted successfully", h.svc.Label()),
		})
		return
	}
	utils.RespondJSON(w, http.StatusOK, removed)
}
