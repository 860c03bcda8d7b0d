// Package mcq serves the multiple-choice training API.
package mcq

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	model "github.com/learnhub/backend/internal/model/mcq"
	"github.com/learnhub/backend/internal/service/mcq"
	"github.com/learnhub/backend/pkg/utils"
)

type Handler struct {
	svc *mcq.Service
}

func New(svc *mcq.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册题库相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/topics", h.handleTopics)
	r.Get("/topics-with-stats", h.handleTopicsWithStats)
	r.Get("/topics/{topic}/stats", h.handleTopicStats)
	r.Get("/topics/{topic}/levels", h.handleTopicLevels)
	r.Get("/topics/{topic}/level/{level}", h.handleQuiz)
	r.Get("/topics/{topic}/level/{level}/count", h.handleCount)
	r.Post("/validate", h.handleValidate)
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
	questions, err := h.svc.List(r.Context())
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.Topics(r.Context())
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, topics)
}

func (h *Handler) handleTopicsWithStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.TopicsWithStats(r.Context())
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleTopicStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.TopicStats(r.Context(), chi.URLParam(r, "topic"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleTopicLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.TopicLevels(r.Context(), chi.URLParam(r, "topic"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, levels)
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	level, ok := levelParam(w, r)
	if !ok {
		return
	}
	questions, err := h.svc.Quiz(r.Context(), chi.URLParam(r, "topic"), level)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	level, ok := levelParam(w, r)
	if !ok {
		return
	}
	count, err := h.svc.Count(r.Context(), chi.URLParam(r, "topic"), level)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req model.AnswerRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	result, err := h.svc.ValidateAnswer(r.Context(), req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	question, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, question)
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
	utils.RespondJSON(w, http.StatusOK, removed)
}

func levelParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return 0, false
	}
	return level, true
}
