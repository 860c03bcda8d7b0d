// Package chat serves the chat-completion endpoints.
package chat

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/backend/internal/apperr"
	"github.com/learnhub/backend/internal/handler/stream"
	"github.com/learnhub/backend/internal/model/chat"
	"github.com/learnhub/backend/internal/service/ai"
	"github.com/learnhub/backend/internal/validation"
	"github.com/learnhub/backend/pkg/utils"
)

// Handler 聊天补全的HTTP处理器
type Handler struct {
	aiSvc *ai.Service
}

// New 创建聊天处理器. aiSvc may be nil when no provider is configured.
func New(aiSvc *ai.Service) *Handler {
	return &Handler{aiSvc: aiSvc}
}

// CompletionRequest is the body of both completion endpoints.
type CompletionRequest struct {
	Messages []chat.Message `json:"messages" validate:"required,min=1,dive"`
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chatCompletion", h.handleComplete)
	r.Post("/chatCompletion/stream", h.handleStream)
}

func (h *Handler) decode(r *http.Request) ([]chat.Turn, error) {
	if h.aiSvc == nil {
		return nil, apperr.NotConfigured("chat provider is not configured")
	}
	var req CompletionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return chat.Turns(req.Messages), nil
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	turns, err := h.decode(r)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	content, err := h.aiSvc.Complete(r.Context(), turns)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"content": content})
}

// handleStream relays the completion as SSE frames. Errors raised before the
// first frame are answered as JSON.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	turns, err := h.decode(r)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	src, err := h.aiSvc.StreamComplete(r.Context(), turns)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}

	sink, err := stream.NewSSESink(w)
	if err != nil {
		src.Close()
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	full, err := stream.Pump(r.Context(), src, sink)
	if err != nil {
		log.Printf("[stream] completion aborted after %d bytes: %v", len(full), err)
		if r.Context().Err() == nil {
			sink.SendError(err.Error())
		}
		return
	}
	log.Printf("[stream] completion finished, %d bytes", len(full))
}
