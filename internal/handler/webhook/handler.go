// Package webhook receives LiveKit webhook events.
package webhook

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lkwebhook "github.com/livekit/protocol/webhook"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/learnhub/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// EventFunc consumes a decoded event.
type EventFunc func(ctx context.Context, event *livekit.WebhookEvent) error

// Receiver decodes webhook requests. With a key provider set, the signed
// Authorization header is verified before decoding.
type Receiver struct {
	keys auth.KeyProvider
}

// NewReceiver returns a receiver that trusts the request body as is.
func NewReceiver() *Receiver {
	return &Receiver{}
}

// NewVerifyingReceiver returns a receiver that checks signatures made with apiKey/apiSecret.
func NewVerifyingReceiver(apiKey, apiSecret string) *Receiver {
	return &Receiver{keys: auth.NewSimpleKeyProvider(apiKey, apiSecret)}
}

// Receive decodes the event carried by r.
func (rc *Receiver) Receive(r *http.Request) (*livekit.WebhookEvent, error) {
	if rc.keys != nil {
		return lkwebhook.ReceiveWebhookEvent(r, rc.keys)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	event := &livekit.WebhookEvent{}
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(body, event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// Handler serves one webhook endpoint fanning events out to consumers in order.
type Handler struct {
	receiver  *Receiver
	consumers []EventFunc
}

func New(receiver *Receiver, consumers ...EventFunc) *Handler {
	return &Handler{receiver: receiver, consumers: consumers}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook", h.ServeHTTP)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	event, err := h.receiver.Receive(r)
	if err != nil {
		log.Printf("[webhook] rejected request: %v", err)
		utils.RespondError(w, http.StatusBadRequest, "Webhook processing failed: "+err.Error())
		return
	}

	log.Printf("[webhook] event=%s id=%s room=%s", event.GetEvent(), event.GetId(), event.GetRoom().GetName())
	for _, consume := range h.consumers {
		if err := consume(r.Context(), event); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Webhook processing failed: "+err.Error())
			return
		}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
