// Package gateway serves the websocket session channel used by streaming chat
// clients. Clients join named rooms and every streamed reply is mirrored to
// the other members of the sender's room.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/learnhub/backend/internal/handler/stream"
	"github.com/learnhub/backend/internal/model/chat"
	"github.com/learnhub/backend/internal/service/ai"
	"github.com/learnhub/backend/internal/validation"
)

const (
	maxFrameSize = 1 << 20

	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = 54 * time.Second
)

// Handler WebSocket网关处理器
type Handler struct {
	aiSvc      *ai.Service
	rooms      *rooms
	upgrader   websocket.Upgrader
	pongWait   time.Duration
	pingPeriod time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithKeepalive sets how long a connection may stay silent before it is
// dropped and how often the server pings it. pingPeriod must be shorter
// than pongWait.
func WithKeepalive(pongWait, pingPeriod time.Duration) Option {
	return func(h *Handler) {
		h.pongWait = pongWait
		h.pingPeriod = pingPeriod
	}
}

// New 创建网关处理器. aiSvc may be nil; stream-chat then answers stream-error.
func New(aiSvc *ai.Service, opts ...Option) *Handler {
	h := &Handler{
		aiSvc: aiSvc,
		rooms: newRooms(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pongWait:   defaultPongWait,
		pingPeriod: defaultPingPeriod,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type joinRoomData struct {
	RoomName        string `json:"roomName" validate:"required"`
	ParticipantName string `json:"participantName" validate:"required"`
}

type streamChatData struct {
	Messages []chat.Message `json:"messages" validate:"required,min=1,dive"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade failed: %v", err)
		return
	}

	c := newClient(uuid.NewString(), conn, h.pingPeriod)
	log.Printf("[gateway] client connected: %s", c.id)
	defer h.disconnect(c)

	c.emit("connected", map[string]string{
		"message":  "Connected to streaming server",
		"clientId": c.id,
	})

	conn.SetReadLimit(maxFrameSize)
	// 心跳: 超过 pongWait 没有任何消息或 pong 即断开
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[gateway] read error from %s: %v", c.id, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.pongWait))

		var in frame
		if err := json.Unmarshal(data, &in); err != nil {
			c.emit("error", map[string]string{"message": "invalid frame: " + err.Error()})
			continue
		}
		h.dispatch(c, in)
	}
}

func (h *Handler) dispatch(c *client, in frame) {
	switch in.Event {
	case "join-room":
		h.handleJoinRoom(c, in.Data)
	case "leave-room":
		h.handleLeaveRoom(c)
	case "stream-chat":
		h.handleStreamChat(c, in.Data)
	case "get-room-info":
		c.emit("room-info", c.info())
	default:
		c.emit("error", map[string]string{"message": fmt.Sprintf("unknown event: %s", in.Event)})
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("data is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return err
	}
	return validation.Struct(v)
}

func (h *Handler) handleJoinRoom(c *client, raw json.RawMessage) {
	var data joinRoomData
	if err := decodeData(raw, &data); err != nil {
		c.emit("error", map[string]string{"message": err.Error()})
		return
	}

	// 切换房间时先离开旧房间
	if previous, _ := c.membership(); previous != "" && previous != data.RoomName {
		h.leave(c)
	}

	c.setMembership(data.RoomName, data.ParticipantName)
	h.rooms.join(data.RoomName, c)

	c.emit("room-joined", map[string]string{
		"roomName":        data.RoomName,
		"participantName": data.ParticipantName,
		"message":         "Joined room: " + data.RoomName,
	})
	h.rooms.broadcast(data.RoomName, c.id, "participant-joined", map[string]string{
		"participantName": data.ParticipantName,
		"message":         data.ParticipantName + " joined the room",
	})
}

func (h *Handler) handleLeaveRoom(c *client) {
	if !h.leave(c) {
		return
	}
	c.emit("room-left", map[string]string{"message": "Left the room"})
}

// leave removes c from its room and notifies the remaining members.
func (h *Handler) leave(c *client) bool {
	roomName, participantName := c.membership()
	if roomName == "" {
		return false
	}
	h.rooms.leave(roomName, c)
	c.setMembership("", "")
	h.rooms.broadcast(roomName, c.id, "participant-left", map[string]string{
		"participantName": participantName,
		"message":         participantName + " left the room",
	})
	return true
}

func (h *Handler) disconnect(c *client) {
	h.leave(c)
	c.close()
	log.Printf("[gateway] client disconnected: %s", c.id)
}

func (h *Handler) handleStreamChat(c *client, raw json.RawMessage) {
	var data streamChatData
	if err := decodeData(raw, &data); err != nil {
		h.streamError(c, err)
		return
	}
	if h.aiSvc == nil {
		h.streamError(c, errors.New("chat provider is not configured"))
		return
	}

	go h.relay(c, chat.Turns(data.Messages))
}

// relay streams one completion to c and mirrors every event to its room.
// The client's context ends the stream when the connection goes away.
func (h *Handler) relay(c *client, turns []chat.Turn) {
	roomName, participantName := c.membership()
	mirror := func(event string, payload map[string]any) {
		if roomName == "" {
			return
		}
		shared := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			shared[k] = v
		}
		shared["participantName"] = participantName
		h.rooms.broadcast(roomName, c.id, event, shared)
	}

	start := map[string]any{
		"message":   "AI response streaming started...",
		"timestamp": time.Now().UTC(),
	}
	c.emit("stream-start", start)
	mirror("stream-start", start)

	src, err := h.aiSvc.StreamComplete(c.ctx, turns)
	if err != nil {
		h.streamError(c, err)
		return
	}

	var full string
	sink := stream.SinkFunc(func(chunk ai.Chunk) error {
		full += chunk.Text
		payload := map[string]any{
			"content":      chunk.Text,
			"isComplete":   chunk.IsFinal,
			"timestamp":    chunk.Timestamp,
			"fullResponse": full,
		}
		if err := c.emit("stream-chunk", payload); err != nil {
			return err
		}
		mirror("stream-chunk", payload)
		return nil
	})

	full, err = stream.Pump(c.ctx, src, sink)
	if err != nil {
		if !errors.Is(err, errClientClosed) && c.ctx.Err() == nil {
			h.streamError(c, err)
		}
		return
	}

	done := map[string]any{
		"fullResponse": full,
		"timestamp":    time.Now().UTC(),
		"message":      "AI response completed",
	}
	c.emit("stream-complete", done)
	mirror("stream-complete", done)
}

func (h *Handler) streamError(c *client, err error) {
	log.Printf("[gateway] stream error for %s: %v", c.id, err)
	c.emit("stream-error", map[string]any{
		"error":     err.Error(),
		"timestamp": time.Now().UTC(),
	})
}
