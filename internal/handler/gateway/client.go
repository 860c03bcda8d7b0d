package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 100
	writeTimeout = 5 * time.Second
)

var errClientClosed = errors.New("gateway: client closed")

// frame is the wire envelope for both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// client owns one websocket connection. All writes go through writeLoop.
type client struct {
	id         string
	conn       *websocket.Conn
	send       chan []byte
	pingPeriod time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	closeOnce  sync.Once

	mu              sync.RWMutex
	roomName        string
	participantName string
}

func newClient(id string, conn *websocket.Conn, pingPeriod time.Duration) *client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		id:         id,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		pingPeriod: pingPeriod,
		ctx:        ctx,
		cancel:     cancel,
	}
	go c.writeLoop()
	return c
}

// writeLoop is the only writer on conn; it also sends the keepalive pings.
func (c *client) writeLoop() {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func encodeFrame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Event: event, Data: payload})
}

// offer queues an event without waiting. It reports false when the client is
// closed or its send buffer is full.
func (c *client) offer(event string, data any) bool {
	msg, err := encodeFrame(event, data)
	if err != nil {
		return false
	}
	select {
	case <-c.ctx.Done():
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// emit queues an event for the client, waiting up to writeTimeout for room
// in the send buffer.
func (c *client) emit(event string, data any) error {
	msg, err := encodeFrame(event, data)
	if err != nil {
		return err
	}

	select {
	case <-c.ctx.Done():
		return errClientClosed
	default:
	}

	timer := time.NewTimer(writeTimeout)
	defer timer.Stop()
	select {
	case c.send <- msg:
		return nil
	case <-timer.C:
		return errors.New("gateway: send timeout")
	case <-c.ctx.Done():
		return errClientClosed
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.conn.Close()
	})
}

func (c *client) membership() (roomName, participantName string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomName, c.participantName
}

func (c *client) setMembership(roomName, participantName string) {
	c.mu.Lock()
	c.roomName = roomName
	c.participantName = participantName
	c.mu.Unlock()
}

// info is the room-info payload.
func (c *client) info() map[string]string {
	roomName, participantName := c.membership()
	info := map[string]string{"socketId": c.id}
	if roomName != "" {
		info["roomName"] = roomName
		info["participantName"] = participantName
	}
	return info
}
