package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

const clientSendBuffer = 32

// Envelope is the server-to-client frame: an event name plus its payload.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// client owns the write side of one connection. All frames go through the
// send channel so a single goroutine ever writes to the socket.
type client struct {
	playerID string
	conn     *websocket.Conn
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

func (that *client) writePump() {
	defer that.conn.Close()

	for frame := range that.send {
		if err := that.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

func (that *client) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.closed {
		that.closed = true
		close(that.send)
	}
}

// trySend queues a frame unless the client is closed or its buffer is full.
func (that *client) trySend(frame []byte) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	select {
	case that.send <- frame:
		return true
	default:
		return false
	}
}

// Hub routes server events to connected players and match rooms. It is the
// process-local view of who is reachable right now; match membership itself
// lives in the match document.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "wsHub"),
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// attach binds a registered player to a connection, displacing any
// previous connection for the same player.
func (that *Hub) attach(playerID string, conn *websocket.Conn) *client {
	newClient := &client{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, clientSendBuffer),
	}

	that.mu.Lock()
	old := that.clients[playerID]
	that.clients[playerID] = newClient
	that.mu.Unlock()

	if old != nil {
		old.close()
	}

	go newClient.writePump()

	return newClient
}

// detach removes the player's connection and reports whether it was still
// the current one; a newer connection for the same player is left alone.
func (that *Hub) detach(playerID string, c *client) bool {
	wasCurrent := false

	that.mu.Lock()
	if current, ok := that.clients[playerID]; ok && current == c {
		wasCurrent = true
		delete(that.clients, playerID)

		for _, members := range that.rooms {
			delete(members, playerID)
		}
	}
	that.mu.Unlock()

	c.close()

	return wasCurrent
}

func (that *Hub) JoinRoom(matchID, playerID string) {
	that.mu.Lock()
	members, ok := that.rooms[matchID]
	if !ok {
		members = make(map[string]struct{})
		that.rooms[matchID] = members
	}
	members[playerID] = struct{}{}
	that.mu.Unlock()
}

func (that *Hub) LeaveRoom(matchID, playerID string) {
	that.mu.Lock()
	if members, ok := that.rooms[matchID]; ok {
		delete(members, playerID)
		if len(members) == 0 {
			delete(that.rooms, matchID)
		}
	}
	that.mu.Unlock()
}

func (that *Hub) ToPlayer(playerID, event string, payload any) {
	frame, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		that.logger.Error("failed to marshal event", "event", event, "error", err)
		return
	}

	that.mu.RLock()
	c, ok := that.clients[playerID]
	that.mu.RUnlock()

	if !ok {
		return
	}

	that.deliver(c, frame, event)
}

func (that *Hub) ToMatch(matchID, event string, payload any) {
	frame, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		that.logger.Error("failed to marshal event", "event", event, "error", err)
		return
	}

	that.mu.RLock()
	targets := make([]*client, 0, 2)
	for playerID := range that.rooms[matchID] {
		if c, ok := that.clients[playerID]; ok {
			targets = append(targets, c)
		}
	}
	that.mu.RUnlock()

	for _, c := range targets {
		that.deliver(c, frame, event)
	}
}

// deliver drops the frame when the client is gone or its send buffer is
// full; a stuck reader must not stall the whole hub.
func (that *Hub) deliver(c *client, frame []byte, event string) {
	if !c.trySend(frame) {
		that.logger.Warn("dropping frame", "playerID", c.playerID, "event", event)
	}
}
