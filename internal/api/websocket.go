package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/calvinwijaya/blackjack/internal/store"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 4 * 1024
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Applied   *bool       `json:"applied,omitempty"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	hub       *Hub
}

// Hub maintains the set of active clients per session and pushes session
// state to them
type Hub struct {
	sessions   *store.Sessions
	logger     *logrus.Logger
	upgrader   websocket.Upgrader
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	clients    map[string]map[*Client]bool
	versions   map[string]uint64
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub. allowedOrigin limits upgrades to one
// browser origin; empty allows all.
func NewHub(sessions *store.Sessions, logger *logrus.Logger, allowedOrigin string) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]bool),
		versions:   make(map[string]uint64),
	}
}

// Run starts the hub and returns when ctx is done
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, exists := h.clients[client.sessionID]; !exists {
				h.clients[client.sessionID] = make(map[*Client]bool)
			}
			h.clients[client.sessionID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.sessionID]; ok && set[client] {
				delete(set, client)
				close(client.send)
				// Clean up empty sessions
				if len(set) == 0 {
					delete(h.clients, client.sessionID)
					delete(h.versions, client.sessionID)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, set := range h.clients {
				for client := range set {
					client.conn.Close()
				}
				delete(h.clients, id)
				delete(h.versions, id)
			}
			h.mu.Unlock()
			return nil
		}
	}
}

// BroadcastSession sends snap to every client watching its session. A
// snapshot older than the last one sent for the session is dropped.
func (h *Hub) BroadcastSession(snap game.Snapshot) {
	data, err := json.Marshal(Message{Type: "state", SessionID: snap.ID, Data: snap})
	if err != nil {
		h.logger.WithError(err).Error("Error marshaling session update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients[snap.ID]) == 0 {
		return
	}
	if snap.Version <= h.versions[snap.ID] {
		h.logger.WithFields(logrus.Fields{
			"session": snap.ID,
			"version": snap.Version,
		}).Debug("Dropping stale session update")
		return
	}
	h.versions[snap.ID] = snap.Version

	for client := range h.clients[snap.ID] {
		select {
		case client.send <- data:
		default:
			// If client buffer is full, it will catch up on the next update
		}
	}
}

// WebSocketHandler handles WebSocket connections
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	s, err := h.sessions.Get(sessionID)
	if err != nil {
		errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, 16),
		sessionID: sessionID,
		hub:       h,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	h.logger.WithFields(logrus.Fields{
		"remote":  r.RemoteAddr,
		"session": sessionID,
	}).Info("WebSocket connected")

	// Send the current state right away
	client.sendMessage(Message{Type: "state", SessionID: sessionID, Data: s.Snapshot()})

	// Start goroutines for reading and writing
	go client.readPump()
	go client.writePump()
}

func (c *Client) sendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.WithError(err).Error("Error marshaling message")
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump applies commands sent by the client to its session
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithField("session", c.sessionID).Warn("WebSocket error")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendMessage(Message{Type: "error", Error: "invalid message"})
			continue
		}

		s, err := c.hub.sessions.Get(c.sessionID)
		if err != nil {
			c.sendMessage(Message{Type: "error", SessionID: c.sessionID, Error: "session closed"})
			return
		}

		// state changes reach every watcher through BroadcastSession, the
		// sender additionally learns whether its command was applied
		snap, err := s.Apply(game.Command(msg.Type))
		applied := err == nil
		reply := Message{Type: "ack", SessionID: c.sessionID, Applied: &applied, Data: snap}
		if err != nil && !errors.Is(err, game.ErrInvalidTransition) {
			reply.Type = "error"
			reply.Error = err.Error()
		}
		c.sendMessage(reply)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
