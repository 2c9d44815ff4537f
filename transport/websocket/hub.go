package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/snake-game/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 256
)

// Outgoing event names
const (
	EventStateUpdate = "state_update"
	EventGame        = "game_event"
	EventError       = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Message represents an outgoing WebSocket message
type Message struct {
	SessionID string             `json:"session_id"`
	State     *service.GameState `json:"state,omitempty"`
	Event     string             `json:"event,omitempty"`
	Data      interface{}        `json:"data,omitempty"`
}

// Command is an incoming client message. Only steering is supported.
type Command struct {
	Action    string `json:"action,omitempty"` // "steer" (default)
	Direction string `json:"direction"`
}

// SteerFunc applies a steering command for a session
type SteerFunc func(ctx context.Context, sessionID, direction string) error

// reply is a message addressed to one client
type reply struct {
	client  *Client
	message *Message
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	// Outbound messages for session clients
	broadcast chan *Message

	// Outbound messages for a single client
	direct chan *reply

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Applies inbound steering commands
	steer SteerFunc
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		direct:     make(chan *reply, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetSteerHandler routes client steering commands to fn. Set it before Run.
func (h *Hub) SetSteerHandler(fn SteerFunc) {
	h.steer = fn
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case r := <-h.direct:
			h.sendTo(r.client, r.message)
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: strings.ToLower(sessionID),
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastState sends a game state update to all clients in a session
func (h *Hub) BroadcastState(sessionID string, state *service.GameState) {
	h.enqueue(&Message{
		SessionID: sessionID,
		State:     state,
		Event:     EventStateUpdate,
	})
}

// BroadcastEvent sends a game event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event service.GameEvent) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     EventGame,
		Data:      event,
	})
}

// enqueue never blocks the caller: the service calls it from tick goroutines
func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		log.Printf("WebSocket broadcast queue full, dropping %s for session %s", message.Event, message.SessionID)
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	log.Printf("Client registered for session %s (total clients: %d)",
		client.sessionID, len(h.sessions[client.sessionID]))
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.sessions[client.sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty sessions
			if len(clients) == 0 {
				delete(h.sessions, client.sessionID)
			}

			log.Printf("Client unregistered from session %s (remaining clients: %d)",
				client.sessionID, len(clients))
		}
	}
}

// sendTo delivers a message to one client if it is still registered
func (h *Hub) sendTo(client *Client, message *Message) {
	if !h.sessions[client.sessionID][client] {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal reply: %v", err)
		return
	}

	select {
	case client.send <- data:
	default:
		h.unregisterClient(client)
	}
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	if clients, ok := h.sessions[strings.ToLower(message.SessionID)]; ok {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Client's send channel is full, drop it
				h.unregisterClient(client)
			}
		}
	}
}

// handleCommand applies one inbound client message
func (c *Client) handleCommand(data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.replyError("invalid message: "+err.Error())
		return
	}
	if cmd.Action != "" && cmd.Action != "steer" {
		c.replyError("unknown action: "+cmd.Action)
		return
	}
	if c.hub.steer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := c.hub.steer(ctx, c.sessionID, cmd.Direction); err != nil {
		c.replyError(err.Error())
	}
}

// replyError answers the client that sent a rejected command. The hub loop
// owns client.send, so the reply goes through it.
func (c *Client) replyError(message string) {
	r := &reply{
		client: c,
		message: &Message{
			SessionID: c.sessionID,
			Event:     EventError,
			Data:      map[string]string{"error": message},
		},
	}
	select {
	case c.hub.direct <- r:
	default:
		log.Printf("WebSocket reply queue full, dropping error for session %s", c.sessionID)
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.handleCommand(data)
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
