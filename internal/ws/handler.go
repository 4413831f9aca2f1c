package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Client represents a connected WebSocket client
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	playerID   string
	matchID    string
	matchToken string
	send       chan []byte
}

// Hub maintains the set of active clients per match room.
type Hub struct {
	clients    map[string]*Client            // playerID -> Client
	matchRooms map[string]map[string]*Client // matchID -> playerID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		matchRooms: make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes client registrations until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.clients[client.playerID]; exists {
		log.Printf("[WS] Player %s reconnecting - closing old connection", client.playerID)
		old.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
			time.Now().Add(5*time.Second))
		old.conn.Close()
		select {
		case <-old.send:
		default:
			close(old.send)
		}
		delete(h.clients, client.playerID)
		if room, ok := h.matchRooms[old.matchID]; ok {
			delete(room, client.playerID)
		}
	}

	h.clients[client.playerID] = client
	if _, ok := h.matchRooms[client.matchID]; !ok {
		h.matchRooms[client.matchID] = make(map[string]*Client)
	}
	h.matchRooms[client.matchID][client.playerID] = client

	log.Printf("[WS] Player %s connected to match %s", client.playerID, client.matchID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.playerID]; ok && current == client {
		delete(h.clients, client.playerID)
		select {
		case <-client.send:
		default:
			close(client.send)
		}
	}
	if room, ok := h.matchRooms[client.matchID]; ok {
		if room[client.playerID] == client {
			delete(room, client.playerID)
		}
		if len(room) == 0 {
			delete(h.matchRooms, client.matchID)
		}
	}

	log.Printf("[WS] Player %s disconnected from match %s", client.playerID, client.matchID)
}

// BroadcastToMatch sends a message to all players in a match room.
func (h *Hub) BroadcastToMatch(matchID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, exists := h.matchRooms[matchID]; exists {
		for _, client := range room {
			select {
			case client.send <- data:
			default:
				// Client's buffer is full
				log.Printf("Client send buffer full for player %s in match %s, dropping message", client.playerID, matchID)
			}
		}
	}
}

// SendToPlayer sends a message to a specific player
func (h *Hub) SendToPlayer(playerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[playerID]; exists {
		select {
		case client.send <- data:
		default:
			log.Printf("Client send buffer full for player %s, dropping message", playerID)
		}
	}
}

// WSMessage is the envelope for all inbound client messages.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed - connection is being replaced or cleaned up.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error for player %s: %v", c.playerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket ping error for player %s: %v", c.playerID, err)
				return
			}
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	c.send <- data
}
