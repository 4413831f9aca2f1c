package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cueroom/backend/internal/match"
	"github.com/cueroom/backend/internal/rules"
)

// matchClient couples a hub client to the match manager so inbound messages
// can drive the engine.
type matchClient struct {
	*Client
	mgr *match.Manager
}

// HandleMatchWebSocket upgrades a connection into a match room. The caller
// identifies the match with its join token and themselves with a player id
// that must belong to the match.
func HandleMatchWebSocket(hub *Hub, mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		playerID := c.Query("player")

		if token == "" || playerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and player required"})
			return
		}

		mt, err := mgr.GetMatchByToken(token)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}

		if !mt.Game().Snapshot().HasPlayer(playerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "player is not in this match"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &matchClient{
			Client: &Client{
				hub:        hub,
				conn:       conn,
				playerID:   playerID,
				matchID:    mt.ID,
				matchToken: token,
				send:       make(chan []byte, 256),
			},
			mgr: mgr,
		}

		hub.register <- client.Client

		go client.writePump()
		go client.readPump()
	}
}

// readPump reads and dispatches inbound match messages.
func (c *matchClient) readPump() {
	defer func() {
		c.hub.unregister <- c.Client
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (unexpected) for player %s: %v", c.playerID, err)
			} else {
				log.Printf("WebSocket read error for player %s: %v", c.playerID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming match messages.
func (c *matchClient) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "transition":
		var proposed rules.Snapshot
		if err := json.Unmarshal(msg.Data, &proposed); err != nil {
			c.sendError("Invalid snapshot data")
			return
		}
		c.handleTransition(&proposed)

	case "legal_shots":
		shots, err := c.mgr.LegalShots(c.matchToken)
		if err != nil {
			c.sendError("Match not found")
			return
		}
		data, _ := json.Marshal(map[string]interface{}{
			"type":  "legal_shots",
			"shots": shots,
		})
		c.send <- data

	case "get_state":
		mt, err := c.mgr.GetMatchByToken(c.matchToken)
		if err != nil {
			c.sendError("Match not found")
			return
		}
		data, _ := json.Marshal(map[string]interface{}{
			"type":     "snapshot",
			"match_id": mt.ID,
			"snapshot": mt.Game().Snapshot(),
		})
		c.send <- data

	case "concede":
		if _, err := c.mgr.Forfeit(c.matchToken, c.playerID); err != nil {
			c.sendError(err.Error())
		}

	default:
		c.sendError("Unknown message type")
	}
}

// handleTransition validates a proposed snapshot. Accepted snapshots reach
// the room via the manager's broadcast; the proposer gets the rejection
// directly.
func (c *matchClient) handleTransition(proposed *rules.Snapshot) {
	accepted, message, _, err := c.mgr.ApplyTransition(c.matchToken, proposed)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if !accepted {
		data, _ := json.Marshal(map[string]interface{}{
			"type":    "rejected",
			"message": message,
		})
		c.send <- data
	}
}
