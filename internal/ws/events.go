package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// matchEvent is the payload published on the match_events channel when a
// match finishes.
type matchEvent struct {
	Type         string `json:"type"`
	MatchID      string `json:"match_id"`
	MatchToken   string `json:"match_token"`
	WinnerID     string `json:"winner_id"`
	WinCondition string `json:"win_condition"`
	WinDetails   string `json:"win_details"`
}

// StartEventSubscriber relays match_events messages from Redis into match
// rooms. With several server instances behind a balancer, an event published
// by one instance still reaches clients connected to the others.
func (h *Hub) StartEventSubscriber(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}

	go func() {
		sub := rdb.Subscribe(ctx, "match_events")
		defer sub.Close()

		log.Println("[WS] Subscribed to match_events")

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event matchEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("[WS] Bad match event payload: %v", err)
					continue
				}
				h.BroadcastToMatch(event.MatchID, map[string]interface{}{
					"type":          event.Type,
					"match_id":      event.MatchID,
					"winner_id":     event.WinnerID,
					"win_condition": event.WinCondition,
					"win_details":   event.WinDetails,
				})
			}
		}
	}()
}
