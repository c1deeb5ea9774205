package services

import (
	"encoding/json"
	"sync"

	"github.com/bellapacxx/raffle-backend/raffle"
	"github.com/bellapacxx/raffle-backend/utils/logger"
)

// Hub fans raffle events out to every connected WebSocket client. It is the
// engine's Notifier: each event goes out with a fresh state snapshot so
// clients never have to reconcile deltas.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	engine  *raffle.Raffle
}

var LiveHub *Hub

func InitHub() *Hub {
	LiveHub = &Hub{clients: make(map[*Client]bool)}
	return LiveHub
}

// SetEngine closes the hub/engine cycle after both are constructed.
func (h *Hub) SetEngine(engine *raffle.Raffle) {
	h.mu.Lock()
	h.engine = engine
	h.mu.Unlock()
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()

	logger.Infof("[Hub] client joined (total=%d)", total)

	// greet the new client with the current state
	h.broadcast("state", nil)
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
	}
	total := len(h.clients)
	h.mu.Unlock()

	logger.Infof("[Hub] client left (total=%d)", total)
}

type eventMessage struct {
	Type  string         `json:"type"`
	Data  map[string]any `json:"data,omitempty"`
	State *raffle.Status `json:"state,omitempty"`
}

func (h *Hub) broadcast(eventType string, data map[string]any) {
	h.mu.RLock()
	engine := h.engine
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	msg := eventMessage{Type: eventType, Data: data}
	if engine != nil {
		st := engine.Status()
		msg.State = &st
	}

	b, err := json.Marshal(msg)
	if err != nil {
		logger.Errorf("[Hub] failed to marshal %s event: %v", eventType, err)
		return
	}

	for _, c := range clients {
		func(c *Client) {
			// a client may close its send channel between the snapshot above
			// and this send
			defer func() {
				if r := recover(); r != nil {
					logger.Warnf("[Hub] recovered broadcast to closed client: %v", r)
				}
			}()
			select {
			case c.send <- b:
			default:
				logger.Warnf("[Hub] dropping %s event to slow client", eventType)
			}
		}(c)
	}
}

// -------------------- Notifier --------------------

func (h *Hub) EnteredRound(userID uint) {
	h.broadcast("entered_round", map[string]any{"user_id": userID})
}

func (h *Hub) DrawRequested(requestID string) {
	h.broadcast("draw_requested", map[string]any{"request_id": requestID})
}

func (h *Hub) WinnerPicked(userID uint, amount float64) {
	h.broadcast("winner_picked", map[string]any{"user_id": userID, "amount": amount})
}
