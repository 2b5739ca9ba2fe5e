package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/comanda-pos/api/internal/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roomEvent routes an event to one establishment's room
type roomEvent struct {
	EstablishmentID uuid.UUID
	Event           Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by establishment ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomEvent
	done       chan struct{}

	mu  sync.RWMutex
	log *logrus.Entry
}

// NewHub creates a new Hub instance
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, after
// disconnecting every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.establishmentID] == nil {
				h.rooms[client.establishmentID] = make(map[*Client]bool)
			}
			h.rooms[client.establishmentID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.log.WithError(err).Error("marshal ws event")
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.EstablishmentID] {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than block the room.
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.establishmentID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.establishmentID)
	}
}

// BroadcastToEstablishment queues an event for every client of one
// establishment. It does not block once the hub has stopped.
func (h *Hub) BroadcastToEstablishment(establishmentID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &roomEvent{EstablishmentID: establishmentID, Event: event}:
	case <-h.done:
	}
}

// Publish implements events.Sink.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	select {
	case h.broadcast <- &roomEvent{EstablishmentID: e.EstablishmentID, Event: Event{Type: e.Type, Payload: payload}}:
		return nil
	case <-h.done:
		return fmt.Errorf("hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of clients in an establishment's room.
func (h *Hub) ClientCount(establishmentID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[establishmentID])
}
