package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	Year() int
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by the report year a client
// subscribed to. It is safe for concurrent use.
type Hub struct {
	// years maps a report year to a map of client ID to client
	years map[int]map[string]ClientInterface
	mu    sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		years: make(map[int]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its subscribed year
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	year := client.Year()
	clientID := client.ID()

	if h.years[year] == nil {
		h.years[year] = make(map[string]ClientInterface)
	}

	h.years[year][clientID] = client

	log.Debug().
		Int("year", year).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	year := client.Year()
	clientID := client.ID()

	if clients, ok := h.years[year]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)

			// Clean up empty year maps
			if len(clients) == 0 {
				delete(h.years, year)
			}

			log.Debug().
				Int("year", year).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Broadcast sends an event to all clients subscribed to a report year.
// Clients subscribed to year 0 watch every year and receive the event too.
func (h *Hub) Broadcast(year int, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int("year", year).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	// Copy clients to avoid holding lock during send
	clientsCopy := make([]ClientInterface, 0, len(h.years[year]))
	for _, client := range h.years[year] {
		clientsCopy = append(clientsCopy, client)
	}
	if year != 0 {
		for _, client := range h.years[0] {
			clientsCopy = append(clientsCopy, client)
		}
	}
	h.mu.RUnlock()

	if len(clientsCopy) == 0 {
		return
	}

	// Send to each client asynchronously
	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int("year", year).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Int("year", year).
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// BroadcastAll sends an event to every connected client regardless of year
func (h *Hub) BroadcastAll(event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clientsCopy := make([]ClientInterface, 0)
	for _, clients := range h.years {
		for _, client := range clients {
			clientsCopy = append(clientsCopy, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}
}

// ClientCount returns the number of clients subscribed to a year
func (h *Hub) ClientCount(year int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.years[year]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients across all years
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.years {
		total += len(clients)
	}
	return total
}
