package websocket

// EventPublisher defines the interface for publishing events to WebSocket clients
type EventPublisher interface {
	// Publish sends an event to all clients subscribed to the given report year
	Publish(year int, event Event)
	// PublishAll sends an event to every connected client
	PublishAll(event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the year's subscribers
func (h *Hub) Publish(year int, event Event) {
	h.Broadcast(year, event)
}

// PublishAll implements EventPublisher by broadcasting to every client
func (h *Hub) PublishAll(event Event) {
	h.BroadcastAll(event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(year int, event Event) {}

// PublishAll does nothing
func (n *NoOpPublisher) PublishAll(event Event) {}
