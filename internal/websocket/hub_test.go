package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	year     int
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, year int) *mockClient {
	return &mockClient{
		id:       id,
		year:     year,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Year() int {
	return m.year
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", 2025)
	client2 := newMockClient("client-2", 2025)
	client3 := newMockClient("client-3", 2024)

	// Register clients
	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	// Verify counts
	assert.Equal(t, 2, hub.ClientCount(2025))
	assert.Equal(t, 1, hub.ClientCount(2024))
	assert.Equal(t, 0, hub.ClientCount(1999))

	// Unregister one client from 2025
	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(2025))

	// Unregister remaining clients
	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount(2025))
	assert.Equal(t, 0, hub.ClientCount(2024))
}

func TestHub_Broadcast_YearIsolation(t *testing.T) {
	hub := NewHub()

	// Clients watching 2025
	client25a := newMockClient("client-25a", 2025)
	client25b := newMockClient("client-25b", 2025)

	// Client watching 2024
	client24 := newMockClient("client-24", 2024)

	hub.Register(client25a)
	hub.Register(client25b)
	hub.Register(client24)

	// Broadcast to 2025 subscribers
	evt := KPIUpdated(map[string]interface{}{"month": "2025-03"})
	hub.Broadcast(2025, evt)

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	// 2025 clients should receive the message
	msgs25a := client25a.GetMessages()
	msgs25b := client25b.GetMessages()
	assert.Len(t, msgs25a, 1, "client25a should receive 1 message")
	assert.Len(t, msgs25b, 1, "client25b should receive 1 message")

	// The 2024 client should NOT receive the message
	msgs24 := client24.GetMessages()
	assert.Len(t, msgs24, 0, "client24 should not receive a 2025 event")
}

func TestHub_Broadcast_AllYearsWatcher(t *testing.T) {
	hub := NewHub()

	watcher := newMockClient("watcher", 0)
	client25 := newMockClient("client-25", 2025)

	hub.Register(watcher)
	hub.Register(client25)

	hub.Broadcast(2025, KPIUpdated(map[string]interface{}{"month": "2025-03"}))
	time.Sleep(10 * time.Millisecond)

	assert.Len(t, client25.GetMessages(), 1, "year subscriber should receive the event")
	assert.Len(t, watcher.GetMessages(), 1, "year-0 watcher should receive events for every year")

	// A broadcast addressed to year 0 reaches the watcher exactly once and
	// leaves year-specific subscribers alone.
	hub.Broadcast(0, KPIUpdated(map[string]interface{}{"month": "2024-01"}))
	time.Sleep(10 * time.Millisecond)

	assert.Len(t, watcher.GetMessages(), 2)
	assert.Len(t, client25.GetMessages(), 1)
}

func TestHub_Broadcast_MultipleFanOut(t *testing.T) {
	hub := NewHub()

	// Create multiple clients watching the same year
	clients := make([]*mockClient, 5)
	for i := 0; i < 5; i++ {
		clients[i] = newMockClient("client-"+string(rune('a'+i)), 2025)
		hub.Register(clients[i])
	}

	// Broadcast event
	evt := BillableUpdated(map[string]interface{}{"id": float64(1)})
	hub.Broadcast(2025, evt)

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	// All clients should receive the message
	for i, c := range clients {
		msgs := c.GetMessages()
		assert.Len(t, msgs, 1, "client %d should receive message", i)
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := NewHub()

	client25 := newMockClient("client-25", 2025)
	client24 := newMockClient("client-24", 2024)
	hub.Register(client25)
	hub.Register(client24)

	hub.BroadcastAll(CacheInvalidated(map[string]interface{}{"scope": "all"}))

	time.Sleep(10 * time.Millisecond)

	assert.Len(t, client25.GetMessages(), 1)
	assert.Len(t, client24.GetMessages(), 1)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	// Concurrently register clients across five years
	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient("client-"+string(rune(i)), 2021+i%5)
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}

	wg.Wait()

	// Verify total is correct (10 per year, 5 years)
	total := 0
	for year := 2021; year < 2026; year++ {
		total += hub.ClientCount(year)
	}
	assert.Equal(t, clientCount, total)

	// Concurrently broadcast and unregister
	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			evt := KPIUpdated(map[string]interface{}{"id": float64(idx)})
			hub.Broadcast(2021+idx%5, evt)
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}

	wg.Wait()

	// After unregistering all, counts should be 0
	for year := 2021; year < 2026; year++ {
		assert.Equal(t, 0, hub.ClientCount(year))
	}
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", 2025)

	// Should not panic when unregistering a client that was never registered
	require.NotPanics(t, func() {
		hub.Unregister(client)
	})
}

func TestHub_BroadcastToEmptyYear(t *testing.T) {
	hub := NewHub()

	// Should not panic when broadcasting to a year with no clients
	require.NotPanics(t, func() {
		evt := KPIUpdated(map[string]interface{}{"id": float64(1)})
		hub.Broadcast(1999, evt)
	})
}
