package ws

import (
	"context"
	"sync"
	"time"

	"clicker_empire/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

var Connections = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "ws_connections",
	Help: "Open tap stream connections",
})

func init() {
	prometheus.MustRegister(Connections)
}

// Hub tracks open tap stream clients and owns the per-connection tap budget.
type Hub struct {
	Players *service.PlayerService

	tapLimit  int
	tapWindow time.Duration

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHub(players *service.PlayerService, tapLimit int, tapWindow time.Duration) *Hub {
	return &Hub{
		Players:   players,
		tapLimit:  tapLimit,
		tapWindow: tapWindow,
		clients:   make(map[*Client]struct{}),
	}
}

func (h *Hub) newLimiter() *rate.Limiter {
	if h.tapLimit <= 0 || h.tapWindow <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(h.tapWindow/time.Duration(h.tapLimit)), h.tapLimit)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	Connections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		Connections.Dec()
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown closes every open connection and waits for them to drain or ctx to end.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	for c := range h.clients {
		_ = c.Conn.Close()
	}
	h.mu.Unlock()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for h.Count() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
