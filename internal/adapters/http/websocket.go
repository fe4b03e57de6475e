package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/pkg/geospatial"
	"github.com/dishdash/dishdash/internal/pkg/metrics"
)

// liveBuffer is how many undelivered events a slow client may queue before
// further events for it are dropped.
const liveBuffer = 32

// wsMessage is sent from client to choose the watched area.
// {"action":"viewport","lat":43.26,"lon":-2.93,"zoom":15}
type wsMessage struct {
	Action string  `json:"action"` // "viewport" | "clear"
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Zoom   int     `json:"zoom"`
}

// postEvent is pushed to clients for every new post inside their viewport.
type postEvent struct {
	Type string       `json:"type"` // "post.created"
	Post *domain.Post `json:"post"`
}

type liveClient struct {
	mu   sync.RWMutex
	box  *domain.BoundingBox
	send chan []byte
}

func (c *liveClient) watching(p domain.GeoPoint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.box != nil && c.box.Contains(p)
}

func (c *liveClient) setBox(box *domain.BoundingBox) {
	c.mu.Lock()
	c.box = box
	c.mu.Unlock()
}

// LiveHub fans post events out to WebSocket clients whose viewport box
// contains the post.
type LiveHub struct {
	mu      sync.RWMutex
	clients map[*liveClient]struct{}
	widthPx int
}

// NewLiveHub creates a hub. widthPx is the assumed client viewport width used
// to turn a zoom level into a box.
func NewLiveHub(widthPx int) *LiveHub {
	return &LiveHub{clients: make(map[*liveClient]struct{}), widthPx: widthPx}
}

func (h *LiveHub) register() *liveClient {
	c := &liveClient{send: make(chan []byte, liveBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.ActiveWebSockets.Inc()
	return c
}

func (h *LiveHub) unregister(c *liveClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		metrics.ActiveWebSockets.Dec()
	}
	h.mu.Unlock()
}

// Broadcast delivers post to every client watching its location. It never
// blocks; clients with a full queue miss the event.
func (h *LiveHub) Broadcast(post *domain.Post) {
	data, err := json.Marshal(postEvent{Type: "post.created", Post: post})
	if err != nil {
		slog.Warn("encode live event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.watching(post.Location) {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *LiveHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handle applies one client message and returns the reply.
func (h *LiveHub) handle(c *liveClient, raw []byte) interface{} {
	var m wsMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]string{"error": "invalid JSON"}
	}

	switch m.Action {
	case "viewport":
		vp := domain.Viewport{Center: domain.GeoPoint{Lat: m.Lat, Lon: m.Lon}, Zoom: m.Zoom}
		if err := geospatial.ValidateViewport(vp); err != nil {
			return map[string]string{"error": err.Error()}
		}
		box := geospatial.ViewportBox(vp, h.widthPx)
		c.setBox(&box)
		return map[string]interface{}{"status": "watching", "bbox": box}
	case "clear":
		c.setBox(nil)
		return map[string]string{"status": "cleared"}
	}
	return map[string]string{"error": "unknown action: " + m.Action}
}

// WebSocketHandler returns a handler that relays new posts inside the
// client's viewport. Nothing is sent until the client reports a viewport.
func WebSocketHandler(hub *LiveHub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		remoteAddr := conn.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		client := hub.register()
		defer hub.unregister(client)

		var mu sync.Mutex
		write := func(messageType int, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return conn.WriteMessage(messageType, data)
		}

		// Writer: queued events plus keep-alive pings
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case data := <-client.send:
					if err := write(websocket.TextMessage, data); err != nil {
						return
					}
				case <-ticker.C:
					if err := write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			reply, err := json.Marshal(hub.handle(client, msg))
			if err != nil {
				continue
			}
			if err := write(websocket.TextMessage, reply); err != nil {
				break
			}
		}

		close(done)
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
