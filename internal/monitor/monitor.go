// Package monitor streams received frames to websocket subscribers so an
// operator can watch what a simulated controller is being told to display.
package monitor

import (
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// framePayload is the JSON shape pushed to subscribers.
type framePayload struct {
	Strips       int    `json:"strips"`
	LedsPerStrip int    `json:"leds_per_strip"`
	FrameID      uint64 `json:"frame_id"`
	RGB          string `json:"rgb"` // base64 of the raw triples
}

// Hub fans frames out to websocket clients, throttled so a fast animation
// loop cannot flood slow browsers.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader

	strips       int
	ledsPerStrip int
	throttle     time.Duration
	lastEmit     time.Time
	frameID      uint64
}

func NewHub(strips, ledsPerStrip int) *Hub {
	return &Hub{
		clients:      map[*websocket.Conn]bool{},
		upgrader:     websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		strips:       strips,
		ledsPerStrip: ledsPerStrip,
		throttle:     50 * time.Millisecond, // ~20 FPS to subscribers
	}
}

// Handler upgrades an HTTP request to a websocket subscription.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("monitor upgrade failed")
			return
		}
		h.mu.Lock()
		h.clients[conn] = true
		n := len(h.clients)
		h.mu.Unlock()
		log.Info().Str("remote", conn.RemoteAddr().String()).Int("subscribers", n).Msg("monitor subscribed")

		// Drain control frames; drop the client when the read loop ends.
		go func() {
			defer h.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Write pushes one RGB payload to every subscriber. It satisfies the
// simulator's sink contract, so a hub registers like any other output.
func (h *Hub) Write(rgb []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frameID++

	now := time.Now()
	if h.lastEmit.Add(h.throttle).After(now) {
		return nil
	}
	h.lastEmit = now
	if len(h.clients) == 0 {
		return nil
	}

	payload := framePayload{
		Strips:       h.strips,
		LedsPerStrip: h.ledsPerStrip,
		FrameID:      h.frameID,
		RGB:          base64.StdEncoding.EncodeToString(rgb),
	}
	for conn := range h.clients {
		if err := conn.WriteJSON(payload); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
	return nil
}
