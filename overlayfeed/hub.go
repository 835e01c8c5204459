// bird-finder - locate and confirm small moving subjects in camera frames
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package overlayfeed pushes finder results and ROI overlay changes to
// browser clients over a websocket.
package overlayfeed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TheCacophonyProject/bird-finder/confirm"
	"github.com/TheCacophonyProject/bird-finder/finder"
)

const (
	writeWait      = 2 * time.Second
	clientQueueLen = 16
)

type Config struct {
	Listen string `yaml:"listen"`
}

func DefaultConfig() Config {
	return Config{Listen: ":8089"}
}

// Message types.
const (
	FinderType  = "finder"
	OverlayType = "overlay"
)

// Message is what is sent to clients as JSON. A finder message with a nil
// Finder means the subject was lost; an overlay message with a nil
// Overlay means the ROI was cleared.
type Message struct {
	Type    string                `json:"type"`
	ID      string                `json:"id,omitempty"`
	Finder  *finder.Result        `json:"finder,omitempty"`
	Overlay *confirm.OverlayState `json:"overlay,omitempty"`
	Sent    time.Time             `json:"sent"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Hub fans messages out to every connected client. New clients are sent
// the latest finder and overlay messages first.
type Hub struct {
	mu            sync.RWMutex
	clients       map[*client]struct{}
	upgrader      websocket.Upgrader
	latestFinder  []byte
	latestOverlay []byte

	messagesSent    uint64
	messagesDropped uint64
}

// OnResult implements finder.Listener.
func (h *Hub) OnResult(result *finder.Result) {
	h.publish(Message{Type: FinderType, Finder: result}, &h.latestFinder)
}

// OnConfirmation implements confirm.Listener.
func (h *Hub) OnConfirmation(c confirm.Confirmation) {
	overlay := c.Overlay
	h.publish(Message{Type: OverlayType, ID: c.ID, Overlay: &overlay}, &h.latestOverlay)
}

// OverlayCleared tells clients the ROI has expired.
func (h *Hub) OverlayCleared() {
	h.publish(Message{Type: OverlayType}, &h.latestOverlay)
}

func (h *Hub) publish(msg Message, latest *[]byte) {
	msg.Sent = time.Now()
	data, err := json.Marshal(&msg)
	if err != nil {
		log.Printf("overlay feed: failed to encode message: %v", err)
		return
	}

	h.mu.Lock()
	*latest = data
	for c := range h.clients {
		h.enqueue(c, data)
	}
	h.mu.Unlock()
}

// enqueue never blocks; a client that can't keep up misses messages.
func (h *Hub) enqueue(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		atomic.AddUint64(&h.messagesDropped, 1)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the number of messages sent and dropped.
func (h *Hub) Stats() (sent, dropped uint64) {
	return atomic.LoadUint64(&h.messagesSent), atomic.LoadUint64(&h.messagesDropped)
}

// ServeHTTP upgrades the request to a websocket and streams messages
// until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("overlay feed: upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientQueueLen)}

	h.mu.Lock()
	for _, latest := range [][]byte{h.latestFinder, h.latestOverlay} {
		if latest != nil {
			h.enqueue(c, latest)
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Clients don't send anything; reading is only to notice a close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.conn.Close()
				return
			}
			atomic.AddUint64(&h.messagesSent, 1)
		}
	}
}

// ListenAndServe serves the feed on addr at /ws until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("overlay feed listening on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
