package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"sentinel/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// Access is gated by RequireAPIAuth on the route.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	// clientQueue is how many messages a client may fall behind before it
	// is dropped.
	clientQueue = 32
	writeWait   = 10 * time.Second
)

// wsClient is one dashboard connection with its own outbound queue.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans directory events out to connected dashboard clients.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *utils.Logger
}

func NewHub(logger *utils.Logger) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
// Run never writes to a socket; each client's writer drains its own queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mutex.Unlock()
			return

		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			h.mutex.Unlock()
			h.logf("WebSocket client connected")

		case c := <-h.unregister:
			h.mutex.Lock()
			if h.clients[c] {
				h.drop(c)
				h.logf("WebSocket client disconnected")
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.drop(c)
					h.logf("WebSocket client dropped: send queue full")
				}
			}
			h.mutex.Unlock()
		}
	}
}

// drop removes c and closes its queue, which stops its writer. Callers hold
// the mutex.
func (h *Hub) drop(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
}

// Broadcast queues message for every client without blocking. The message is
// discarded when the hub is stopped or its queue is full.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		h.logf("WebSocket broadcast dropped: hub queue full")
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logf("WebSocket upgrade error: %v", err)
			return
		}
		client := &wsClient{conn: conn, send: make(chan []byte, clientQueue)}

		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}
		go h.writePump(client)

		defer func() {
			select {
			case h.unregister <- client:
			case <-h.done:
			}
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logf("WebSocket error: %v", err)
				}
				break
			}
		}
	}
}

// writePump owns all writes to c.conn and closes it once the queue closes
// or a write fails.
func (h *Hub) writePump(c *wsClient) {
	defer c.conn.Close()
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logf("WebSocket write error: %v", err)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if h.logger != nil {
		h.logger.Write(msg)
		return
	}
	log.Println(msg)
}
