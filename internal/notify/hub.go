package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 256
)

// Hub broadcasts events to every connected listener. Delivery is fire and
// forget: no acknowledgment, no backlog for listeners that connect later,
// and a listener that cannot keep up is dropped.
type Hub struct {
	mu       sync.Mutex
	conns    map[*connection]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// connection pairs a websocket with the queue its write pump drains.
// Every outbound frame goes through the pump, so a connection never has
// more than one writer.
type connection struct {
	ws   *websocket.Conn
	send chan []byte
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NewHub builds the process-wide broadcaster. A non-empty origin restricts
// which browser origins may attach listeners.
func NewHub(origin string, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		conns: make(map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if origin == "" {
					return true
				}
				return r.Header.Get("Origin") == origin
			},
		},
		log: log,
	}
}

// Handle upgrades the request and keeps the connection registered until
// the peer goes away.
func (h *Hub) Handle(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &connection{ws: ws, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	go h.writePump(conn)

	// drain inbound frames so pings and closes are processed
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writePump is the sole writer for its connection.
func (h *Hub) writePump(conn *connection) {
	for data := range conn.send {
		_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(conn)
			return
		}
	}
}

// Broadcast queues the event for all currently connected listeners. The
// enqueue is non-blocking; a listener whose queue is full is dropped.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		h.log.Warn("encode broadcast failed", zap.Error(err))
		return
	}

	// enqueue under the lock: drop removes a connection from the map
	// before closing its queue, so a send here never hits a closed channel
	var full []*connection
	h.mu.Lock()
	for conn := range h.conns {
		select {
		case conn.send <- data:
		default:
			full = append(full, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range full {
		h.drop(conn)
	}
}

// Listeners reports how many connections are currently attached.
func (h *Hub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(conn *connection) {
	h.mu.Lock()
	_, present := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if present {
		close(conn.send)
		_ = conn.ws.Close()
	}
}
