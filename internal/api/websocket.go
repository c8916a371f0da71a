package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// DefaultBroadcastInterval is the state push period (10 Hz)
	DefaultBroadcastInterval = 100 * time.Millisecond

	wsWriteWait = 2 * time.Second
)

// Frame formats. JSON goes out as text frames, msgpack as binary frames.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// SnapshotSource is what the hub broadcasts from.
type SnapshotSource interface {
	GetSnapshot() *game.Snapshot
}

// wsMessage is the envelope for every pushed frame.
type wsMessage struct {
	Event string      `json:"event" msgpack:"event"`
	Data  interface{} `json:"data" msgpack:"data"`
}

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn   *websocket.Conn
	ip     string
	format string
}

// encodedFrame carries one message pre-encoded in every format.
type encodedFrame struct {
	json    []byte
	msgpack []byte
}

// WebSocketHub manages all spectator connections with DoS protection
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan encodedFrame
	register   chan *wsClient
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	upgrader  websocket.Upgrader
	maxTotal  int
	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a new hub. Origins are checked by origins;
// maxTotal <= 0 uses MaxWSConnectionsTotal.
func NewWebSocketHub(origins *OriginChecker, maxTotal int) *WebSocketHub {
	if maxTotal <= 0 {
		maxTotal = MaxWSConnectionsTotal
	}
	if origins == nil {
		origins = NewOriginChecker([]string{"*"})
	}

	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan encodedFrame, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		maxTotal:   maxTotal,
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins.Allowed(origin) {
				return true
			}

			// Log rejected origin for security monitoring
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run is the hub loop. It is the only writer to client connections.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.wsLimiter.Release(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%s, %d total)", client.ip, client.format, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			h.dropLocked(conn)
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case frame := <-h.broadcast:
			h.mu.Lock()
			for conn, client := range h.clients {
				msgType, payload := websocket.TextMessage, frame.json
				if client.format == FormatMsgpack {
					msgType, payload = websocket.BinaryMessage, frame.msgpack
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(msgType, payload); err != nil {
					h.dropLocked(conn)
					continue
				}
				IncrementWSMessages()
			}
			UpdateWSConnections(len(h.clients))
			h.mu.Unlock()
		}
	}
}

// dropLocked closes and forgets conn. Caller holds h.mu.
func (h *WebSocketHub) dropLocked(conn *websocket.Conn) {
	if client, ok := h.clients[conn]; ok {
		// Release the connection slot for this IP
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
		conn.Close()
	}
}

// Stop closes every connection and ends Run.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast encodes the message once per format and queues it.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := wsMessage{Event: event, Data: data}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("⚠️ WebSocket JSON encode failed: %v", err)
		return
	}
	mpBytes, err := msgpack.Marshal(msg)
	if err != nil {
		log.Printf("⚠️ WebSocket msgpack encode failed: %v", err)
		return
	}

	select {
	case h.broadcast <- encodedFrame{json: jsonBytes, msgpack: mpBytes}:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the latest snapshot every interval while
// clients are connected. Only changed ticks are sent.
func (h *WebSocketHub) StartBroadcastLoop(src SnapshotSource, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			if h.ClientCount() == 0 {
				continue
			}
			snap := src.GetSnapshot()
			if snap == nil || snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			h.Broadcast("game:state", snap)
		}
	}()
}

// HandleWebSocket upgrades a spectator connection with DoS protection.
// ?format=msgpack selects binary frames.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	format := FormatJSON
	switch f := r.URL.Query().Get("format"); f {
	case "", FormatJSON:
	case FormatMsgpack:
		format = FormatMsgpack
	default:
		writeError(w, "format must be json or msgpack", http.StatusBadRequest)
		return
	}

	// Get client IP for rate limiting
	ip := GetClientIP(r)

	// Check total connection limit
	if total := h.ClientCount(); total >= h.maxTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip) // Release the slot we reserved
		return
	}

	client := &wsClient{conn: conn, ip: ip, format: format}
	select {
	case h.register <- client:
	case <-h.stopChan:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	// Spectators are read-only; reads only detect disconnects
	go func() {
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		select {
		case h.unregister <- conn:
		case <-h.stopChan:
		}
	}()
}
