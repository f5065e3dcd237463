package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sidescroller/internal/game"
	"sidescroller/internal/input"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	wsWriteTimeout = 2 * time.Second
	wsMaxMessage   = 512
)

// KeyInput receives key changes from clients. *input.Handler implements it.
type KeyInput interface {
	Apply(msg input.KeyMessage) error
	Reset()
}

// HUDSource provides the snapshot pushed to clients.
type HUDSource interface {
	HUD() (game.HUD, bool)
}

type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// wsEnvelope is the server-to-client message shape.
type wsEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// WebSocketHub fans HUD snapshots out to clients and feeds their key
// messages into the input handler.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	stop       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	wsLimiter *ConnLimiter
	upgrader  websocket.Upgrader
	input     KeyInput
	logger    *zap.Logger
}

// NewWebSocketHub creates a hub. keys may be nil for a read-only feed.
func NewWebSocketHub(keys KeyInput, logger *zap.Logger) *WebSocketHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stop:       make(chan struct{}),
		wsLimiter:  NewConnLimiter(MaxWSConnectionsPerIP),
		input:      keys,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if IsAllowedOrigin(origin) {
				return true
			}
			h.logger.Warn("⚠️ WebSocket connection rejected", zap.String("origin", origin))
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run owns the client set and is the only writer to connections.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stop:
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

			h.logger.Info("📱 Client connected", zap.String("ip", client.ip), zap.Int("total", count))
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.remove(conn)

		case message := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()

			for _, conn := range failed {
				h.remove(conn)
			}
			IncrementWSMessages()
		}
	}
}

func (h *WebSocketHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	conn.Close()
	h.logger.Info("📱 Client disconnected", zap.Int("remaining", count))
	UpdateWSConnections(count)
}

// Stop disconnects every client and ends Run and the broadcast loop.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Broadcast queues an event for every client, dropping it when the queue is full.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(wsEnvelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("broadcast encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the latest HUD every period until Stop.
// Unchanged snapshots are not resent.
func (h *WebSocketHub) StartBroadcastLoop(source HUDSource, period time.Duration) {
	ticker := time.NewTicker(period)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
			}
			if h.ClientCount() == 0 {
				continue
			}
			hud, ok := source.HUD()
			if !ok || hud.Sequence == lastSeq {
				continue
			}
			lastSeq = hud.Sequence
			h.Broadcast("hud", hud)
		}
	}()
}

// HandleWebSocket upgrades the request and reads key messages until the
// client goes away.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		h.logger.Warn("⚠️ WebSocket connection rejected: total limit reached", zap.Int("total", total))
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Acquire(ip) {
		h.logger.Warn("⚠️ WebSocket connection rejected: per-IP limit reached", zap.String("ip", ip))
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		h.wsLimiter.Release(ip)
		return
	}
	conn.SetReadLimit(wsMaxMessage)

	select {
	case h.register <- &wsClient{conn: conn, ip: ip}:
	case <-h.stop:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	go h.readLoop(conn, ip)
}

func (h *WebSocketHub) readLoop(conn *websocket.Conn, ip string) {
	defer func() {
		if h.input != nil {
			// Keys held by a vanished client would otherwise stay held.
			h.input.Reset()
		}
		select {
		case h.unregister <- conn:
		case <-h.stop:
		}
	}()

	for {
		var msg input.KeyMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				wsKeysTotal.WithLabelValues("rejected").Inc()
				continue
			}
			return
		}
		if h.input == nil {
			continue
		}
		if err := h.input.Apply(msg); err != nil {
			wsKeysTotal.WithLabelValues("rejected").Inc()
			h.logger.Debug("key rejected", zap.String("ip", ip), zap.Error(err))
			continue
		}
		wsKeysTotal.WithLabelValues("applied").Inc()
	}
}
