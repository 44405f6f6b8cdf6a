package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	defaultBufferSize = 64
)

// Message is a JSON payload delivered to subscribers.
type Message struct {
	Stream string `json:"stream"`
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"`
}

type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// Hub multiplexes view streams over websocket connections.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*connection]struct{}
	current       map[string]func() any
	allowed       map[string]struct{}
	upgrader      websocket.Upgrader
	log           *zap.Logger
}

// NewHub constructs a hub accepting the given streams. No streams means any name.
func NewHub(streams ...string) *Hub {
	allowed := make(map[string]struct{}, len(streams))
	for _, stream := range uniqueStreams(streams) {
		allowed[stream] = struct{}{}
	}

	return &Hub{
		subscriptions: make(map[string]map[*connection]struct{}),
		current:       make(map[string]func() any),
		allowed:       allowed,
		log:           logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
			},
		},
	}
}

// Allowed reports whether stream may be subscribed to.
func (h *Hub) Allowed(stream string) bool {
	if len(h.allowed) == 0 {
		return true
	}
	_, ok := h.allowed[normalizeStream(stream)]
	return ok
}

// Register sets the provider of the state sent to a client when it subscribes.
func (h *Hub) Register(stream string, current func() any) {
	stream = normalizeStream(stream)
	if stream == "" || current == nil {
		return
	}
	h.mu.Lock()
	h.current[stream] = current
	h.mu.Unlock()
}

// Serve upgrades the request to a websocket and subscribes the client to streams.
// It returns when the client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, streams []string) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := newConnection(h, socket)
	h.log.Debug("client connected", zap.String("client", client.id), zap.Strings("streams", streams))
	h.subscribe(client, streams)

	go client.writeLoop()
	client.readLoop()
}

// Broadcast delivers an event to every subscriber of stream. Clients that cannot keep
// up are disconnected.
func (h *Hub) Broadcast(stream, event string, data any) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}

	message := Message{Stream: stream, Event: event, Data: data}
	var slow []*connection

	h.mu.RLock()
	for client := range h.subscriptions[stream] {
		if !client.enqueue(message) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.log.Warn("dropping slow client", zap.String("client", client.id), zap.String("stream", stream))
		client.close()
	}
}

// Subscribers returns the number of clients listening on stream.
func (h *Hub) Subscribers(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[normalizeStream(stream)])
}

func (h *Hub) subscribe(client *connection, streams []string) {
	var initial []Message

	h.mu.Lock()
	for _, stream := range uniqueStreams(streams) {
		if !h.Allowed(stream) {
			h.log.Debug("ignoring unknown stream", zap.String("client", client.id), zap.String("stream", stream))
			continue
		}
		if _, exists := client.streams[stream]; exists {
			continue
		}
		if h.subscriptions[stream] == nil {
			h.subscriptions[stream] = make(map[*connection]struct{})
		}
		h.subscriptions[stream][client] = struct{}{}
		client.streams[stream] = struct{}{}

		if current := h.current[stream]; current != nil {
			initial = append(initial, Message{Stream: stream, Event: EventSnapshot, Data: current()})
		}
	}
	h.mu.Unlock()

	for _, message := range initial {
		if !client.enqueue(message) {
			client.close()
			return
		}
	}
}

func (h *Hub) unsubscribe(client *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, stream := range uniqueStreams(streams) {
		h.removeLocked(client, stream)
	}
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for stream := range client.streams {
		h.removeLocked(client, stream)
	}
}

func (h *Hub) removeLocked(client *connection, stream string) {
	clients, ok := h.subscriptions[stream]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.subscriptions, stream)
	}
	delete(client.streams, stream)
}

type connection struct {
	id      string
	hub     *Hub
	socket  *websocket.Conn
	streams map[string]struct{}
	send    chan Message
	done    chan struct{}
	once    sync.Once
}

func newConnection(hub *Hub, socket *websocket.Conn) *connection {
	return &connection{
		id:      uuid.NewString(),
		hub:     hub,
		socket:  socket,
		streams: make(map[string]struct{}),
		send:    make(chan Message, defaultBufferSize),
		done:    make(chan struct{}),
	}
}

// enqueue queues message without blocking. It returns false when the buffer is full.
func (c *connection) enqueue(message Message) bool {
	select {
	case <-c.done:
		return true
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			c.hub.log.Debug("invalid control payload", zap.String("client", c.id), zap.Error(err))
			continue
		}

		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "subscribe":
			c.hub.subscribe(c, ctrl.Streams)
		case "unsubscribe":
			c.hub.unsubscribe(c, ctrl.Streams)
		case "ping":
			c.enqueue(Message{Event: EventPong})
		default:
			c.hub.log.Debug("unsupported control action", zap.String("client", c.id), zap.String("action", ctrl.Action))
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		c.hub.unregister(c)
		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func uniqueStreams(streams []string) []string {
	seen := make(map[string]struct{}, len(streams))
	var result []string
	for _, stream := range streams {
		if stream = normalizeStream(stream); stream == "" {
			continue
		}
		if _, exists := seen[stream]; exists {
			continue
		}
		seen[stream] = struct{}{}
		result = append(result, stream)
	}
	return result
}
