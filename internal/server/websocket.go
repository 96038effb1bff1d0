package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/conneroisu/twiglight/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 50 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 16
)

// Client is a connected live reload browser.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	hub  *hub
}

type hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  logging.Logger
}

func newHub(logger logging.Logger) *hub {
	return &hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (h *hub) register(conn *websocket.Conn) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug(context.Background(), "Client connected", "client", c.ID, "total", total)
	c.enqueue(UpdateMessage{Type: MessageHello, ClientID: c.ID, Timestamp: time.Now()})
	return c
}

func (h *hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	delete(h.clients, c.ID)
	total := len(h.clients)
	h.mu.Unlock()

	c.close(websocket.StatusNormalClosure, "")
	if ok {
		h.logger.Debug(context.Background(), "Client disconnected", "client", c.ID, "total", total)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) broadcast(msg UpdateMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var slow []*Client
	for _, c := range clients {
		if !c.enqueue(msg) {
			slow = append(slow, c)
		}
	}

	// Clients that cannot keep up are dropped; they reconnect on reload.
	for _, c := range slow {
		h.unregister(c)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close(websocket.StatusGoingAway, "server shutting down")
	}
}

// enqueue queues msg without blocking and reports whether it was queued.
func (c *Client) enqueue(msg UpdateMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		data = []byte(`{"type":"reload"}`)
	}
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close(code, reason)
	})
}

// readPump discards incoming messages until the connection fails.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && status != -1 {
				c.hub.logger.Debug(ctx, "WebSocket read error", "client", c.ID, "error", err)
			}
			return
		}
	}
}

// writePump pumps messages to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug(ctx, "WebSocket write error", "client", c.ID, "error", err)
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}

// checkOrigin validates the request origin. Requests without an Origin
// header are rejected.
func (s *PreviewServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}

	for _, allowed := range s.config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	for _, host := range s.allowedHosts(r) {
		if originURL.Host == host {
			return true
		}
	}
	return false
}

// allowedHosts lists the origin hosts accepted for WebSocket upgrades.
func (s *PreviewServer) allowedHosts(r *http.Request) []string {
	port := strconv.Itoa(s.config.Port)
	hosts := []string{
		r.Host,
		net.JoinHostPort(s.config.Host, port),
		net.JoinHostPort("localhost", port),
		net.JoinHostPort("127.0.0.1", port),
	}
	for _, allowed := range s.config.AllowedOrigins {
		if u, err := url.Parse(allowed); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}
