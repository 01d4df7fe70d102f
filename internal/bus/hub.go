package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const protocolVersion = 1

// Hub hosts a loopback WebSocket endpoint that every context connects to.
// Each received frame is relayed verbatim to all other connected clients.
// The hub holds no state and queues nothing: a context that joins late
// simply converges from the store.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	ln      net.Listener
	httpSrv *http.Server
	addr    string
	conns   map[*hubConn]struct{}
}

type hubConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	client  string
}

type helloMessage struct {
	Type    string `json:"type"`
	Client  string `json:"client,omitempty"`
	Version int    `json:"version,omitempty"`
}

type welcomeMessage struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
}

// NewHub creates an unstarted hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger.With(slog.String("component", "hub")),
		conns:  map[*hubConn]struct{}{},
	}
}

// Start listens on addr, which must bind to loopback.
func (h *Hub) Start(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid hub addr %q: %w", addr, err)
	}
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return fmt.Errorf("hub addr must bind to loopback, got %q", addr)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %q: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	h.mu.Lock()
	h.ln = ln
	h.httpSrv = srv
	h.addr = ln.Addr().String()
	h.mu.Unlock()

	go func() {
		_ = srv.Serve(ln)
	}()

	h.logger.Info("hub listening", slog.String("addr", h.Addr()))
	return nil
}

// Addr returns the bound address, empty before Start.
func (h *Hub) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

// Close shuts the listener and drops every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	srv := h.httpSrv
	conns := make([]*hubConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.httpSrv = nil
	h.ln = nil
	h.addr = ""
	h.conns = map[*hubConn]struct{}{}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.conn.Close()
	}
	if srv == nil {
		return nil
	}
	return srv.Close()
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if err := h.accept(conn); err != nil {
		h.logger.Debug("rejected connection", slog.String("error", err.Error()))
		_ = conn.Close()
	}
}

func (h *Hub) accept(conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var hello helloMessage
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("reading hello: %w", err)
	}
	if strings.ToLower(strings.TrimSpace(hello.Type)) != "hello" {
		return errors.New("expected hello")
	}
	_ = conn.SetReadDeadline(time.Time{})

	hc := &hubConn{conn: conn, client: hello.Client}
	if err := hc.writeJSON(welcomeMessage{Type: "welcome", Version: protocolVersion}); err != nil {
		return err
	}

	h.mu.Lock()
	h.conns[hc] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.logger.Info("context joined", slog.String("client", hc.client), slog.Int("connected", n))

	go h.readLoop(hc)
	return nil
}

func (h *Hub) readLoop(hc *hubConn) {
	for {
		msgType, data, err := hc.conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.relay(hc, data)
	}

	h.mu.Lock()
	delete(h.conns, hc)
	n := len(h.conns)
	h.mu.Unlock()
	_ = hc.conn.Close()
	h.logger.Info("context left", slog.String("client", hc.client), slog.Int("connected", n))
}

// relay forwards a frame to every client except its origin. Write errors
// only drop that one receiver; the bus is best effort.
func (h *Hub) relay(from *hubConn, data []byte) {
	h.mu.Lock()
	targets := make([]*hubConn, 0, len(h.conns))
	for c := range h.conns {
		if c != from {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.writeMu.Lock()
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.writeMu.Unlock()
		if err != nil {
			h.logger.Debug("relay write failed", slog.String("client", c.client))
		}
	}
}

func (hc *hubConn) writeJSON(v any) error {
	hc.writeMu.Lock()
	defer hc.writeMu.Unlock()
	return hc.conn.WriteJSON(v)
}
