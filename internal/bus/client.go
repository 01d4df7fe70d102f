package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/betterstudio/studio-sync/internal/state"
)

// Client connects one context to a Hub and implements Bus over the
// connection. Envelopes the client itself published come back filtered by
// the hub, so handlers never see their own messages.
type Client struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	subs    map[int]func(state.Envelope)
	nextID  int
	closed  bool
}

// Dial connects to the hub at addr (host:port) and completes the
// hello/welcome handshake. client names the context for hub logs.
func Dial(addr, client string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing hub: %w", err)
	}

	if err := conn.WriteJSON(helloMessage{Type: "hello", Client: client, Version: protocolVersion}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var welcome welcomeMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading welcome: %w", err)
	}
	if strings.ToLower(strings.TrimSpace(welcome.Type)) != "welcome" {
		conn.Close()
		return nil, errors.New("expected welcome")
	}
	_ = conn.SetReadDeadline(time.Time{})

	c := &Client{
		logger: logger.With(slog.String("component", "bus")),
		conn:   conn,
		subs:   map[int]func(state.Envelope){},
	}
	go c.readLoop()
	return c, nil
}

// Publish sends the envelope to the hub. A closed connection is an error;
// a hub with no other clients is not.
func (c *Client) Publish(env state.Envelope) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("bus client is closed")
	}

	data, err := env.Encode()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Subscribe registers handler for every envelope relayed by the hub.
func (c *Client) Subscribe(handler func(state.Envelope)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = handler
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Close terminates the connection; pending handlers finish, nothing is
// retried.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.closed = true
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Debug("hub connection lost", slog.String("error", err.Error()))
			}
			return
		}

		env, ok, err := state.DecodeEnvelope(data)
		if err != nil || !ok {
			// Unknown frames are dropped, never fatal.
			continue
		}

		c.mu.Lock()
		handlers := make([]func(state.Envelope), 0, len(c.subs))
		for _, h := range c.subs {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(env)
		}
	}
}
