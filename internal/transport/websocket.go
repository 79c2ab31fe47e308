// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"audioscope/internal/log"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// Hub is a WebSocket server at /ws. It broadcasts events to every client,
// replays the latest event of each type to new clients and forwards client
// commands to a Controller.
type Hub struct {
	upgrader websocket.Upgrader
	ctrl     Controller
	ctx      context.Context
	cancel   context.CancelFunc

	clientsMu sync.Mutex
	clients   map[*client]bool
	latest    map[string]Event

	broadcast chan Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var (
	_ Transport    = (*Hub)(nil)
	_ http.Handler = (*Hub)(nil)
)

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(e)
}

// NewHub returns a running hub forwarding commands to ctrl. ctrl may be nil
// and attached later with Attach, before the hub starts serving.
func NewHub(ctrl Controller) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Remote control is bound to a local address by default.
			},
		},
		ctrl:      ctrl,
		ctx:       ctx,
		cancel:    cancel,
		clients:   make(map[*client]bool),
		latest:    make(map[string]Event),
		broadcast: make(chan Event, 256),
		done:      make(chan struct{}),
	}
	h.wg.Add(1)
	go h.handleBroadcasts()
	return h
}

// Attach sets the controller commands are forwarded to. It must be called
// before Serve.
func (h *Hub) Attach(ctrl Controller) {
	h.ctrl = ctrl
}

// Handler returns an HTTP handler serving the hub at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	return mux
}

// ListenAndServe serves the hub on addr until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("remote: failed to listen on %s: %w", addr, err)
	}
	return h.Serve(ctx, ln)
}

// Serve serves the hub on ln until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("Remote: listening on ws://%s/ws", ln.Addr())
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("remote: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	h.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("remote: shutdown: %w", err)
	}
	return nil
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("Remote: upgrade error: %v", err)
		return
	}

	c := &client{conn: conn}
	h.clientsMu.Lock()
	select {
	case <-h.done:
		h.clientsMu.Unlock()
		conn.Close()
		return
	default:
	}
	h.clients[c] = true
	h.wg.Add(1)
	total := len(h.clients)
	replay := make([]Event, 0, len(h.latest))
	for _, t := range []string{EventStatus, EventError, EventControls} {
		if e, ok := h.latest[t]; ok {
			replay = append(replay, e)
		}
	}
	h.clientsMu.Unlock()
	log.Infof("Remote: client connected, total: %d", total)

	for _, e := range replay {
		if err := c.write(e); err != nil {
			h.drop(c)
			h.wg.Done()
			return
		}
	}
	go h.readCommands(c)
}

// readCommands dispatches commands until the client goes away.
func (h *Hub) readCommands(c *client) {
	defer h.wg.Done()
	defer h.drop(c)

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) && !errors.Is(err, net.ErrClosed) {
				log.Debugf("Remote: read error: %v", err)
			}
			return
		}
		h.dispatch(cmd)
	}
}

func (h *Hub) dispatch(cmd Command) {
	if h.ctrl == nil {
		log.Warnf("Remote: no controller for %q", cmd.Type)
		return
	}
	switch cmd.Type {
	case CommandStart:
		log.Infof("Remote: start requested")
		// Acquisition may block; keep reading commands meanwhile.
		go func() {
			if err := h.ctrl.Start(h.ctx); err != nil {
				log.Debugf("Remote: %v", err)
			}
		}()
	case CommandStop:
		log.Infof("Remote: stop requested")
		h.ctrl.Stop()
	default:
		log.Warnf("Remote: unknown command %q", cmd.Type)
	}
}

func (h *Hub) drop(c *client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.clientsMu.Unlock()

	c.conn.Close()
	if ok {
		log.Infof("Remote: client disconnected, total: %d", total)
	}
}

// handleBroadcasts sends queued events to all connected clients.
func (h *Hub) handleBroadcasts() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case e := <-h.broadcast:
			h.clientsMu.Lock()
			h.latest[e.Type] = e
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.clientsMu.Unlock()

			for _, c := range targets {
				if err := c.write(e); err != nil {
					log.Warnf("Remote: error sending to client: %v", err)
					h.drop(c)
				}
			}
		}
	}
}

// Send queues e for broadcast. Events are dropped when the queue is full or
// the hub is closed.
func (h *Hub) Send(e Event) error {
	select {
	case <-h.done:
		return net.ErrClosed
	default:
	}
	select {
	case h.broadcast <- e:
	default:
		log.Debugf("Remote: broadcast queue full, dropping %s event", e.Type)
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and stops broadcasting.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		log.Infof("Remote: closing hub")
		h.cancel()

		h.clientsMu.Lock()
		close(h.done)
		for c := range h.clients {
			c.conn.Close()
		}
		h.clientsMu.Unlock()

		h.wg.Wait()
	})
	return nil
}
