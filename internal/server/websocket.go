package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"chatdock/internal/bootstrap"
	"chatdock/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	// clientBuffer is how many events a slow client may lag behind before
	// it is disconnected
	clientBuffer = 256
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// CLI tools send no origin
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
			"http://[::1]",
			"https://[::1]",
		}
		for _, allowed := range allowedOrigins {
			if strings.HasPrefix(origin, allowed) {
				return true
			}
		}

		logger.WithFields(logger.Fields{
			"origin": origin,
			"remote": r.RemoteAddr,
		}).Warn("WebSocket connection rejected - invalid origin")
		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type client struct {
	conn *websocket.Conn
	send chan bootstrap.Event
}

// Hub fans bootstrap events out to every connected websocket client
type Hub struct {
	mu          sync.Mutex
	clients     map[*client]struct{}
	closed      bool
	unsubscribe func()
}

// NewHub creates a hub subscribed to svc. A nil svc gives a hub that only
// ever sends the initial snapshot.
func NewHub(svc *bootstrap.Service) *Hub {
	h := &Hub{clients: make(map[*client]struct{})}
	if svc != nil {
		h.unsubscribe = svc.Subscribe(h.broadcast)
	}
	return h
}

// broadcast never blocks the launch: a client whose buffer is full is
// dropped
func (h *Hub) broadcast(ev bootstrap.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			logger.WithField("event", ev.Type).Warn("Event client too slow, disconnecting")
			h.remove(c)
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove must be called with mu held
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and stops listening for events
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.remove(c)
	}
}

// handleEvents streams bootstrap events as JSON messages. The first message
// is a state snapshot so a late subscriber knows where the launch is.
func (s *Server) handleEvents(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return nil
	}

	cl := &client{conn: ws, send: make(chan bootstrap.Event, clientBuffer)}
	cl.send <- s.snapshot()
	if !s.hub.register(cl) {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		return ws.Close()
	}

	logger.WithField("remote", c.RealIP()).Debug("Event stream client connected")

	go cl.writePump()
	cl.readPump()
	s.hub.unregister(cl)
	return nil
}

func (s *Server) snapshot() bootstrap.Event {
	ev := bootstrap.Event{Type: bootstrap.EventState, State: bootstrap.StateIdle, Time: time.Now()}
	if s.deps.Service != nil {
		ev.State = s.deps.Service.State()
		ev.URL = s.deps.Service.LastURL()
		ev.Port = s.deps.Service.Session().Port
	}
	return ev
}

// writePump is the only writer on the connection
func (cl *client) writePump() {
	defer cl.conn.Close()

	for ev := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(ev); err != nil {
			logger.WithError(err).Debug("Event stream write failed")
			return
		}
	}

	_ = cl.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// readPump discards client messages and returns once the peer goes away
func (cl *client) readPump() {
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Debug("WebSocket read error")
			}
			return
		}
	}
}
