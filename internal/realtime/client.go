package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"live-poll-service/internal/domain"
)

// Role is what a connection identified itself as.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// State is the per-connection lifecycle.
type State int

const (
	StateConnected State = iota
	StateTeacher
	StateStudent
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateTeacher:
		return "teacher"
	case StateStudent:
		return "student"
	default:
		return "disconnected"
	}
}

// Settings tunes heartbeat and buffering for each connection.
type Settings struct {
	SendBuffer   int
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	ReadLimit    int64
}

// DefaultSettings mirrors the usual gorilla heartbeat values.
func DefaultSettings() Settings {
	return Settings{
		SendBuffer:   256,
		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    10 * time.Second,
		ReadLimit:    65536,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.SendBuffer < 8 {
		s.SendBuffer = d.SendBuffer
	}
	if s.PingInterval <= 0 {
		s.PingInterval = d.PingInterval
	}
	if s.PongWait <= s.PingInterval {
		s.PongWait = s.PingInterval * 2
	}
	if s.WriteWait <= 0 {
		s.WriteWait = d.WriteWait
	}
	if s.ReadLimit <= 0 {
		s.ReadLimit = d.ReadLimit
	}
	return s
}

// Inbound is a client -> server message.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client is a single websocket connection. Outbound events go through a
// bounded buffer drained by WritePump, so a slow peer never holds up others.
type Client struct {
	ID string

	conn     *websocket.Conn
	send     chan domain.Event
	quit     chan struct{}
	quitOnce sync.Once
	settings Settings
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	studentID string
	final     *domain.Event
}

// NewClient wraps conn. conn may be nil in tests that never start the pumps.
func NewClient(conn *websocket.Conn, settings Settings, logger *zap.Logger) *Client {
	settings = settings.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Client{
		ID:       id,
		conn:     conn,
		send:     make(chan domain.Event, settings.SendBuffer),
		quit:     make(chan struct{}),
		settings: settings,
		logger:   logger.With(zap.String("client_id", id)),
		state:    StateConnected,
	}
}

// Enqueue queues an event without blocking. It reports false when the
// buffer is full or the client is shutting down; the event is then dropped.
func (c *Client) Enqueue(event domain.Event) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StudentID returns the identified student id, or "".
func (c *Client) StudentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.studentID
}

// Close stops the write pump, which closes the connection once pending
// events are flushed.
func (c *Client) Close() {
	c.closeWith(nil)
}

// closeWith is Close with a last event written after the pending ones.
func (c *Client) closeWith(final *domain.Event) {
	c.quitOnce.Do(func() {
		c.mu.Lock()
		c.final = final
		c.mu.Unlock()
		close(c.quit)
	})
}

// ReadLoop reads messages until the connection fails or is closed. Malformed
// frames are skipped.
func (c *Client) ReadLoop(handle func(Inbound)) {
	c.conn.SetReadLimit(c.settings.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("ws read error", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Enqueue(domain.Event{Type: domain.EventError, Payload: ErrorPayload{Message: "invalid message"}})
			continue
		}
		handle(msg)
	}
}

// WritePump owns all writes to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.settings.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			if err := c.write(event); err != nil {
				c.logger.Debug("ws write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			c.flush()
			return
		}
	}
}

func (c *Client) flush() {
drain:
	for {
		select {
		case event := <-c.send:
			if err := c.write(event); err != nil {
				return
			}
		default:
			break drain
		}
	}

	c.mu.Lock()
	final := c.final
	c.mu.Unlock()
	if final != nil {
		if err := c.write(*final); err != nil {
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) write(event domain.Event) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
	return c.conn.WriteJSON(event)
}

// ErrorPayload is sent with domain.EventError.
type ErrorPayload struct {
	Message string `json:"message"`
}
