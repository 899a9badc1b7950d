package realtime

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"live-poll-service/internal/domain"
)

var (
	// ErrAlreadyIdentified is returned when a connection identifies twice.
	ErrAlreadyIdentified = errors.New("connection already identified")
	// ErrNotConnected is returned for clients that are not registered.
	ErrNotConnected = errors.New("connection not registered")
)

// Hub is the connection registry. It keeps an explicit student id ->
// connections index so kicks never scan every connection.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	byStudent map[string]map[*Client]struct{}
	dropped   atomic.Int64
	logger    *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[*Client]struct{}),
		byStudent: make(map[string]map[*Client]struct{}),
		logger:    logger,
	}
}

// Register adds c to the broadcast set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.Int("connections", count))
}

// Unregister removes c and moves it to StateDisconnected. It returns the
// student id c was identified as, and "" if none or if c was already gone.
func (h *Hub) Unregister(c *Client) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return ""
	}
	delete(h.clients, c)

	c.mu.Lock()
	studentID := c.studentID
	c.state = StateDisconnected
	c.mu.Unlock()

	if studentID != "" {
		if set, ok := h.byStudent[studentID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.byStudent, studentID)
			}
		}
	}
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("student_id", studentID))
	return studentID
}

// IdentifyTeacher moves c from Connected to teacher.
func (h *Hub) IdentifyTeacher(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkIdentifiableLocked(c); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = StateTeacher
	c.mu.Unlock()
	return nil
}

// IdentifyStudent binds c to studentID. The caller checks the roster.
func (h *Hub) IdentifyStudent(c *Client, studentID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkIdentifiableLocked(c); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = StateStudent
	c.studentID = studentID
	c.mu.Unlock()

	set, ok := h.byStudent[studentID]
	if !ok {
		set = make(map[*Client]struct{})
		h.byStudent[studentID] = set
	}
	set[c] = struct{}{}
	return nil
}

func (h *Hub) checkIdentifiableLocked(c *Client) error {
	if _, ok := h.clients[c]; !ok {
		return ErrNotConnected
	}
	if c.State() != StateConnected {
		return ErrAlreadyIdentified
	}
	return nil
}

// Broadcast enqueues event on every connection. A connection whose buffer is
// full misses the event; nothing is retried.
func (h *Hub) Broadcast(event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.Enqueue(event) {
			h.dropped.Add(1)
			h.logger.Warn("dropping event for slow client",
				zap.String("client_id", c.ID), zap.String("event", event.Type))
		}
	}
}

// Kick sends Kicked to every connection of studentID and closes them. The
// roster removal happens when each connection tears down. It returns the
// number of connections kicked.
func (h *Hub) Kick(studentID string) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.byStudent[studentID]))
	for c := range h.byStudent[studentID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.closeWith(&domain.Event{Type: domain.EventKicked})
	}
	if len(targets) > 0 {
		h.logger.Info("student kicked", zap.String("student_id", studentID), zap.Int("connections", len(targets)))
	}
	return len(targets)
}

// Connections returns the number of registered connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many per-connection deliveries were skipped.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
