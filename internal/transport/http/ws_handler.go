package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"live-poll-service/internal/domain"
	"live-poll-service/internal/realtime"
)

// Client -> server message types.
const (
	msgJoinAsTeacher = "joinAsTeacher"
	msgJoinAsStudent = "joinAsStudent"
	msgChat          = "chatMessage"
	msgKick          = "kickStudent"
)

type joinStudentPayload struct {
	StudentID string `json:"studentId"`
}

type chatPayload struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type kickPayload struct {
	StudentID string `json:"studentId"`
}

type identifiedPayload struct {
	Role      realtime.Role `json:"role"`
	StudentID string        `json:"studentId,omitempty"`
}

type WSHandler struct {
	session  Session
	hub      *realtime.Hub
	settings realtime.Settings
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(session Session, hub *realtime.Hub, settings realtime.Settings, origins []string, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		session:  session,
		hub:      hub,
		settings: settings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(origins, r.Header.Get("Origin"))
			},
		},
		logger: logger,
	}
}

// ServeWS upgrades the request and runs the connection until it closes.
// The new connection receives the current status and chat history before
// any broadcast.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	client := realtime.NewClient(conn, h.settings, h.logger)
	h.session.Attach(func(status domain.Status, history []domain.ChatMessage) {
		client.Enqueue(domain.Event{Type: domain.EventPollStatus, Payload: status})
		client.Enqueue(domain.Event{Type: domain.EventChatHistory, Payload: history})
		h.hub.Register(client)
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		client.WritePump()
	}()

	client.ReadLoop(func(msg realtime.Inbound) {
		h.dispatch(ctx, client, msg)
	})

	// Teardown, voluntary or forced, is the only path that removes a
	// connected student from the roster.
	if studentID := h.hub.Unregister(client); studentID != "" {
		h.session.RemoveStudent(ctx, studentID)
	}
	client.Close()
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, client *realtime.Client, msg realtime.Inbound) {
	switch msg.Type {
	case msgJoinAsTeacher:
		if err := h.hub.IdentifyTeacher(client); err != nil {
			sendError(client, err.Error())
			return
		}
		client.Enqueue(domain.Event{Type: domain.EventIdentified, Payload: identifiedPayload{Role: realtime.RoleTeacher}})

	case msgJoinAsStudent:
		var payload joinStudentPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.StudentID == "" {
			sendError(client, "invalid joinAsStudent payload")
			return
		}
		if _, ok := h.session.Student(ctx, payload.StudentID); !ok {
			sendError(client, domain.ErrUnknownStudent.Error())
			return
		}
		if err := h.hub.IdentifyStudent(client, payload.StudentID); err != nil {
			sendError(client, err.Error())
			return
		}
		client.Enqueue(domain.Event{Type: domain.EventIdentified, Payload: identifiedPayload{
			Role:      realtime.RoleStudent,
			StudentID: payload.StudentID,
		}})

	case msgChat:
		var payload chatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			sendError(client, "invalid chatMessage payload")
			return
		}
		if _, err := h.session.PostChat(ctx, h.senderName(ctx, client, payload.Sender), payload.Message); err != nil {
			sendError(client, err.Error())
		}

	case msgKick:
		var payload kickPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.StudentID == "" {
			sendError(client, "invalid kickStudent payload")
			return
		}
		if h.hub.Kick(payload.StudentID) == 0 {
			sendError(client, "student not connected")
		}

	default:
		sendError(client, "unsupported message type")
	}
}

func (h *WSHandler) senderName(ctx context.Context, client *realtime.Client, given string) string {
	if name := strings.TrimSpace(given); name != "" {
		return name
	}
	if id := client.StudentID(); id != "" {
		if student, ok := h.session.Student(ctx, id); ok {
			return student.Name
		}
	}
	if client.State() == realtime.StateTeacher {
		return "Teacher"
	}
	return "Anonymous"
}

func sendError(client *realtime.Client, msg string) {
	client.Enqueue(domain.Event{Type: domain.EventError, Payload: realtime.ErrorPayload{Message: msg}})
}
