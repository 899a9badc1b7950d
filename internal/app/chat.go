package app

import (
	"strings"
	"time"

	"live-poll-service/internal/domain"
)

// chatLog is append-only and lives as long as the process.
type chatLog struct {
	messages []domain.ChatMessage
}

func (c *chatLog) append(id, sender, body string, at time.Time) (domain.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}
	msg := domain.ChatMessage{ID: id, Sender: sender, Body: body, Timestamp: at}
	c.messages = append(c.messages, msg)
	return msg, nil
}

func (c *chatLog) history() []domain.ChatMessage {
	return append([]domain.ChatMessage{}, c.messages...)
}
