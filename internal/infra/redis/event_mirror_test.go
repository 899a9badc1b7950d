package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"live-poll-service/internal/domain"
)

func newMirror(t *testing.T) (*EventMirror, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEventMirror(client, "test", time.Minute, 16, nil), mr, client
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

func TestEventMirrorPublishesAndKeepsChat(t *testing.T) {
	mirror, mr, client := newMirror(t)

	sub := client.Subscribe(context.Background(), mirror.EventsChannel())
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	messages := sub.Channel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mirror.Run(ctx) }()

	waitFor(t, func() bool { return mr.Exists("test:session") }, "liveness key")

	mirror.Broadcast(domain.Event{
		Type:    domain.EventChatMessage,
		Payload: domain.ChatMessage{ID: "m1", Sender: "Teacher", Body: "hello"},
	})

	select {
	case msg := <-messages:
		var env mirrored
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if env.Type != domain.EventChatMessage {
			t.Fatalf("expected chat event, got %q", env.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message published")
	}

	waitFor(t, func() bool {
		list, err := mr.List("test:chat")
		return err == nil && len(list) == 1
	}, "chat list")

	list, _ := mr.List("test:chat")
	var chat domain.ChatMessage
	if err := json.Unmarshal([]byte(list[0]), &chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if chat.Body != "hello" || chat.Sender != "Teacher" {
		t.Fatalf("unexpected chat entry %+v", chat)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if mr.Exists("test:session") {
		t.Fatalf("expected liveness key removed on shutdown")
	}
}

func TestEventMirrorSkipsChatListForOtherEvents(t *testing.T) {
	mirror, mr, _ := newMirror(t)

	if err := mirror.publish(context.Background(), domain.Event{Type: domain.EventNewPoll, Payload: domain.NewPollPayload{PollID: "p1"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if mr.Exists("test:chat") {
		t.Fatalf("non-chat events must not touch the chat list")
	}
}

func TestEventMirrorDropsWhenQueueFull(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	mirror := NewEventMirror(client, "", 0, 1, nil)
	mirror.Broadcast(domain.Event{Type: domain.EventNewPoll})
	mirror.Broadcast(domain.Event{Type: domain.EventNewPoll})
	if len(mirror.queue) != 1 {
		t.Fatalf("expected one queued event, got %d", len(mirror.queue))
	}
	if mirror.SessionKey() != "livepoll:session" {
		t.Fatalf("expected default prefix, got %q", mirror.SessionKey())
	}
}
