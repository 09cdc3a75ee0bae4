package monitor

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
	"github.com/gorilla/websocket"
)

func TestHub_New(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}))
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
}

func TestHub_RunStopsOnContextCancel(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestHub_BroadcastWithNoClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go hub.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	hub.Broadcast(Event{Type: "test", Data: map[string]interface{}{"message": "hello"}})
	time.Sleep(20 * time.Millisecond)
}

func TestHub_HandlerDeliversBroadcastToClient(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go hub.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	server := httptest.NewServer(hub.Handler())
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d, want 1", got)
	}

	hub.Broadcast(Event{Type: "call_started", Data: map[string]interface{}{"stream_id": 42}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if !strings.Contains(string(msg), "call_started") {
		t.Errorf("expected broadcast message to contain call_started, got %s", msg)
	}
}

func TestHub_VoiceCallStartedBroadcastsEvent(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go hub.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	server := httptest.NewServer(hub.Handler())
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	time.Sleep(20 * time.Millisecond)

	hub.VoiceCallStarted(dmrpacket.TS1, 42, 3100001, 91)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if !strings.Contains(string(msg), "call_started") || !strings.Contains(string(msg), "3100001") {
		t.Errorf("unexpected broadcast payload: %s", msg)
	}
}

func TestHub_VoiceCallEndedBroadcastsEvent(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go hub.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	server := httptest.NewServer(hub.Handler())
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	time.Sleep(20 * time.Millisecond)

	hub.VoiceCallEnded(dmrpacket.TS2, 42)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if !strings.Contains(string(msg), "call_ended") {
		t.Errorf("unexpected broadcast payload: %s", msg)
	}
}

func TestEvent_Marshal(t *testing.T) {
	event := Event{
		Type:      "call_started",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"stream_id": 42, "src_id": 3100001},
	}
	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("marshaled data is empty")
	}
	if !strings.Contains(string(data), "call_started") {
		t.Error("marshaled data doesn't contain event type")
	}
}
