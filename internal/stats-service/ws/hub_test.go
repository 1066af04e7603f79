package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var m map[string]any
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestHubSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	alice := dial(t, srv)
	defer alice.Close()
	bob := dial(t, srv)
	defer bob.Close()

	if err := alice.WriteJSON(ClientMsg{Type: "subscribe", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if m := readType(t, alice); m["type"] != "subscribed" || m["userId"] != "u1" {
		t.Fatalf("ack = %v", m)
	}
	if err := bob.WriteJSON(ClientMsg{Type: "subscribe", UserID: "u2"}); err != nil {
		t.Fatal(err)
	}
	readType(t, bob)

	if hub.Subscribers("u1") != 1 || hub.Subscribers("u2") != 1 {
		t.Fatalf("subscribers = %d/%d", hub.Subscribers("u1"), hub.Subscribers("u2"))
	}

	hub.Broadcast(StatsUpdate{UserID: "u1", Event: "wager_tracked", WagerID: "w1"})
	m := readType(t, alice)
	if m["type"] != "stats_update" || m["userId"] != "u1" || m["wagerId"] != "w1" {
		t.Errorf("update = %v", m)
	}

	// bob não recebe o update de u1; o próximo frame dele é o pong
	if err := bob.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	if m := readType(t, bob); m["type"] != "pong" {
		t.Errorf("bob got %v, want pong", m)
	}
}

func TestHubSubscribeRequiresUser(t *testing.T) {
	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe"}); err != nil {
		t.Fatal(err)
	}
	if m := readType(t, conn); m["type"] != "error" {
		t.Errorf("got %v, want error", m)
	}
}

func TestHubDropsOnDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	readType(t, conn)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers("u1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not dropped after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
