package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ambulancewatch/internal/logger"

	"github.com/gorilla/websocket"
	"go.viam.com/test"
)

func startHub(t *testing.T) (*HubService, *httptest.Server, context.CancelFunc) {
	t.Helper()
	return startHubWithTimeouts(t, pongWait, pongWait*9/10)
}

func startHubWithTimeouts(t *testing.T, wait, ping time.Duration) (*HubService, *httptest.Server, context.CancelFunc) {
	t.Helper()

	hub := NewHubService(logger.NewNop())
	hub.pongWait, hub.pingPeriod = wait, ping
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = hub.Serve(conn)
	}))
	t.Cleanup(srv.Close)
	return hub, srv, cancel
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub, srv, cancel := startHub(t)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()

	waitForClients(t, hub, 1)

	err = hub.BroadcastJSON(context.Background(), map[string]string{"label": "ambulance"})
	test.That(t, err, test.ShouldBeNil)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(msg), test.ShouldEqual, `{"label":"ambulance"}`)
}

func TestHubStopped(t *testing.T) {
	hub, _, cancel := startHub(t)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		err := hub.Broadcast(context.Background(), []byte("x"))
		if err != nil {
			break
		}
		// the buffered channel may still accept a few messages before Run notices
		if time.Now().After(deadline) {
			t.Fatal("broadcast kept succeeding after the hub stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}
	test.That(t, hub.GetClientCount(), test.ShouldEqual, 0)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubKeepsIdleViewerAlive(t *testing.T) {
	hub, srv, cancel := startHubWithTimeouts(t, 150*time.Millisecond, 50*time.Millisecond)
	defer cancel()

	conn := dial(t, srv)
	var pings atomic.Int32
	conn.SetPingHandler(func(data string) error {
		pings.Add(1)
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	// Reading is what answers pings; nothing else is ever sent by the viewer
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	waitForClients(t, hub, 1)
	time.Sleep(500 * time.Millisecond)

	test.That(t, hub.GetClientCount(), test.ShouldEqual, 1)
	test.That(t, pings.Load() >= 2, test.ShouldBeTrue)
}

func TestHubDropsViewerWithoutPongs(t *testing.T) {
	hub, srv, cancel := startHubWithTimeouts(t, 150*time.Millisecond, time.Hour)
	defer cancel()

	// Never reads, so never answers pings
	dial(t, srv)
	waitForClients(t, hub, 1)
	waitForClients(t, hub, 0)
}
