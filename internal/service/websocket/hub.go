package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ambulancewatch/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	writeWait = 5 * time.Second
	pongWait  = 60 * time.Second
	readLimit = 512
)

// HubService keeps the set of connected alert viewers and pushes messages to them.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	logger     *logger.Logger

	// Viewers that miss a pong for pongWait are dropped
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
		pongWait:   pongWait,
		pingPeriod: pongWait * 9 / 10,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *HubService) Run(ctx context.Context) {
	defer h.shutdown()

	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					h.logger.Debug("Ping failed, dropping viewer: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Alert viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Alert viewer disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				_ = client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) shutdown() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// Serve registers client and reads from it until the viewer goes away.
// Viewers only answer pings; every pong pushes the read deadline forward.
func (h *HubService) Serve(client *websocket.Conn) error {
	client.SetReadLimit(readLimit)
	_ = client.SetReadDeadline(time.Now().Add(h.pongWait))
	client.SetPongHandler(func(string) error {
		return client.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	h.Register(client)
	defer h.Unregister(client)

	for {
		if _, _, err := client.ReadMessage(); err != nil {
			return err
		}
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes and closes a client.
func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for every connected client.
func (h *HubService) Broadcast(ctx context.Context, message []byte) error {
	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return errors.New("websocket hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BroadcastJSON marshals v and broadcasts it.
func (h *HubService) BroadcastJSON(ctx context.Context, v interface{}) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal websocket message")
	}
	return h.Broadcast(ctx, msg)
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
