package events

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is one broadcast frame.
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Websocket event types.
const (
	EventWakeCompleted = "WAKE_COMPLETED"
)

// WebSocketHub fans engine events out to connected UI clients.
type WebSocketHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan WSEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

var (
	hub     *WebSocketHub
	hubOnce sync.Once
)

// GetHub returns the process-wide hub, starting it on first use.
func GetHub() *WebSocketHub {
	hubOnce.Do(func() {
		hub = &WebSocketHub{
			clients:    make(map[*websocket.Conn]bool),
			broadcast:  make(chan WSEvent, 16),
			register:   make(chan *websocket.Conn),
			unregister: make(chan *websocket.Conn),
		}
		go hub.run()
	})
	return hub
}

func (h *WebSocketHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteJSON(event); err != nil {
					log.Warn().Err(err).Msg("websocket write failed, dropping client")
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every connected client.
func Broadcast(eventType string, payload interface{}) {
	GetHub().broadcast <- WSEvent{Type: eventType, Payload: payload}
}

// Register returns the channel new connections are announced on.
func (h *WebSocketHub) Register() chan<- *websocket.Conn { return h.register }

// Unregister returns the channel closed connections are announced on.
func (h *WebSocketHub) Unregister() chan<- *websocket.Conn { return h.unregister }
