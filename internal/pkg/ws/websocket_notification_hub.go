package ws

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrNoListener = errors.New("no listener registered for topic")

type WebSocketNotificationHub struct {
	registrationMutex sync.Mutex
	listeners         map[string][]*websocket.Conn
}

func NewNotificationHub() *WebSocketNotificationHub {
	return &WebSocketNotificationHub{
		listeners: make(map[string][]*websocket.Conn),
	}
}

func SessionTopic(sessionId string) string {
	return "session/" + sessionId
}

func (hub *WebSocketNotificationHub) RegisterListener(topic string, conn *websocket.Conn) {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()

	hub.listeners[topic] = append(hub.listeners[topic], conn)
}

func (hub *WebSocketNotificationHub) UnregisterListener(topic string, conn *websocket.Conn) {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()

	remaining := hub.listeners[topic][:0]
	for _, listener := range hub.listeners[topic] {
		if listener != conn {
			remaining = append(remaining, listener)
		}
	}

	if len(remaining) == 0 {
		delete(hub.listeners, topic)
		return
	}
	hub.listeners[topic] = remaining
}

// Publish writes event to every listener of targetTopic and reports how many
// received it.
func (hub *WebSocketNotificationHub) Publish(targetTopic string, event any) int {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()

	delivered := 0
	for _, listener := range hub.listeners[targetTopic] {
		if err := listener.WriteJSON(event); err != nil {
			log.Warn().Err(err).Msg(fmt.Sprintf("Cannot notify listener of %s", targetTopic))
			continue
		}
		delivered++
	}
	return delivered
}
