package ws

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/reject"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/ws"
	"github.com/kollektive-hackathon/fcl-gateway/internal/session"
	"github.com/rs/zerolog/log"
)

type wsHandler struct {
	notificationHub *ws.WebSocketNotificationHub
	sessions        *session.Store
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RegisterRoutes exposes the view events of a session. Browsers cannot send
// an Authorization header on upgrade, so the session id is the credential.
func RegisterRoutes(rg *gin.RouterGroup, hub *ws.WebSocketNotificationHub, sessions *session.Store) {
	handler := wsHandler{
		notificationHub: hub,
		sessions:        sessions,
	}

	routes := rg.Group("/ws")
	routes.GET("/session/:id", handler.serveWs)
}

func (wsh *wsHandler) serveWs(c *gin.Context) {
	sessionId := c.Param("id")
	s, ok := wsh.sessions.Get(sessionId)
	if !ok {
		c.JSON(http.StatusNotFound, reject.NotFoundProblem())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg(fmt.Sprintf("Cannot upgrade connection for session %s", sessionId))
		return
	}
	defer conn.Close()

	topic := ws.SessionTopic(sessionId)
	wsh.notificationHub.RegisterListener(topic, conn)
	defer wsh.notificationHub.UnregisterListener(topic, conn)

	for {
		var event ws.ViewEvent
		err := conn.ReadJSON(&event)
		if err != nil {
			log.Warn().Err(err).Msg("Error reading ws message")
			return
		}
		// The user closed the wallet view.
		if event.Type == ws.EventViewClosed {
			s.Cancel()
		}
	}
}
