package services

import (
	"net/http"

	"github.com/bellapacxx/raffle-backend/utils/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the connection and subscribes it to raffle events.
func HandleWebSocket(c *gin.Context) {
	if LiveHub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "hub not ready"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("[WS] upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  LiveHub,
		conn: conn,
		send: make(chan []byte, 32),
	}
	LiveHub.addClient(client)
}
