package websocket

import (
	"github.com/ehcaw/documix/internal/entity"

	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection with the hub and runs its pumps.
func ServeWs(hub *Hub, c *websocket.Conn, scope entity.ScopeKey) {
	client := &Client{Hub: hub, Conn: c, Scope: scope, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
