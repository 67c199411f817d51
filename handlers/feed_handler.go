package handlers

import (
	ws "qpms_backend/websocket"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WebsocketUpgrade rejects plain HTTP requests on the feed route and stashes
// the caller's identity before the connection is hijacked.
func WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// ReviewFeed keeps the connection open and forwards paper events until the
// client disconnects.
func ReviewFeed() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, err := uuid.Parse(conn.Query("user_id"))
		if err != nil {
			conn.Close()
			return
		}

		client := &ws.Client{
			UserID:     userID,
			Role:       conn.Query("role"),
			Department: conn.Query("department"),
			Conn:       conn,
		}
		ws.Register <- client
		defer func() {
			ws.Unregister <- client
		}()

		// reads are discarded; the feed is push-only, but reading is what
		// detects the peer going away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
