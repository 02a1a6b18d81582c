package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/ws"
)

// RegisterStockWS registra la ruta websocket de difusión de cambios de stock.
// Los clientes solo escuchan; el loop de lectura existe para detectar el cierre.
func RegisterStockWS(app *fiber.App, hub *ws.Hub) {
	app.Use("/ws/stock", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/stock", websocket.New(func(conn *websocket.Conn) {
		hub.Register <- conn
		defer func() { hub.Unregister <- conn }()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
