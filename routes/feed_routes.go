package routes

import (
	"qpms_backend/handlers"

	"github.com/gofiber/fiber/v2"
)

func FeedRoutes(app *fiber.App) {
	app.Use("/ws", handlers.WebsocketUpgrade)
	app.Get("/ws/review-feed", handlers.ReviewFeed())
}
