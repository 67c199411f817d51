package main

import (
	"log"
	"time"

	"qpms_backend/database"
	"qpms_backend/handlers"
	"qpms_backend/jobs"
	"qpms_backend/notifications"
	"qpms_backend/routes"
	"qpms_backend/services"
	"qpms_backend/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedSuperAdmin()
	notifications.InitEmailService()

	c := cron.New()
	c.AddFunc("0 8 * * *", jobs.SendDueDateReminders)
	c.AddFunc("0 9 * * *", jobs.NotifyOverdueAssignments)
	go c.Start()
	log.Println("✅ Assignment cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Question Paper Portal",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to the Question Paper Portal API",
		})
	})

	// the verification engine and its handlers are built once and injected,
	// never reached through package state
	verificationService := services.NewVerificationService(database.DB)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	archiveHandler := handlers.NewArchiveHandler(verificationService)
	questionHandler := handlers.NewQuestionHandler(database.DB)
	assignmentHandler := handlers.NewAssignmentHandler(database.DB)

	routes.AuthRoutes(app)
	routes.QuestionRoutes(app, questionHandler, assignmentHandler)
	routes.VerificationRoutes(app, verificationHandler, archiveHandler)
	routes.AdminRoutes(app, assignmentHandler)
	routes.UploadRoutes(app)
	routes.FeedRoutes(app)

	go websocket.RunHub()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	err := app.Listen(":8080")
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
