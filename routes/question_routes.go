package routes

import (
	"qpms_backend/handlers"
	"qpms_backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func QuestionRoutes(app *fiber.App, h *handlers.QuestionHandler, a *handlers.AssignmentHandler) {
	api := app.Group("/api/v1")

	faculty := api.Group("/faculty", middleware.Protected(), middleware.FacultyRequired())

	questions := faculty.Group("/questions")
	questions.Post("", h.SubmitQuestion)
	questions.Post("/batch", h.SubmitQuestionBatch)
	questions.Get("", h.ListMyQuestions)
	questions.Put("/:questionId", h.UpdateMyQuestion)
	questions.Post("/:questionId/attachment", h.UploadAttachment)
	questions.Get("/:questionId/attachment", h.DownloadAttachment)

	faculty.Get("/assignments", a.ListMyAssignments)
}
