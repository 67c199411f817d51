package routes

import (
	"qpms_backend/handlers"
	"qpms_backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func VerificationRoutes(app *fiber.App, h *handlers.VerificationHandler, ar *handlers.ArchiveHandler) {
	api := app.Group("/api/v1")

	papers := api.Group("/papers", middleware.Protected(), middleware.VerifierRequired())
	papers.Get("/review", h.ListPapersForReview)
	papers.Get("/approved", h.ListApprovedPapers)
	papers.Get("/rejected", h.ListRejectedPapers)
	papers.Get("/corrected", h.ListCorrectedPapers)
	papers.Post("/decision", h.ApplyDecision)
	papers.Post("/approve-corrected", h.ApproveCorrected)
	papers.Post("/reject", h.RejectPaper)
	papers.Get("/:subjectCode/:semester", h.GetPaper)
	papers.Get("/:subjectCode/:semester/export", h.ExportApprovedPaper)

	archive := api.Group("/archive", middleware.Protected(), middleware.AdminRequired())
	archive.Get("/papers", ar.ListArchivedPapers)
	archive.Post("/papers/:subjectCode/:semester", ar.ArchivePaper)
	archive.Post("/papers/:subjectCode/:semester/restore", ar.RestorePaper)
}
