package handlers

import (
	"qpms_backend/services"
	"qpms_backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ArchiveHandler struct {
	Service *services.VerificationService
}

func NewArchiveHandler(svc *services.VerificationService) *ArchiveHandler {
	return &ArchiveHandler{Service: svc}
}

func (h *ArchiveHandler) ArchivePaper(c *fiber.Ctx) error {
	semester, err := parseSemester(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "semester must be an integer"})
	}

	ident := utils.CurrentUser(c)
	if err := h.Service.ArchivePaper(c.Params("subjectCode"), semester, ident.Email); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Paper archived successfully"})
}

func (h *ArchiveHandler) RestorePaper(c *fiber.Ctx) error {
	semester, err := parseSemester(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "semester must be an integer"})
	}

	if err := h.Service.RestorePaper(c.Params("subjectCode"), semester); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Paper restored successfully"})
}

func (h *ArchiveHandler) ListArchivedPapers(c *fiber.Ctx) error {
	papers, err := h.Service.ListArchivedPapers(c.Query("department"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(papers)
}
