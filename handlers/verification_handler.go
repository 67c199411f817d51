package handlers

import (
	"errors"
	"strconv"

	"qpms_backend/models"
	"qpms_backend/services"
	"qpms_backend/utils"
	"qpms_backend/websocket"

	"github.com/gofiber/fiber/v2"
)

// VerificationHandler exposes the verification engine over HTTP. One
// implementation serves every verifier role; the caller's department claim
// scopes the review queue.
type VerificationHandler struct {
	Service *services.VerificationService
}

func NewVerificationHandler(svc *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{Service: svc}
}

func parseSemester(c *fiber.Ctx) (int, error) {
	return strconv.Atoi(c.Params("semester"))
}

func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrPaperNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNoDecisions),
		errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrBadFinalStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// ListPapersForReview returns the undecided papers of the verifier's
// department, grouped paper-by-paper.
func (h *VerificationHandler) ListPapersForReview(c *fiber.Ctx) error {
	ident := utils.CurrentUser(c)

	department := c.Query("department", ident.Department)
	semester := c.QueryInt("semester")

	papers, err := h.Service.ListPapersForReview(department, semester)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(papers)
}

func (h *VerificationHandler) GetPaper(c *fiber.Ctx) error {
	semester, err := parseSemester(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "semester must be an integer"})
	}

	paper, err := h.Service.GetPaper(c.Params("subjectCode"), semester)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(paper)
}

type ApplyDecisionRequest struct {
	SubjectCode string                      `json:"subject_code" validate:"required"`
	Semester    int                         `json:"semester" validate:"required,gt=0"`
	Questions   []services.QuestionDecision `json:"questions" validate:"required,min=1,dive"`
	FinalStatus *string                     `json:"final_status,omitempty" validate:"omitempty,oneof=approved rejected"`
}

func (h *VerificationHandler) ApplyDecision(c *fiber.Ctx) error {
	var req ApplyDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ident := utils.CurrentUser(c)
	if err := h.Service.ApplyDecision(req.SubjectCode, req.Semester, req.Questions, req.FinalStatus, ident.Email); err != nil {
		return serviceError(c, err)
	}

	websocket.NotifyPaperEvent(&websocket.PaperEvent{
		Type:        "paper_decided",
		SubjectCode: req.SubjectCode,
		Semester:    req.Semester,
		Department:  ident.Department,
	})

	return c.JSON(fiber.Map{"message": "Decision applied successfully"})
}

type ApproveCorrectedRequest struct {
	SubjectCode        string                            `json:"subject_code" validate:"required"`
	Semester           int                               `json:"semester" validate:"required,gt=0"`
	CorrectedQuestions []services.CorrectedQuestionInput `json:"corrected_questions" validate:"required,min=1"`
	VerifierRemarks    string                            `json:"verifier_remarks"`
}

func (h *VerificationHandler) ApproveCorrected(c *fiber.Ctx) error {
	var req ApproveCorrectedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ident := utils.CurrentUser(c)
	if err := h.Service.ApproveCorrected(req.SubjectCode, req.Semester, req.CorrectedQuestions, req.VerifierRemarks, ident.Email); err != nil {
		return serviceError(c, err)
	}

	websocket.NotifyPaperEvent(&websocket.PaperEvent{
		Type:        "paper_decided",
		SubjectCode: req.SubjectCode,
		Semester:    req.Semester,
		Department:  ident.Department,
	})

	return c.JSON(fiber.Map{"message": "Corrected questions approved successfully"})
}

type RejectPaperRequest struct {
	SubjectCode string `json:"subject_code" validate:"required"`
	Semester    int    `json:"semester" validate:"required,gt=0"`
	Remarks     string `json:"remarks"`
}

func (h *VerificationHandler) RejectPaper(c *fiber.Ctx) error {
	var req RejectPaperRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ident := utils.CurrentUser(c)
	if err := h.Service.RejectPaper(req.SubjectCode, req.Semester, req.Remarks, ident.Email); err != nil {
		return serviceError(c, err)
	}

	websocket.NotifyPaperEvent(&websocket.PaperEvent{
		Type:        "paper_decided",
		SubjectCode: req.SubjectCode,
		Semester:    req.Semester,
		Department:  ident.Department,
	})

	return c.JSON(fiber.Map{"message": "Paper rejected successfully"})
}

func (h *VerificationHandler) ListApprovedPapers(c *fiber.Ctx) error {
	papers, err := h.Service.ListDecidedPapers("approved", c.Query("department"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(papers)
}

func (h *VerificationHandler) ListRejectedPapers(c *fiber.Ctx) error {
	papers, err := h.Service.ListDecidedPapers("rejected", c.Query("department"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(papers)
}

// ExportApprovedPaper renders the approved snapshot of a paper to PDF and
// returns the uploaded document URL.
func (h *VerificationHandler) ExportApprovedPaper(c *fiber.Ctx) error {
	semester, err := parseSemester(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "semester must be an integer"})
	}

	url, err := services.ExportApprovedPaperPDF(c.Params("subjectCode"), semester)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (h *VerificationHandler) ListCorrectedPapers(c *fiber.Ctx) error {
	var records []models.CorrectedPaper
	q := h.Service.DB.Order("created_at desc")
	if department := c.Query("department"); department != "" {
		q = q.Where("department = ?", department)
	}
	if err := q.Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(records)
}
