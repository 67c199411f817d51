package handlers

import (
	"fmt"
	"time"

	"qpms_backend/models"
	"qpms_backend/notifications"
	"qpms_backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AssignmentHandler struct {
	DB *gorm.DB
}

func NewAssignmentHandler(db *gorm.DB) *AssignmentHandler {
	return &AssignmentHandler{DB: db}
}

type CreateAssignmentRequest struct {
	FacultyEmail string    `json:"faculty_email" validate:"required,email"`
	SubjectCode  string    `json:"subject_code" validate:"required"`
	SubjectName  string    `json:"subject_name" validate:"required"`
	Semester     int       `json:"semester" validate:"required,gt=0"`
	DueDate      time.Time `json:"due_date" validate:"required"`
}

type AssignmentResponse struct {
	models.Assignment
	// overdue is derived, never stored
	EffectiveStatus string `json:"effective_status"`
}

// EffectiveAssignmentStatus derives the status shown to callers: a pending
// assignment past its due date reads as overdue.
func EffectiveAssignmentStatus(a models.Assignment, now time.Time) string {
	if a.Status == "pending" && now.After(a.DueDate) {
		return "overdue"
	}
	return a.Status
}

func assignmentResponses(assignments []models.Assignment) []AssignmentResponse {
	now := time.Now()
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, AssignmentResponse{
			Assignment:      a,
			EffectiveStatus: EffectiveAssignmentStatus(a, now),
		})
	}
	return out
}

func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var faculty models.User
	if err := h.DB.Where("email = ? AND role = ?", req.FacultyEmail, "faculty").First(&faculty).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No faculty account found for that email"})
	}

	ident := utils.CurrentUser(c)
	assignment := models.Assignment{
		FacultyEmail: req.FacultyEmail,
		FacultyName:  faculty.FullName,
		SubjectCode:  req.SubjectCode,
		SubjectName:  req.SubjectName,
		Semester:     req.Semester,
		DueDate:      req.DueDate,
		Status:       "pending",
		AssignedBy:   ident.Email,
	}
	if err := h.DB.Create(&assignment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create assignment"})
	}

	emailBody := fmt.Sprintf(
		"<h1>New Paper Assignment</h1><p>You have been assigned the question paper for <b>%s (%s)</b>, semester %d.</p><p><b>Due date:</b> %s</p>",
		req.SubjectName, req.SubjectCode, req.Semester, req.DueDate.Format("02 Jan 2006"),
	)
	go notifications.SendEmail(faculty.FullName, faculty.Email, "New Question Paper Assignment", emailBody)

	return c.Status(fiber.StatusCreated).JSON(AssignmentResponse{
		Assignment:      assignment,
		EffectiveStatus: EffectiveAssignmentStatus(assignment, time.Now()),
	})
}

func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	var assignments []models.Assignment
	q := h.DB.Order("due_date asc")
	if email := c.Query("faculty_email"); email != "" {
		q = q.Where("faculty_email = ?", email)
	}
	if err := q.Find(&assignments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(assignmentResponses(assignments))
}

func (h *AssignmentHandler) ListMyAssignments(c *fiber.Ctx) error {
	ident := utils.CurrentUser(c)

	var assignments []models.Assignment
	if err := h.DB.Where("faculty_email = ?", ident.Email).Order("due_date asc").Find(&assignments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(assignmentResponses(assignments))
}

func (h *AssignmentHandler) DeleteAssignment(c *fiber.Ctx) error {
	result := h.DB.Delete(&models.Assignment{}, "id = ?", c.Params("assignmentId"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete assignment"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assignment not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
