package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"qpms_backend/models"
	"qpms_backend/utils"
	"qpms_backend/websocket"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// QuestionHandler owns the faculty submission path. It writes question rows
// with status pending; every later transition belongs to the verification
// service.
type QuestionHandler struct {
	DB *gorm.DB
}

func NewQuestionHandler(db *gorm.DB) *QuestionHandler {
	return &QuestionHandler{DB: db}
}

type SubmitQuestionRequest struct {
	SubjectCode    string  `json:"subject_code" validate:"required"`
	SubjectName    string  `json:"subject_name" validate:"required"`
	Semester       int     `json:"semester" validate:"required,gt=0"`
	QuestionNumber int     `json:"question_number" validate:"required,gt=0"`
	QuestionText   string  `json:"question_text" validate:"required"`
	Marks          float64 `json:"marks" validate:"gte=0"`
	CO             string  `json:"co"`
	Level          string  `json:"level"`
	SetName        string  `json:"set_name"`
}

func (h *QuestionHandler) newQuestion(req SubmitQuestionRequest, ident utils.Identity) models.Question {
	return models.Question{
		SubjectCode:    req.SubjectCode,
		SubjectName:    req.SubjectName,
		Semester:       req.Semester,
		QuestionNumber: req.QuestionNumber,
		QuestionText:   req.QuestionText,
		Marks:          req.Marks,
		CO:             req.CO,
		Level:          req.Level,
		SetName:        req.SetName,
		Department:     ident.Department,
		Status:         "pending",
		SubmittedBy:    ident.Email,
	}
}

// markAssignmentSubmitted flips the caller's matching assignment the first
// time a question for that paper lands.
func (h *QuestionHandler) markAssignmentSubmitted(tx *gorm.DB, ident utils.Identity, subjectCode string, semester int) error {
	return tx.Model(&models.Assignment{}).
		Where("faculty_email = ? AND lower(subject_code) = lower(?) AND semester = ? AND status = ?",
			ident.Email, subjectCode, semester, "pending").
		Update("status", "submitted").Error
}

func (h *QuestionHandler) SubmitQuestion(c *fiber.Ctx) error {
	var req SubmitQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ident := utils.CurrentUser(c)
	question := h.newQuestion(req, ident)

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		return h.markAssignmentSubmitted(tx, ident, req.SubjectCode, req.Semester)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": fmt.Sprintf("Question %d already exists for %s semester %d", req.QuestionNumber, req.SubjectCode, req.Semester),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit question"})
	}

	websocket.NotifyPaperEvent(&websocket.PaperEvent{
		Type:        "paper_submitted",
		SubjectCode: question.SubjectCode,
		Semester:    question.Semester,
		Department:  question.Department,
	})

	return c.Status(fiber.StatusCreated).JSON(question)
}

type SubmitBatchRequest struct {
	Questions []SubmitQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

func (h *QuestionHandler) SubmitQuestionBatch(c *fiber.Ctx) error {
	var req SubmitBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ident := utils.CurrentUser(c)
	questions := make([]models.Question, 0, len(req.Questions))
	for _, qr := range req.Questions {
		questions = append(questions, h.newQuestion(qr, ident))
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for i := range questions {
			if err := tx.Create(&questions[i]).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("question %d for %s semester %d: %w",
						questions[i].QuestionNumber, questions[i].SubjectCode, questions[i].Semester, err)
				}
				return err
			}
		}
		return h.markAssignmentSubmitted(tx, ident, questions[0].SubjectCode, questions[0].Semester)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit questions"})
	}

	websocket.NotifyPaperEvent(&websocket.PaperEvent{
		Type:        "paper_submitted",
		SubjectCode: questions[0].SubjectCode,
		Semester:    questions[0].Semester,
		Department:  ident.Department,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Questions submitted successfully",
		"questions": questions,
	})
}

func (h *QuestionHandler) ListMyQuestions(c *fiber.Ctx) error {
	ident := utils.CurrentUser(c)

	var questions []models.Question
	q := h.DB.Where("submitted_by = ?", ident.Email)
	if code := c.Query("subject_code"); code != "" {
		q = q.Where("lower(subject_code) = lower(?)", code)
	}
	if sem := c.QueryInt("semester"); sem > 0 {
		q = q.Where("semester = ?", sem)
	}
	if err := q.Order("subject_code asc, question_number asc").Find(&questions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(questions)
}

type UpdateQuestionRequest struct {
	QuestionText string  `json:"question_text" validate:"required"`
	Marks        float64 `json:"marks" validate:"gte=0"`
	CO           string  `json:"co"`
	Level        string  `json:"level"`
}

// UpdateMyQuestion lets the submitter rework a question while it is still
// pending. Decided or archived rows are read-only through this path.
func (h *QuestionHandler) UpdateMyQuestion(c *fiber.Ctx) error {
	ident := utils.CurrentUser(c)
	questionID := c.Params("questionId")

	var question models.Question
	if err := h.DB.First(&question, "id = ? AND submitted_by = ?", questionID, ident.Email).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	if question.Status != "pending" && question.Status != "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Question has already been decided and can no longer be edited"})
	}

	var req UpdateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	question.QuestionText = req.QuestionText
	question.Marks = req.Marks
	question.CO = req.CO
	question.Level = req.Level
	if err := h.DB.Save(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update question"})
	}

	return c.JSON(question)
}

func (h *QuestionHandler) UploadAttachment(c *fiber.Ctx) error {
	ident := utils.CurrentUser(c)
	questionID := c.Params("questionId")

	var question models.Question
	if err := h.DB.First(&question, "id = ? AND submitted_by = ?", questionID, ident.Email).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}

	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "attachment file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open uploaded file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read uploaded file"})
	}

	name := fileHeader.Filename
	contentType := fileHeader.Header.Get("Content-Type")
	question.AttachmentName = &name
	question.AttachmentType = &contentType
	question.AttachmentData = data
	if err := h.DB.Save(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save attachment"})
	}

	return c.JSON(fiber.Map{
		"message":         "Attachment uploaded successfully",
		"attachment_name": name,
		"size":            strconv.FormatInt(fileHeader.Size, 10),
	})
}

func (h *QuestionHandler) DownloadAttachment(c *fiber.Ctx) error {
	questionID := c.Params("questionId")

	var question models.Question
	if err := h.DB.First(&question, "id = ?", questionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	if question.AttachmentName == nil || len(question.AttachmentData) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question has no attachment"})
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+*question.AttachmentName+`"`)
	if question.AttachmentType != nil {
		c.Set(fiber.HeaderContentType, *question.AttachmentType)
	}
	return c.Send(question.AttachmentData)
}
