package handlers

import (
	"errors"

	"qpms_backend/database"
	"qpms_backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func GetAllUsers(c *fiber.Ctx) error {
	var users []models.User
	q := database.DB.Order("created_at desc")
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if department := c.Query("department"); department != "" {
		q = q.Where("department = ?", department)
	}
	if err := q.Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(users)
}

func ToggleUserStatus(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	user.IsActive = !user.IsActive
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user status"})
	}
	return c.JSON(fiber.Map{"message": "User status updated", "is_active": user.IsActive})
}

func AdminDeleteUser(c *fiber.Ctx) error {
	result := database.DB.Delete(&models.User{}, "id = ?", c.Params("userId"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type DepartmentRequest struct {
	Name string `json:"name" validate:"required,min=2"`
	Code string `json:"code" validate:"required,min=2"`
}

func CreateDepartment(c *fiber.Ctx) error {
	var req DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	department := models.Department{Name: req.Name, Code: req.Code}
	if err := database.DB.Create(&department).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Department already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create department"})
	}
	return c.Status(fiber.StatusCreated).JSON(department)
}

func ListDepartments(c *fiber.Ctx) error {
	var departments []models.Department
	database.DB.Order("name asc").Find(&departments)
	return c.JSON(departments)
}

func DeleteDepartment(c *fiber.Ctx) error {
	result := database.DB.Delete(&models.Department{}, "id = ?", c.Params("departmentId"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete department"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type SubjectRequest struct {
	SubjectCode string `json:"subject_code" validate:"required"`
	SubjectName string `json:"subject_name" validate:"required"`
	Department  string `json:"department" validate:"required"`
	Semester    int    `json:"semester" validate:"required,gt=0"`
}

func CreateSubject(c *fiber.Ctx) error {
	var req SubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	subject := models.Subject{
		SubjectCode: req.SubjectCode,
		SubjectName: req.SubjectName,
		Department:  req.Department,
		Semester:    req.Semester,
	}
	if err := database.DB.Create(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Subject code already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create subject"})
	}
	return c.Status(fiber.StatusCreated).JSON(subject)
}

func ListSubjects(c *fiber.Ctx) error {
	var subjects []models.Subject
	q := database.DB.Order("subject_code asc")
	if department := c.Query("department"); department != "" {
		q = q.Where("department = ?", department)
	}
	if err := q.Find(&subjects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(subjects)
}

func UpdateSubject(c *fiber.Ctx) error {
	var subject models.Subject
	if err := database.DB.First(&subject, "id = ?", c.Params("subjectId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subject not found"})
	}

	var req SubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	subject.SubjectCode = req.SubjectCode
	subject.SubjectName = req.SubjectName
	subject.Department = req.Department
	subject.Semester = req.Semester
	database.DB.Save(&subject)

	return c.JSON(subject)
}

func DeleteSubject(c *fiber.Ctx) error {
	result := database.DB.Delete(&models.Subject{}, "id = ?", c.Params("subjectId"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete subject"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subject not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetDashboardAnalytics aggregates the counters the super-admin dashboard
// shows: papers per status, per-department pending load, overdue assignments.
func GetDashboardAnalytics(c *fiber.Ctx) error {
	var pendingQuestions, approvedQuestions, rejectedQuestions, archivedQuestions int64
	database.DB.Model(&models.Question{}).Where("status IS NULL OR status IN ?", []string{"", "pending", "submitted"}).Count(&pendingQuestions)
	database.DB.Model(&models.Question{}).Where("status = ?", "approved").Count(&approvedQuestions)
	database.DB.Model(&models.Question{}).Where("status = ?", "rejected").Count(&rejectedQuestions)
	database.DB.Model(&models.Question{}).Where("status = ?", "archived").Count(&archivedQuestions)

	var totalUsers, totalFaculty, totalVerifiers int64
	database.DB.Model(&models.User{}).Count(&totalUsers)
	database.DB.Model(&models.User{}).Where("role = ?", "faculty").Count(&totalFaculty)
	database.DB.Model(&models.User{}).Where("role = ?", "verifier").Count(&totalVerifiers)

	var overdueAssignments int64
	database.DB.Model(&models.Assignment{}).
		Where("status = ? AND due_date < now()", "pending").
		Count(&overdueAssignments)

	type departmentCount struct {
		Department string `json:"department"`
		Count      int64  `json:"count"`
	}
	var pendingByDepartment []departmentCount
	database.DB.Model(&models.Question{}).
		Select("department, count(*) as count").
		Where("status IS NULL OR status IN ?", []string{"", "pending", "submitted"}).
		Group("department").
		Scan(&pendingByDepartment)

	return c.JSON(fiber.Map{
		"questions": fiber.Map{
			"pending":  pendingQuestions,
			"approved": approvedQuestions,
			"rejected": rejectedQuestions,
			"archived": archivedQuestions,
		},
		"users": fiber.Map{
			"total":     totalUsers,
			"faculty":   totalFaculty,
			"verifiers": totalVerifiers,
		},
		"assignments": fiber.Map{
			"overdue": overdueAssignments,
		},
		"pending_by_department": pendingByDepartment,
	})
}
