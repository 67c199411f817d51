package routes

import (
	"qpms_backend/handlers"
	"qpms_backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, a *handlers.AssignmentHandler) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:userId/status", handlers.ToggleUserStatus)
	users.Delete("/:userId", handlers.AdminDeleteUser)

	departments := admin.Group("/departments")
	departments.Post("", handlers.CreateDepartment)
	departments.Get("", handlers.ListDepartments)
	departments.Delete("/:departmentId", handlers.DeleteDepartment)

	subjects := admin.Group("/subjects")
	subjects.Post("", handlers.CreateSubject)
	subjects.Get("", handlers.ListSubjects)
	subjects.Put("/:subjectId", handlers.UpdateSubject)
	subjects.Delete("/:subjectId", handlers.DeleteSubject)

	assignments := admin.Group("/assignments")
	assignments.Post("", a.CreateAssignment)
	assignments.Get("", a.ListAssignments)
	assignments.Delete("/:assignmentId", a.DeleteAssignment)
}
