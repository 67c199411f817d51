package jobs

import (
	"fmt"
	"log"
	"time"

	"qpms_backend/database"
	"qpms_backend/models"
	"qpms_backend/notifications"
)

// SendDueDateReminders mails every faculty whose pending assignment falls due
// within the next 48 hours.
func SendDueDateReminders() {
	log.Println("Running job: SendDueDateReminders...")

	now := time.Now()
	upperBound := now.Add(48 * time.Hour)

	var dueSoon []models.Assignment
	err := database.DB.
		Where("status = ? AND due_date BETWEEN ? AND ?", "pending", now, upperBound).
		Find(&dueSoon).Error
	if err != nil {
		log.Printf("Error checking for due assignments: %v", err)
		return
	}

	for _, assignment := range dueSoon {
		emailSubject := "Reminder: Question Paper Due Soon"
		emailBody := fmt.Sprintf(
			"<h1>Submission Reminder</h1><p>Your question paper for <b>%s (%s)</b>, semester %d is due on %s.</p><p>Please submit your questions before the deadline.</p>",
			assignment.SubjectName, assignment.SubjectCode, assignment.Semester,
			assignment.DueDate.Format("02 Jan 2006"),
		)

		go notifications.SendEmail(assignment.FacultyName, assignment.FacultyEmail, emailSubject, emailBody)
	}
}

// NotifyOverdueAssignments mails faculty whose assignments have slipped past
// the due date without a submission. The stored status stays pending; overdue
// is always derived at read time.
func NotifyOverdueAssignments() {
	log.Println("Running job: NotifyOverdueAssignments...")

	var overdue []models.Assignment
	err := database.DB.
		Where("status = ? AND due_date < ?", "pending", time.Now()).
		Find(&overdue).Error
	if err != nil {
		log.Printf("Error checking for overdue assignments: %v", err)
		return
	}

	if len(overdue) == 0 {
		return
	}

	for _, assignment := range overdue {
		emailSubject := "Overdue: Question Paper Submission"
		emailBody := fmt.Sprintf(
			"<h1>Submission Overdue</h1><p>Your question paper for <b>%s (%s)</b>, semester %d was due on %s and has not been submitted.</p>",
			assignment.SubjectName, assignment.SubjectCode, assignment.Semester,
			assignment.DueDate.Format("02 Jan 2006"),
		)

		go notifications.SendEmail(assignment.FacultyName, assignment.FacultyEmail, emailSubject, emailBody)
	}

	log.Printf("Sent %d overdue assignment notices", len(overdue))
}
