package services

import (
	"time"

	"qpms_backend/models"

	"gorm.io/gorm"
)

// ArchivePaper copies every question of the paper into the archive table and
// flags the live rows; both writes commit together. Live rows are never
// deleted, only flagged, which is what makes Restore cheap.
func (s *VerificationService) ArchivePaper(subjectCode string, semester int, archivedBy string) error {
	now := time.Now()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var rows []models.Question
		if err := paperScope(tx, subjectCode, semester).
			Order("question_number asc").
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrPaperNotFound
		}

		for _, q := range rows {
			archived := models.ArchivedQuestion{
				SubjectCode:    q.SubjectCode,
				Semester:       q.Semester,
				QuestionNumber: q.QuestionNumber,
				QuestionText:   q.QuestionText,
				Marks:          q.Marks,
				CO:             q.CO,
				Level:          q.Level,
				SubjectName:    q.SubjectName,
				Department:     q.Department,
				SetName:        q.SetName,
				Status:         q.Status,
				Remarks:        q.Remarks,
				VerifiedBy:     q.VerifiedBy,
				VerifiedAt:     q.VerifiedAt,
				ArchivedBy:     archivedBy,
				ArchivedAt:     now,
			}
			if err := tx.Create(&archived).Error; err != nil {
				return err
			}
		}

		return paperScope(tx.Model(&models.Question{}), subjectCode, semester).
			Update("status", "archived").Error
	})
}

// RestorePaper flips the archived paper's live rows back to approved and
// drops the archive copies for the key.
func (s *VerificationService) RestorePaper(subjectCode string, semester int) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := paperScope(tx.Model(&models.Question{}), subjectCode, semester).
			Where("status = ?", "archived").
			Updates(map[string]interface{}{"status": "approved", "approved": true})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPaperNotFound
		}

		return paperScope(tx, subjectCode, semester).Delete(&models.ArchivedQuestion{}).Error
	})
}

// ListArchivedPapers groups the archive table the same way the review queue
// groups live rows.
func (s *VerificationService) ListArchivedPapers(department string) ([]PaperView, error) {
	q := s.DB.Model(&models.ArchivedQuestion{})
	if department != "" {
		q = q.Where("department = ?", department)
	}

	var rows []models.ArchivedQuestion
	if err := q.Order("subject_code asc, question_number asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	questions := make([]models.Question, 0, len(rows))
	for _, a := range rows {
		questions = append(questions, models.Question{
			SubjectCode:    a.SubjectCode,
			Semester:       a.Semester,
			QuestionNumber: a.QuestionNumber,
			QuestionText:   a.QuestionText,
			Marks:          a.Marks,
			CO:             a.CO,
			Level:          a.Level,
			SubjectName:    a.SubjectName,
			Department:     a.Department,
			SetName:        a.SetName,
			Status:         "archived",
			Remarks:        a.Remarks,
			VerifiedBy:     a.VerifiedBy,
			VerifiedAt:     a.VerifiedAt,
		})
	}
	papers := groupIntoPapers(questions)
	for i := range papers {
		papers[i].Status = "archived"
	}
	return papers, nil
}
