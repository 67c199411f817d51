package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"qpms_backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPaperNotFound  = errors.New("no questions found for the given subject code and semester")
	ErrNoDecisions    = errors.New("questions must be a non-empty list")
	ErrMissingFields  = errors.New("every corrected question must carry question_number and question_text")
	ErrBadFinalStatus = errors.New("final_status must be either approved or rejected")
)

// VerificationService owns every status transition of a paper and keeps the
// snapshot tables consistent with the live question rows. Constructed once in
// main and injected into the handlers that need it.
type VerificationService struct {
	DB *gorm.DB
}

func NewVerificationService(db *gorm.DB) *VerificationService {
	return &VerificationService{DB: db}
}

// QuestionDecision is the per-question payload of an ApplyDecision call. The
// optional fields carry inline corrections applied together with the verdict.
type QuestionDecision struct {
	QuestionNumber int      `json:"question_number" validate:"required,gt=0"`
	Approved       bool     `json:"approved"`
	Remarks        string   `json:"remarks"`
	QuestionText   *string  `json:"question_text,omitempty"`
	CO             *string  `json:"co,omitempty"`
	Level          *string  `json:"level,omitempty"`
	Marks          *float64 `json:"marks,omitempty"`
}

// CorrectedQuestionInput is one rewritten question of an ApproveCorrected call.
type CorrectedQuestionInput struct {
	QuestionNumber int      `json:"question_number"`
	QuestionText   string   `json:"question_text"`
	CO             *string  `json:"co,omitempty"`
	Level          *string  `json:"level,omitempty"`
	Marks          *float64 `json:"marks,omitempty"`
}

// PaperView is the grouped, paper-shaped projection of the flat question rows.
type PaperView struct {
	SubjectCode string            `json:"subject_code"`
	Semester    int               `json:"semester"`
	SubjectName string            `json:"subject_name"`
	Department  string            `json:"department"`
	SetName     string            `json:"set_name"`
	Status      string            `json:"status"`
	Questions   []models.Question `json:"questions"`
}

func paperScope(db *gorm.DB, subjectCode string, semester int) *gorm.DB {
	return db.Where("lower(subject_code) = lower(?) AND semester = ?", subjectCode, semester)
}

// ApplyDecision applies a verifier's accept/reject verdict per question, then
// optionally forces the whole paper to finalStatus. The batch runs inside one
// transaction, and the winning side's snapshot rows are upserted while the
// losing side's rows for the key are removed, so after any call at most one
// of the approved/rejected snapshot tables holds rows for the paper.
func (s *VerificationService) ApplyDecision(subjectCode string, semester int, decisions []QuestionDecision, finalStatus *string, verifiedBy string) error {
	if strings.TrimSpace(subjectCode) == "" || semester <= 0 {
		return ErrPaperNotFound
	}
	if len(decisions) == 0 {
		return ErrNoDecisions
	}
	if finalStatus != nil && *finalStatus != "approved" && *finalStatus != "rejected" {
		return ErrBadFinalStatus
	}

	now := time.Now()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		anyRejected := false

		for _, d := range decisions {
			status := "rejected"
			if d.Approved {
				status = "approved"
			} else {
				anyRejected = true
			}

			updates := map[string]interface{}{
				"status":      status,
				"approved":    d.Approved,
				"remarks":     d.Remarks,
				"verified_by": verifiedBy,
				"verified_at": now,
			}
			if d.QuestionText != nil {
				updates["question_text"] = *d.QuestionText
			}
			if d.CO != nil {
				updates["co"] = *d.CO
			}
			if d.Level != nil {
				updates["level"] = *d.Level
			}
			if d.Marks != nil {
				updates["marks"] = *d.Marks
			}

			res := paperScope(tx.Model(&models.Question{}), subjectCode, semester).
				Where("question_number = ?", d.QuestionNumber).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("question %d: %w", d.QuestionNumber, ErrPaperNotFound)
			}
		}

		// the one-click override: every row of the paper takes finalStatus,
		// regardless of what the per-question loop just wrote
		if finalStatus != nil {
			approved := *finalStatus == "approved"
			res := paperScope(tx.Model(&models.Question{}), subjectCode, semester).
				Updates(map[string]interface{}{
					"status":      *finalStatus,
					"approved":    approved,
					"verified_by": verifiedBy,
					"verified_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			anyRejected = !approved
		}

		// a single rejection outweighs any number of approvals
		side := "approved"
		if anyRejected {
			side = "rejected"
		}

		return s.syncSnapshots(tx, subjectCode, semester, side, now)
	})
}

// syncSnapshots copies the rows currently holding the winning status into the
// matching snapshot table and clears the opposite table for the paper key.
func (s *VerificationService) syncSnapshots(tx *gorm.DB, subjectCode string, semester int, side string, decidedAt time.Time) error {
	var rows []models.Question
	if err := paperScope(tx, subjectCode, semester).
		Where("status = ?", side).
		Order("question_number asc").
		Find(&rows).Error; err != nil {
		return err
	}

	conflictKey := []clause.Column{{Name: "subject_code"}, {Name: "semester"}, {Name: "question_number"}}
	assign := clause.AssignmentColumns([]string{
		"question_text", "marks", "co", "level", "subject_name", "department",
		"set_name", "remarks", "verified_by", "verified_at", "decided_at", "updated_at",
	})

	if side == "approved" {
		for _, q := range rows {
			snap := approvedCopy(q, decidedAt)
			if err := tx.Clauses(clause.OnConflict{Columns: conflictKey, DoUpdates: assign}).
				Create(&snap).Error; err != nil {
				return err
			}
		}
		return paperScope(tx, subjectCode, semester).Delete(&models.RejectedQuestion{}).Error
	}

	for _, q := range rows {
		snap := rejectedCopy(q, decidedAt)
		if err := tx.Clauses(clause.OnConflict{Columns: conflictKey, DoUpdates: assign}).
			Create(&snap).Error; err != nil {
			return err
		}
	}
	return paperScope(tx, subjectCode, semester).Delete(&models.ApprovedQuestion{}).Error
}

func approvedCopy(q models.Question, decidedAt time.Time) models.ApprovedQuestion {
	return models.ApprovedQuestion{
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
		Remarks:        q.Remarks,
		VerifiedBy:     q.VerifiedBy,
		VerifiedAt:     q.VerifiedAt,
		DecidedAt:      decidedAt,
	}
}

func rejectedCopy(q models.Question, decidedAt time.Time) models.RejectedQuestion {
	return models.RejectedQuestion{
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
		Remarks:        q.Remarks,
		VerifiedBy:     q.VerifiedBy,
		VerifiedAt:     q.VerifiedAt,
		DecidedAt:      decidedAt,
	}
}

// ApproveCorrected is the save-correction path: the verifier has rewritten
// question text or grading instead of plain accept/reject. All three writes
// (corrected-paper diff, live row updates, approved snapshots) commit
// together or not at all.
func (s *VerificationService) ApproveCorrected(subjectCode string, semester int, corrected []CorrectedQuestionInput, verifierRemarks, verifiedBy string) error {
	if len(corrected) == 0 {
		return ErrNoDecisions
	}
	for _, cq := range corrected {
		if cq.QuestionNumber <= 0 || strings.TrimSpace(cq.QuestionText) == "" {
			return ErrMissingFields
		}
	}

	now := time.Now()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var originals []models.Question
		if err := paperScope(tx, subjectCode, semester).Find(&originals).Error; err != nil {
			return err
		}
		if len(originals) == 0 {
			return ErrPaperNotFound
		}

		byNumber := make(map[int]models.Question, len(originals))
		for _, q := range originals {
			byNumber[q.QuestionNumber] = q
		}

		diffs := make([]models.CorrectedQuestionDiff, 0, len(corrected))
		for _, cq := range corrected {
			orig, ok := byNumber[cq.QuestionNumber]
			if !ok {
				return fmt.Errorf("question %d: %w", cq.QuestionNumber, ErrPaperNotFound)
			}
			diffs = append(diffs, models.CorrectedQuestionDiff{
				QuestionNumber: cq.QuestionNumber,
				OriginalText:   orig.QuestionText,
				CorrectedText:  cq.QuestionText,
				OriginalCO:     orig.CO,
				CorrectedCO:    cq.CO,
				OriginalLevel:  orig.Level,
				CorrectedLevel: cq.Level,
				OriginalMarks:  orig.Marks,
				CorrectedMarks: cq.Marks,
			})
		}

		payload, err := json.Marshal(diffs)
		if err != nil {
			return err
		}

		record := models.CorrectedPaper{
			SubjectCode:        originals[0].SubjectCode,
			Semester:           semester,
			SubjectName:        originals[0].SubjectName,
			Department:         originals[0].Department,
			CorrectedQuestions: datatypes.JSON(payload),
			VerifierRemarks:    verifierRemarks,
			VerifiedBy:         verifiedBy,
			Status:             "approved",
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		conflictKey := []clause.Column{{Name: "subject_code"}, {Name: "semester"}, {Name: "question_number"}}
		assign := clause.AssignmentColumns([]string{
			"question_text", "marks", "co", "level", "subject_name", "department",
			"set_name", "remarks", "verified_by", "verified_at", "decided_at", "updated_at",
		})

		for _, cq := range corrected {
			updates := map[string]interface{}{
				"question_text": cq.QuestionText,
				"status":        "approved",
				"approved":      true,
				"remarks":       verifierRemarks,
				"verified_by":   verifiedBy,
				"verified_at":   now,
			}
			if cq.CO != nil {
				updates["co"] = *cq.CO
			}
			if cq.Level != nil {
				updates["level"] = *cq.Level
			}
			if cq.Marks != nil {
				updates["marks"] = *cq.Marks
			}
			res := paperScope(tx.Model(&models.Question{}), subjectCode, semester).
				Where("question_number = ?", cq.QuestionNumber).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}

			var updated models.Question
			if err := paperScope(tx, subjectCode, semester).
				Where("question_number = ?", cq.QuestionNumber).
				First(&updated).Error; err != nil {
				return err
			}
			snap := approvedCopy(updated, now)
			if err := tx.Clauses(clause.OnConflict{Columns: conflictKey, DoUpdates: assign}).
				Create(&snap).Error; err != nil {
				return err
			}
		}

		return paperScope(tx, subjectCode, semester).Delete(&models.RejectedQuestion{}).Error
	})
}

// RejectPaper rejects every question of a paper in one transaction, taking a
// full content copy into the rejected snapshot table.
func (s *VerificationService) RejectPaper(subjectCode string, semester int, remarks, verifiedBy string) error {
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

		conflictKey := []clause.Column{{Name: "subject_code"}, {Name: "semester"}, {Name: "question_number"}}
		assign := clause.AssignmentColumns([]string{
			"question_text", "marks", "co", "level", "subject_name", "department",
			"set_name", "remarks", "verified_by", "verified_at", "decided_at", "updated_at",
		})

		for _, q := range rows {
			q.Remarks = remarks
			q.VerifiedBy = verifiedBy
			q.VerifiedAt = &now
			snap := rejectedCopy(q, now)
			if err := tx.Clauses(clause.OnConflict{Columns: conflictKey, DoUpdates: assign}).
				Create(&snap).Error; err != nil {
				return err
			}
		}

		if err := paperScope(tx.Model(&models.Question{}), subjectCode, semester).
			Updates(map[string]interface{}{
				"status":      "rejected",
				"approved":    false,
				"remarks":     remarks,
				"verified_by": verifiedBy,
				"verified_at": now,
			}).Error; err != nil {
			return err
		}

		return paperScope(tx, subjectCode, semester).Delete(&models.ApprovedQuestion{}).Error
	})
}

// ListPapersForReview groups every not-yet-decided question row into papers.
// A paper with any rejected snapshot row is excluded outright: rejection is
// sticky even while some of its questions are still pending.
func (s *VerificationService) ListPapersForReview(department string, semester int) ([]PaperView, error) {
	q := s.DB.Model(&models.Question{}).
		Where("status IS NULL OR status IN ?", []string{"", "pending", "submitted"}).
		Where("NOT EXISTS (SELECT 1 FROM rejected_questions r WHERE lower(r.subject_code) = lower(questions.subject_code) AND r.semester = questions.semester)")

	if department != "" {
		q = q.Where("department = ?", department)
	}
	if semester > 0 {
		q = q.Where("semester = ?", semester)
	}

	var rows []models.Question
	if err := q.Order("subject_code asc, question_number asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	return groupIntoPapers(rows), nil
}

// ListDecidedPapers returns the grouped fully-decided papers for a status
// (approved, rejected or archived), read from the live question rows.
func (s *VerificationService) ListDecidedPapers(status, department string) ([]PaperView, error) {
	q := s.DB.Model(&models.Question{}).Where("status = ?", status)
	if department != "" {
		q = q.Where("department = ?", department)
	}

	var rows []models.Question
	if err := q.Order("subject_code asc, question_number asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return groupIntoPapers(rows), nil
}

// GetPaper fetches one paper, trying the exact key first and falling back to
// case-insensitive matching when nothing was found.
func (s *VerificationService) GetPaper(subjectCode string, semester int) (*PaperView, error) {
	var rows []models.Question
	if err := s.DB.
		Where("subject_code = ? AND semester = ?", subjectCode, semester).
		Order("question_number asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		if err := paperScope(s.DB, subjectCode, semester).
			Order("question_number asc").
			Find(&rows).Error; err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, ErrPaperNotFound
	}

	papers := groupIntoPapers(rows)
	return &papers[0], nil
}

// groupIntoPapers folds flat rows into PaperViews, keyed by the lower-cased
// subject code plus semester so case variants land in the same paper.
func groupIntoPapers(rows []models.Question) []PaperView {
	type key struct {
		code     string
		semester int
	}

	grouped := make(map[key]*PaperView)
	order := make([]key, 0)

	for _, row := range rows {
		k := key{strings.ToLower(row.SubjectCode), row.Semester}
		p, ok := grouped[k]
		if !ok {
			p = &PaperView{
				SubjectCode: row.SubjectCode,
				Semester:    row.Semester,
				SubjectName: row.SubjectName,
				Department:  row.Department,
				SetName:     row.SetName,
			}
			grouped[k] = p
			order = append(order, k)
		}
		p.Questions = append(p.Questions, row)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].code != order[j].code {
			return order[i].code < order[j].code
		}
		return order[i].semester < order[j].semester
	})

	papers := make([]PaperView, 0, len(grouped))
	for _, k := range order {
		p := grouped[k]
		p.Status = aggregateStatus(p.Questions)
		papers = append(papers, *p)
	}
	return papers
}

// aggregateStatus derives the paper-level status: any rejected question
// rejects the paper, a fully approved paper is approved, anything else is
// still pending.
func aggregateStatus(questions []models.Question) string {
	if len(questions) == 0 {
		return "pending"
	}
	approvedCount := 0
	for _, q := range questions {
		switch q.Status {
		case "rejected":
			return "rejected"
		case "approved":
			approvedCount++
		}
	}
	if approvedCount == len(questions) {
		return "approved"
	}
	return "pending"
}
