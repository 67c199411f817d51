package services

import (
	"errors"
	"fmt"
	"testing"

	"qpms_backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Question{},
		&models.ApprovedQuestion{},
		&models.RejectedQuestion{},
		&models.CorrectedPaper{},
		&models.ArchivedQuestion{},
		&models.Assignment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedPaper(t *testing.T, db *gorm.DB, subjectCode string, semester, questionCount int) {
	t.Helper()
	for i := 1; i <= questionCount; i++ {
		q := models.Question{
			SubjectCode:    subjectCode,
			Semester:       semester,
			QuestionNumber: i,
			QuestionText:   fmt.Sprintf("Explain concept %d in detail.", i),
			Marks:          10,
			CO:             fmt.Sprintf("CO%d", i),
			Level:          "L2",
			SubjectName:    "Data Structures",
			Department:     "CSE",
			SetName:        "Set1",
			Status:         "pending",
			SubmittedBy:    "faculty@college.edu",
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("failed to seed question %d: %v", i, err)
		}
	}
}

func questionStatuses(t *testing.T, db *gorm.DB, subjectCode string, semester int) map[int]string {
	t.Helper()
	var rows []models.Question
	if err := db.Where("lower(subject_code) = lower(?) AND semester = ?", subjectCode, semester).
		Find(&rows).Error; err != nil {
		t.Fatalf("failed to load questions: %v", err)
	}
	statuses := make(map[int]string, len(rows))
	for _, q := range rows {
		statuses[q.QuestionNumber] = q.Status
	}
	return statuses
}

func countSnapshots(t *testing.T, db *gorm.DB, model interface{}, subjectCode string, semester int) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).
		Where("lower(subject_code) = lower(?) AND semester = ?", subjectCode, semester).
		Count(&n).Error; err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	return n
}

func approveAll(count int) []QuestionDecision {
	decisions := make([]QuestionDecision, 0, count)
	for i := 1; i <= count; i++ {
		decisions = append(decisions, QuestionDecision{QuestionNumber: i, Approved: true})
	}
	return decisions
}

func TestQuestionUniqueness(t *testing.T) {
	db := setupTestDB(t)
	seedPaper(t, db, "CS301", 4, 1)

	dup := models.Question{
		SubjectCode:    "CS301",
		Semester:       4,
		QuestionNumber: 1,
		QuestionText:   "A different text for the same slot.",
		Status:         "pending",
	}
	err := db.Create(&dup).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate-key error, got %v", err)
	}
}

func TestApplyDecisionApprovesAllQuestions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 3)

	if err := svc.ApplyDecision("CS301", 4, approveAll(3), nil, "verifier@college.edu"); err != nil {
		t.Fatalf("ApplyDecision failed: %v", err)
	}

	for qno, status := range questionStatuses(t, db, "CS301", 4) {
		if status != "approved" {
			t.Errorf("question %d: status = %q, want approved", qno, status)
		}
	}

	if got := countSnapshots(t, db, &models.ApprovedQuestion{}, "CS301", 4); got != 3 {
		t.Errorf("approved snapshots = %d, want 3", got)
	}
	if got := countSnapshots(t, db, &models.RejectedQuestion{}, "CS301", 4); got != 0 {
		t.Errorf("rejected snapshots = %d, want 0", got)
	}
}

func TestApplyDecisionIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 3)

	for i := 0; i < 2; i++ {
		if err := svc.ApplyDecision("CS301", 4, approveAll(3), nil, "verifier@college.edu"); err != nil {
			t.Fatalf("ApplyDecision call %d failed: %v", i+1, err)
		}
	}

	if got := countSnapshots(t, db, &models.ApprovedQuestion{}, "CS301", 4); got != 3 {
		t.Errorf("approved snapshots after double approval = %d, want 3", got)
	}
	for qno, status := range questionStatuses(t, db, "CS301", 4) {
		if status != "approved" {
			t.Errorf("question %d: status = %q, want approved", qno, status)
		}
	}
}

func TestApplyDecisionSnapshotsAreMutuallyExclusive(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 3)

	if err := svc.ApplyDecision("CS301", 4, approveAll(3), nil, "verifier@college.edu"); err != nil {
		t.Fatalf("approve pass failed: %v", err)
	}

	rejectAll := make([]QuestionDecision, 0, 3)
	for i := 1; i <= 3; i++ {
		rejectAll = append(rejectAll, QuestionDecision{QuestionNumber: i, Approved: false, Remarks: "out of syllabus"})
	}
	if err := svc.ApplyDecision("CS301", 4, rejectAll, nil, "verifier@college.edu"); err != nil {
		t.Fatalf("reject pass failed: %v", err)
	}

	if got := countSnapshots(t, db, &models.RejectedQuestion{}, "CS301", 4); got != 3 {
		t.Errorf("rejected snapshots = %d, want 3", got)
	}
	if got := countSnapshots(t, db, &models.ApprovedQuestion{}, "CS301", 4); got != 0 {
		t.Errorf("approved snapshots = %d, want 0 after rejection", got)
	}
}

func TestApplyDecisionFinalStatusOverride(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 3)

	// per-question verdicts approve everything, but the one-click override
	// rejects the whole paper
	finalStatus := "rejected"
	if err := svc.ApplyDecision("CS301", 4, approveAll(3), &finalStatus, "verifier@college.edu"); err != nil {
		t.Fatalf("ApplyDecision failed: %v", err)
	}

	for qno, status := range questionStatuses(t, db, "CS301", 4) {
		if status != "rejected" {
			t.Errorf("question %d: status = %q, want rejected", qno, status)
		}
	}
	if got := countSnapshots(t, db, &models.ApprovedQuestion{}, "CS301", 4); got != 0 {
		t.Errorf("approved snapshots = %d, want 0", got)
	}
	if got := countSnapshots(t, db, &models.RejectedQuestion{}, "CS301", 4); got != 3 {
		t.Errorf("rejected snapshots = %d, want 3", got)
	}
}

func TestApplyDecisionMixedBatchRejectsWins(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 3)

	decisions := []QuestionDecision{
		{QuestionNumber: 1, Approved: true},
		{QuestionNumber: 2, Approved: false, Remarks: "duplicate of Q1"},
		{QuestionNumber: 3, Approved: true},
	}
	if err := svc.ApplyDecision("CS301", 4, decisions, nil, "verifier@college.edu"); err != nil {
		t.Fatalf("ApplyDecision failed: %v", err)
	}

	if got := countSnapshots(t, db, &models.RejectedQuestion{}, "CS301", 4); got != 1 {
		t.Errorf("rejected snapshots = %d, want 1", got)
	}
	if got := countSnapshots(t, db, &models.ApprovedQuestion{}, "CS301", 4); got != 0 {
		t.Errorf("approved snapshots = %d, want 0 for a mixed batch", got)
	}
}

func TestApplyDecisionValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 1)

	badStatus := "maybe"
	tests := []struct {
		name        string
		subjectCode string
		semester    int
		decisions   []QuestionDecision
		finalStatus *string
		wantErr     error
	}{
		{"empty subject code", "", 4, approveAll(1), nil, ErrPaperNotFound},
		{"zero semester", "CS301", 0, approveAll(1), nil, ErrPaperNotFound},
		{"no decisions", "CS301", 4, nil, nil, ErrNoDecisions},
		{"bad final status", "CS301", 4, approveAll(1), &badStatus, ErrBadFinalStatus},
		{"unknown question number", "CS301", 4, []QuestionDecision{{QuestionNumber: 99, Approved: true}}, nil, ErrPaperNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ApplyDecision(tt.subjectCode, tt.semester, tt.decisions, tt.finalStatus, "v@college.edu")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ApplyDecision() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApproveCorrectedRecordsDiffAndApproves(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 2)

	newCO := "CO5"
	corrected := []CorrectedQuestionInput{
		{QuestionNumber: 1, QuestionText: "Rewritten question one.", CO: &newCO},
		{QuestionNumber: 2, QuestionText: "Rewritten question two."},
	}

	if err := svc.ApproveCorrected("cs301", 4, corrected, "tightened wording", "verifier@college.edu"); err != nil {
		t.Fatalf("ApproveCorrected failed: %v", err)
	}

	var q1 models.Question
	if err := db.First(&q1, "subject_code = ? AND semester = ? AND question_number = ?", "CS301", 4, 1).Error; err != nil {
		t.Fatalf("failed to reload question: %v", err)
	}
	if q1.QuestionText != "Rewritten question one." {
		t.Errorf("question text = %q, want the corrected text", q1.QuestionText)
	}
	if q1.Status != "approved" {
		t.Errorf("status = %q, want approved", q1.Status)
	}
	if q1.CO != "CO5" {
		t.Errorf("co = %q, want CO5", q1.CO)
	}

	var correctedCount int64
	db.Model(&models.CorrectedPaper{}).Where("lower(subject_code) = lower(?)", "CS301").Count(&correctedCount)
	if correctedCount != 1 {
		t.Errorf("corrected paper records = %d, want 1", correctedCount)
	}
	if got := countSnapshots(t, db, &models.ApprovedQuestion{}, "CS301", 4); got != 2 {
		t.Errorf("approved snapshots = %d, want 2", got)
	}
}

func TestApproveCorrectedValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 1)

	tests := []struct {
		name      string
		corrected []CorrectedQuestionInput
		wantErr   error
	}{
		{"empty list", nil, ErrNoDecisions},
		{"missing text", []CorrectedQuestionInput{{QuestionNumber: 1}}, ErrMissingFields},
		{"missing number", []CorrectedQuestionInput{{QuestionText: "text"}}, ErrMissingFields},
		{"unknown question", []CorrectedQuestionInput{{QuestionNumber: 9, QuestionText: "text"}}, ErrPaperNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ApproveCorrected("CS301", 4, tt.corrected, "", "v@college.edu")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ApproveCorrected() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApproveCorrectedRollsBackOnSnapshotFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 2)

	// force the third write of the transaction to fail
	if err := db.Migrator().DropTable(&models.ApprovedQuestion{}); err != nil {
		t.Fatalf("failed to drop snapshot table: %v", err)
	}

	corrected := []CorrectedQuestionInput{
		{QuestionNumber: 1, QuestionText: "Rewritten question one."},
	}
	if err := svc.ApproveCorrected("CS301", 4, corrected, "", "verifier@college.edu"); err == nil {
		t.Fatal("expected ApproveCorrected to fail when the snapshot insert fails")
	}

	// neither the correction record nor the in-place update may be visible
	var correctedCount int64
	db.Model(&models.CorrectedPaper{}).Count(&correctedCount)
	if correctedCount != 0 {
		t.Errorf("corrected paper records = %d, want 0 after rollback", correctedCount)
	}

	var q1 models.Question
	if err := db.First(&q1, "subject_code = ? AND semester = ? AND question_number = ?", "CS301", 4, 1).Error; err != nil {
		t.Fatalf("failed to reload question: %v", err)
	}
	if q1.Status != "pending" {
		t.Errorf("status = %q, want pending after rollback", q1.Status)
	}
	if q1.QuestionText == "Rewritten question one." {
		t.Error("question text was updated despite rollback")
	}
}

func TestRejectPaper(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 3)

	if err := svc.RejectPaper("CS301", 4, "whole paper off-syllabus", "verifier@college.edu"); err != nil {
		t.Fatalf("RejectPaper failed: %v", err)
	}

	for qno, status := range questionStatuses(t, db, "CS301", 4) {
		if status != "rejected" {
			t.Errorf("question %d: status = %q, want rejected", qno, status)
		}
	}
	if got := countSnapshots(t, db, &models.RejectedQuestion{}, "CS301", 4); got != 3 {
		t.Errorf("rejected snapshots = %d, want 3", got)
	}

	if err := svc.RejectPaper("NOPE", 1, "", "verifier@college.edu"); !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("RejectPaper on missing paper: error = %v, want ErrPaperNotFound", err)
	}
}

func TestListPapersForReviewExcludesRejectedKeys(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 2)

	papers, err := svc.ListPapersForReview("", 0)
	if err != nil {
		t.Fatalf("ListPapersForReview failed: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("papers = %d, want 1", len(papers))
	}
	if papers[0].Status != "pending" {
		t.Errorf("aggregate status = %q, want pending", papers[0].Status)
	}

	// rejection is sticky: a single rejected snapshot row must hide the
	// paper even while its live rows are still pending
	snap := models.RejectedQuestion{SubjectCode: "CS301", Semester: 4, QuestionNumber: 1}
	if err := db.Create(&snap).Error; err != nil {
		t.Fatalf("failed to insert rejected snapshot: %v", err)
	}

	papers, err = svc.ListPapersForReview("", 0)
	if err != nil {
		t.Fatalf("ListPapersForReview failed: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("papers = %d, want 0 after sticky rejection", len(papers))
	}
}

func TestListPapersForReviewGroupingAndFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 2)
	seedPaper(t, db, "BA201", 2, 3)
	if err := db.Model(&models.Question{}).
		Where("subject_code = ?", "BA201").
		Update("department", "MBA").Error; err != nil {
		t.Fatalf("failed to retag department: %v", err)
	}

	papers, err := svc.ListPapersForReview("", 0)
	if err != nil {
		t.Fatalf("ListPapersForReview failed: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("papers = %d, want 2", len(papers))
	}
	// sorted ascending by subject code
	if papers[0].SubjectCode != "BA201" || papers[1].SubjectCode != "CS301" {
		t.Errorf("paper order = [%s %s], want [BA201 CS301]", papers[0].SubjectCode, papers[1].SubjectCode)
	}
	if len(papers[0].Questions) != 3 || len(papers[1].Questions) != 2 {
		t.Errorf("question counts = [%d %d], want [3 2]", len(papers[0].Questions), len(papers[1].Questions))
	}

	mba, err := svc.ListPapersForReview("MBA", 0)
	if err != nil {
		t.Fatalf("ListPapersForReview failed: %v", err)
	}
	if len(mba) != 1 || mba[0].SubjectCode != "BA201" {
		t.Errorf("MBA filter returned %d papers, want only BA201", len(mba))
	}
}

func TestGetPaperCaseInsensitiveFallback(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 2)

	paper, err := svc.GetPaper("cs301", 4)
	if err != nil {
		t.Fatalf("GetPaper with lowercase code failed: %v", err)
	}
	if paper.SubjectCode != "CS301" || len(paper.Questions) != 2 {
		t.Errorf("got paper %s with %d questions, want CS301 with 2", paper.SubjectCode, len(paper.Questions))
	}

	if _, err := svc.GetPaper("EE999", 1); !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("GetPaper on missing paper: error = %v, want ErrPaperNotFound", err)
	}
}

func TestAggregateStatus(t *testing.T) {
	mk := func(statuses ...string) []models.Question {
		qs := make([]models.Question, 0, len(statuses))
		for _, s := range statuses {
			qs = append(qs, models.Question{Status: s})
		}
		return qs
	}

	tests := []struct {
		name string
		rows []models.Question
		want string
	}{
		{"empty", nil, "pending"},
		{"all pending", mk("pending", "pending"), "pending"},
		{"all approved", mk("approved", "approved"), "approved"},
		{"one rejected wins", mk("approved", "rejected", "approved"), "rejected"},
		{"partial approval stays pending", mk("approved", "pending"), "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aggregateStatus(tt.rows); got != tt.want {
				t.Errorf("aggregateStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVerificationService(db)
	seedPaper(t, db, "CS301", 4, 3)

	if err := svc.ApplyDecision("CS301", 4, approveAll(3), nil, "verifier@college.edu"); err != nil {
		t.Fatalf("approval failed: %v", err)
	}

	if err := svc.ArchivePaper("CS301", 4, "admin@college.edu"); err != nil {
		t.Fatalf("ArchivePaper failed: %v", err)
	}
	for qno, status := range questionStatuses(t, db, "CS301", 4) {
		if status != "archived" {
			t.Errorf("question %d: status = %q, want archived", qno, status)
		}
	}
	if got := countSnapshots(t, db, &models.ArchivedQuestion{}, "CS301", 4); got != 3 {
		t.Errorf("archived rows = %d, want 3", got)
	}

	if err := svc.RestorePaper("CS301", 4); err != nil {
		t.Fatalf("RestorePaper failed: %v", err)
	}
	for qno, status := range questionStatuses(t, db, "CS301", 4) {
		if status != "approved" {
			t.Errorf("question %d: status = %q, want approved after restore", qno, status)
		}
	}
	if got := countSnapshots(t, db, &models.ArchivedQuestion{}, "CS301", 4); got != 0 {
		t.Errorf("archived rows = %d, want 0 after restore", got)
	}

	if err := svc.RestorePaper("CS301", 4); !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("second restore: error = %v, want ErrPaperNotFound", err)
	}
}
