package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"qpms_backend/models"
	"qpms_backend/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
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

// fakeAuth plants a parsed JWT in locals the way the jwt middleware would,
// so handlers see a real identity without a signing round trip.
func fakeAuth(email, role, department string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id":    "11111111-1111-1111-1111-111111111111",
			"email":      email,
			"full_name":  "Test User",
			"role":       role,
			"department": department,
		})
		c.Locals("user", token)
		return c.Next()
	}
}

func newVerifierApp(db *gorm.DB) *fiber.App {
	svc := services.NewVerificationService(db)
	h := NewVerificationHandler(svc)
	ar := NewArchiveHandler(svc)

	app := fiber.New()
	app.Use(fakeAuth("verifier@college.edu", "verifier", "CSE"))
	app.Get("/papers/review", h.ListPapersForReview)
	app.Get("/papers/:subjectCode/:semester", h.GetPaper)
	app.Post("/papers/decision", h.ApplyDecision)
	app.Post("/papers/approve-corrected", h.ApproveCorrected)
	app.Post("/papers/reject", h.RejectPaper)
	app.Post("/archive/papers/:subjectCode/:semester", ar.ArchivePaper)
	app.Post("/archive/papers/:subjectCode/:semester/restore", ar.RestorePaper)
	return app
}

func seedHandlerPaper(t *testing.T, db *gorm.DB, subjectCode string, semester, questionCount int) {
	t.Helper()
	for i := 1; i <= questionCount; i++ {
		q := models.Question{
			SubjectCode:    subjectCode,
			Semester:       semester,
			QuestionNumber: i,
			QuestionText:   fmt.Sprintf("Question %d text.", i),
			Marks:          10,
			SubjectName:    "Data Structures",
			Department:     "CSE",
			Status:         "pending",
			SubmittedBy:    "faculty@college.edu",
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("failed to seed question %d: %v", i, err)
		}
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestReviewQueueFlow(t *testing.T) {
	db := setupTestDB(t)
	app := newVerifierApp(db)
	seedHandlerPaper(t, db, "CS301", 4, 3)

	resp := doJSON(t, app, http.MethodGet, "/papers/review", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("review status = %d, want 200", resp.StatusCode)
	}
	var papers []services.PaperView
	decodeBody(t, resp, &papers)
	if len(papers) != 1 || papers[0].SubjectCode != "CS301" {
		t.Fatalf("review queue = %+v, want one CS301 paper", papers)
	}

	decision := map[string]interface{}{
		"subject_code": "CS301",
		"semester":     4,
		"questions": []map[string]interface{}{
			{"question_number": 1, "approved": true},
			{"question_number": 2, "approved": true},
			{"question_number": 3, "approved": true},
		},
	}
	resp = doJSON(t, app, http.MethodPost, "/papers/decision", decision)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("decision status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodGet, "/papers/review", nil)
	decodeBody(t, resp, &papers)
	if len(papers) != 0 {
		t.Errorf("review queue after approval = %d papers, want 0", len(papers))
	}

	var approvedCount int64
	db.Model(&models.ApprovedQuestion{}).Count(&approvedCount)
	if approvedCount != 3 {
		t.Errorf("approved snapshots = %d, want 3", approvedCount)
	}
}

func TestApplyDecisionHandlerValidation(t *testing.T) {
	db := setupTestDB(t)
	app := newVerifierApp(db)
	seedHandlerPaper(t, db, "CS301", 4, 1)

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{
			"missing subject code",
			map[string]interface{}{"semester": 4, "questions": []map[string]interface{}{{"question_number": 1, "approved": true}}},
			http.StatusBadRequest,
		},
		{
			"missing questions",
			map[string]interface{}{"subject_code": "CS301", "semester": 4},
			http.StatusBadRequest,
		},
		{
			"bad final status",
			map[string]interface{}{
				"subject_code": "CS301", "semester": 4, "final_status": "maybe",
				"questions": []map[string]interface{}{{"question_number": 1, "approved": true}},
			},
			http.StatusBadRequest,
		},
		{
			"unknown paper",
			map[string]interface{}{
				"subject_code": "EE999", "semester": 1,
				"questions": []map[string]interface{}{{"question_number": 1, "approved": true}},
			},
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/papers/decision", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRejectPaperHandlerStickyExclusion(t *testing.T) {
	db := setupTestDB(t)
	app := newVerifierApp(db)
	seedHandlerPaper(t, db, "CS301", 4, 2)
	seedHandlerPaper(t, db, "CS405", 6, 2)

	resp := doJSON(t, app, http.MethodPost, "/papers/reject", map[string]interface{}{
		"subject_code": "CS301",
		"semester":     4,
		"remarks":      "needs a full rewrite",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodGet, "/papers/review", nil)
	var papers []services.PaperView
	decodeBody(t, resp, &papers)
	if len(papers) != 1 || papers[0].SubjectCode != "CS405" {
		t.Errorf("review queue = %+v, want only CS405", papers)
	}
}

func TestGetPaperHandler(t *testing.T) {
	db := setupTestDB(t)
	app := newVerifierApp(db)
	seedHandlerPaper(t, db, "CS301", 4, 2)

	resp := doJSON(t, app, http.MethodGet, "/papers/cs301/4", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get paper status = %d, want 200", resp.StatusCode)
	}
	var paper services.PaperView
	decodeBody(t, resp, &paper)
	if paper.SubjectCode != "CS301" || len(paper.Questions) != 2 {
		t.Errorf("paper = %s with %d questions, want CS301 with 2", paper.SubjectCode, len(paper.Questions))
	}

	resp = doJSON(t, app, http.MethodGet, "/papers/EE999/1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing paper status = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodGet, "/papers/CS301/abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad semester status = %d, want 400", resp.StatusCode)
	}
}

func TestArchiveHandlerRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	app := newVerifierApp(db)
	seedHandlerPaper(t, db, "CS301", 4, 2)

	if err := db.Model(&models.Question{}).
		Where("subject_code = ?", "CS301").
		Updates(map[string]interface{}{"status": "approved", "approved": true}).Error; err != nil {
		t.Fatalf("failed to pre-approve paper: %v", err)
	}

	resp := doJSON(t, app, http.MethodPost, "/archive/papers/CS301/4", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPost, "/archive/papers/CS301/4/restore", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restore status = %d, want 200", resp.StatusCode)
	}

	var archivedCount int64
	db.Model(&models.ArchivedQuestion{}).Count(&archivedCount)
	if archivedCount != 0 {
		t.Errorf("archived rows after restore = %d, want 0", archivedCount)
	}
}
