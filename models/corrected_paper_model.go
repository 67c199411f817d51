package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CorrectedQuestionDiff is one entry of the original-vs-corrected payload
// stored inside CorrectedPaper.CorrectedQuestions.
type CorrectedQuestionDiff struct {
	QuestionNumber int      `json:"question_number"`
	OriginalText   string   `json:"original_text"`
	CorrectedText  string   `json:"corrected_text"`
	OriginalCO     string   `json:"original_co"`
	CorrectedCO    *string  `json:"corrected_co,omitempty"`
	OriginalLevel  string   `json:"original_level"`
	CorrectedLevel *string  `json:"corrected_level,omitempty"`
	OriginalMarks  float64  `json:"original_marks"`
	CorrectedMarks *float64 `json:"corrected_marks,omitempty"`
}

// CorrectedPaper records one save-correction decision for a whole paper.
type CorrectedPaper struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectCode string    `gorm:"size:50;not null;index" json:"subject_code"`
	Semester    int       `gorm:"not null;index" json:"semester"`
	SubjectName string    `gorm:"size:255" json:"subject_name"`
	Department  string    `gorm:"size:100" json:"department"`

	CorrectedQuestions datatypes.JSON `gorm:"type:jsonb" json:"corrected_questions"`
	VerifierRemarks    string         `gorm:"type:text" json:"verifier_remarks"`
	VerifiedBy         string         `gorm:"size:255" json:"verified_by"`
	Status             string         `gorm:"size:20;default:'approved'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

func (cp *CorrectedPaper) BeforeCreate(tx *gorm.DB) error {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	return nil
}
