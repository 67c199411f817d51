package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovedQuestion is a decision-time copy of a Question. Later edits to the
// live row do not propagate here; re-approval upserts on the paper key.
type ApprovedQuestion struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectCode    string    `gorm:"size:50;not null;uniqueIndex:idx_approved_paper_qno" json:"subject_code"`
	Semester       int       `gorm:"not null;uniqueIndex:idx_approved_paper_qno" json:"semester"`
	QuestionNumber int       `gorm:"not null;uniqueIndex:idx_approved_paper_qno" json:"question_number"`

	QuestionText string  `gorm:"type:text" json:"question_text"`
	Marks        float64 `gorm:"default:0" json:"marks"`
	CO           string  `gorm:"size:50" json:"co"`
	Level        string  `gorm:"size:50" json:"level"`

	SubjectName string `gorm:"size:255" json:"subject_name"`
	Department  string `gorm:"size:100" json:"department"`
	SetName     string `gorm:"size:50" json:"set_name"`

	Remarks    string     `gorm:"type:text" json:"remarks"`
	VerifiedBy string     `gorm:"size:255" json:"verified_by"`
	VerifiedAt *time.Time `json:"verified_at"`
	DecidedAt  time.Time  `json:"decided_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *ApprovedQuestion) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
