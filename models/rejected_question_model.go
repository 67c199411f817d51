package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RejectedQuestion mirrors ApprovedQuestion for the reject side. Any row for a
// (subject_code, semester) key removes that paper from the review queue.
type RejectedQuestion struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectCode    string    `gorm:"size:50;not null;uniqueIndex:idx_rejected_paper_qno" json:"subject_code"`
	Semester       int       `gorm:"not null;uniqueIndex:idx_rejected_paper_qno" json:"semester"`
	QuestionNumber int       `gorm:"not null;uniqueIndex:idx_rejected_paper_qno" json:"question_number"`

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

func (r *RejectedQuestion) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
