package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArchivedQuestion is the full-field copy taken when a paper is archived.
// Restore deletes these rows; the live Question rows are only ever flagged.
type ArchivedQuestion struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectCode    string    `gorm:"size:50;not null;index:idx_archived_paper" json:"subject_code"`
	Semester       int       `gorm:"not null;index:idx_archived_paper" json:"semester"`
	QuestionNumber int       `gorm:"not null" json:"question_number"`

	QuestionText string  `gorm:"type:text" json:"question_text"`
	Marks        float64 `gorm:"default:0" json:"marks"`
	CO           string  `gorm:"size:50" json:"co"`
	Level        string  `gorm:"size:50" json:"level"`

	SubjectName string `gorm:"size:255" json:"subject_name"`
	Department  string `gorm:"size:100" json:"department"`
	SetName     string `gorm:"size:50" json:"set_name"`

	Status     string     `gorm:"size:20" json:"status"`
	Remarks    string     `gorm:"type:text" json:"remarks"`
	VerifiedBy string     `gorm:"size:255" json:"verified_by"`
	VerifiedAt *time.Time `json:"verified_at"`

	ArchivedBy string    `gorm:"size:255" json:"archived_by"`
	ArchivedAt time.Time `json:"archived_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (a *ArchivedQuestion) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
