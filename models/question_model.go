package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is one row of a logical paper. The paper itself is never stored;
// it is always reconstructed by grouping rows on (subject_code, semester).
type Question struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectCode    string    `gorm:"size:50;not null;uniqueIndex:idx_questions_paper_qno" json:"subject_code"`
	Semester       int       `gorm:"not null;uniqueIndex:idx_questions_paper_qno" json:"semester"`
	QuestionNumber int       `gorm:"not null;uniqueIndex:idx_questions_paper_qno" json:"question_number"`

	QuestionText string  `gorm:"type:text;not null" json:"question_text"`
	Marks        float64 `gorm:"not null;default:0" json:"marks"`
	CO           string  `gorm:"size:50" json:"co"`
	Level        string  `gorm:"size:50" json:"level"`

	SubjectName string `gorm:"size:255" json:"subject_name"`
	Department  string `gorm:"size:100" json:"department"`
	SetName     string `gorm:"size:50" json:"set_name"`

	Status      string     `gorm:"size:20;default:'pending'" json:"status"`
	Approved    bool       `gorm:"default:false" json:"approved"`
	Remarks     string     `gorm:"type:text" json:"remarks"`
	SubmittedBy string     `gorm:"size:255" json:"submitted_by"`
	VerifiedBy  string     `gorm:"size:255" json:"verified_by"`
	VerifiedAt  *time.Time `json:"verified_at"`

	AttachmentName *string `gorm:"size:255" json:"attachment_name"`
	AttachmentType *string `gorm:"size:100" json:"attachment_type"`
	AttachmentData []byte  `gorm:"type:bytea" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
