package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subject struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubjectCode string    `gorm:"size:50;not null;unique" json:"subject_code"`
	SubjectName string    `gorm:"size:255;not null" json:"subject_name"`
	Department  string    `gorm:"size:100;not null" json:"department"`
	Semester    int       `gorm:"not null" json:"semester"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subject) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
