package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment maps a faculty member to a paper they are expected to submit.
// Status stored is pending/submitted; overdue is derived at read time from
// DueDate against the clock, never persisted.
type Assignment struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FacultyEmail string    `gorm:"size:255;not null;index" json:"faculty_email"`
	FacultyName  string    `gorm:"size:255" json:"faculty_name"`
	SubjectCode  string    `gorm:"size:50;not null" json:"subject_code"`
	SubjectName  string    `gorm:"size:255" json:"subject_name"`
	Semester     int       `gorm:"not null" json:"semester"`
	DueDate      time.Time `gorm:"not null" json:"due_date"`
	Status       string    `gorm:"size:20;default:'pending'" json:"status"`
	AssignedBy   string    `gorm:"size:255" json:"assigned_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
