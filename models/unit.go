package models

import (
	"time"

	"gorm.io/gorm"
)

type Unit struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CourseID  uint           `json:"course_id" gorm:"not null;index"`
	Name      string         `json:"name" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Course  Course   `json:"course,omitempty"`
	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:UnitID"`
}
