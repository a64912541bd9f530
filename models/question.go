package models

import (
	"time"

	"gorm.io/gorm"
)

type Question struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	LessonID             uint           `json:"lesson_id" gorm:"not null;index"`
	Text                 *string        `json:"text" gorm:"type:text"` // nullable: image-only questions are allowed
	ImagePath            *string        `json:"image_path"`
	Explanation          *string        `json:"explanation" gorm:"type:text"`
	ExplanationImagePath *string        `json:"explanation_image_path"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Lesson  Lesson   `json:"lesson,omitempty"`
	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}
