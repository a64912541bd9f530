package models

import (
	"time"
)

// Activity records create/edit/delete events for the dashboard feed.
type Activity struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ActionType  string    `json:"action_type" gorm:"not null"` // add, edit, delete, import
	EntityType  string    `json:"entity_type" gorm:"not null"` // question, lesson, unit, course
	EntityID    *uint     `json:"entity_id"`
	Description string    `json:"description" gorm:"type:text;not null"`
	LessonName  *string   `json:"lesson_name"`
	UnitName    *string   `json:"unit_name"`
	CourseName  *string   `json:"course_name"`
	UserID      *uint     `json:"user_id"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
}
