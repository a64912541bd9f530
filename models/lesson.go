package models

import (
	"time"

	"gorm.io/gorm"
)

type Lesson struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UnitID    uint           `json:"unit_id" gorm:"not null;index"`
	Name      string         `json:"name" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Unit      Unit       `json:"unit,omitempty"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:LessonID"`
}
