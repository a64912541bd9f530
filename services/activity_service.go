package services

import (
	"time"

	"qbank/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ActivityService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewActivityService(db *gorm.DB, log *zap.SugaredLogger) *ActivityService {
	return &ActivityService{db: db, log: log}
}

type ActivityRecord struct {
	ActionType  string // add, edit, delete, import
	EntityType  string // question, lesson, unit, course
	EntityID    uint
	Description string
	LessonName  string
	UnitName    string
	CourseName  string
	UserID      uint
}

// Record appends a feed row. A failure here never fails the mutation that
// triggered it; it is logged and dropped.
func (s *ActivityService) Record(rec ActivityRecord) {
	activity := models.Activity{
		ActionType:  rec.ActionType,
		EntityType:  rec.EntityType,
		Description: rec.Description,
		LessonName:  nullable(rec.LessonName),
		UnitName:    nullable(rec.UnitName),
		CourseName:  nullable(rec.CourseName),
		Timestamp:   time.Now().UTC(),
	}
	if rec.EntityID != 0 {
		activity.EntityID = &rec.EntityID
	}
	if rec.UserID != 0 {
		activity.UserID = &rec.UserID
	}

	if err := s.db.Create(&activity).Error; err != nil {
		s.log.Errorw("failed to record activity",
			"action", rec.ActionType, "entity", rec.EntityType, "error", err)
	}
}

// Recent returns the newest feed rows first.
func (s *ActivityService) Recent(limit int) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.Order("timestamp DESC").Limit(limit).Find(&activities).Error
	return activities, err
}
