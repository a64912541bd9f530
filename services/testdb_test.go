package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"qbank/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// openTestDB returns an isolated in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:qbank_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Unit{},
		&models.Lesson{},
		&models.Question{},
		&models.Option{},
		&models.Activity{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// seedLesson creates a course/unit/lesson chain and returns the lesson.
func seedLesson(t *testing.T, db *gorm.DB, courseName, unitName, lessonName string) *models.Lesson {
	t.Helper()

	curriculum := NewCurriculumService(db)
	course, err := curriculum.CreateCourse(courseName)
	if err != nil {
		t.Fatalf("CreateCourse(%q) failed: %v", courseName, err)
	}
	unit, err := curriculum.CreateUnit(course.ID, unitName)
	if err != nil {
		t.Fatalf("CreateUnit(%q) failed: %v", unitName, err)
	}
	lesson, err := curriculum.CreateLesson(unit.ID, lessonName)
	if err != nil {
		t.Fatalf("CreateLesson(%q) failed: %v", lessonName, err)
	}
	return lesson
}

// fourOptions builds a standard option set with one correct answer.
func fourOptions(texts [4]string, correct int) []OptionInput {
	options := make([]OptionInput, 0, 4)
	for i, text := range texts {
		options = append(options, OptionInput{Text: text, IsCorrect: i == correct})
	}
	return options
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}
