package services

import (
	"errors"
	"strings"

	"qbank/models"

	"gorm.io/gorm"
)

type CurriculumService struct {
	db *gorm.DB
}

func NewCurriculumService(db *gorm.DB) *CurriculumService {
	return &CurriculumService{db: db}
}

type CurriculumCounts struct {
	Courses   int64 `json:"courses_count"`
	Units     int64 `json:"units_count"`
	Lessons   int64 `json:"lessons_count"`
	Questions int64 `json:"questions_count"`
}

// --- Courses ---

func (s *CurriculumService) CreateCourse(name string) (*models.Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("course name cannot be empty")
	}

	var count int64
	if err := s.db.Model(&models.Course{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateName
	}

	course := models.Course{Name: name}
	if err := s.db.Create(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *CurriculumService) UpdateCourse(courseID uint, name string) (*models.Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("course name cannot be empty")
	}

	course, err := s.CourseByID(courseID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Course{}).
		Where("name = ? AND id <> ?", name, courseID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateName
	}

	course.Name = name
	if err := s.db.Save(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes the course and everything under it: units, lessons,
// questions and options, all in one transaction. Deletes are hard so the
// course name is immediately free for reuse.
func (s *CurriculumService) DeleteCourse(courseID uint) error {
	if _, err := s.CourseByID(courseID); err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	unitIDs := tx.Model(&models.Unit{}).Select("id").Where("course_id = ?", courseID)
	lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("unit_id IN (?)", unitIDs)
	questionIDs := tx.Model(&models.Question{}).Select("id").Where("lesson_id IN (?)", lessonIDs)

	if err := tx.Unscoped().Where("question_id IN (?)", questionIDs).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Where("lesson_id IN (?)", lessonIDs).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Where("unit_id IN (?)", unitIDs).Delete(&models.Lesson{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Where("course_id = ?", courseID).Delete(&models.Unit{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Delete(&models.Course{}, courseID).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// --- Units ---

func (s *CurriculumService) CreateUnit(courseID uint, name string) (*models.Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("unit name cannot be empty")
	}

	if _, err := s.CourseByID(courseID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrMissingParent
		}
		return nil, err
	}

	unit := models.Unit{CourseID: courseID, Name: name}
	if err := s.db.Create(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (s *CurriculumService) UpdateUnit(unitID uint, name string) (*models.Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("unit name cannot be empty")
	}

	unit, err := s.UnitByID(unitID)
	if err != nil {
		return nil, err
	}

	unit.Name = name
	if err := s.db.Save(unit).Error; err != nil {
		return nil, err
	}
	return unit, nil
}

// DeleteUnit removes the unit with its lessons, questions and options.
func (s *CurriculumService) DeleteUnit(unitID uint) error {
	if _, err := s.UnitByID(unitID); err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("unit_id = ?", unitID)
	questionIDs := tx.Model(&models.Question{}).Select("id").Where("lesson_id IN (?)", lessonIDs)

	if err := tx.Unscoped().Where("question_id IN (?)", questionIDs).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Where("lesson_id IN (?)", lessonIDs).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Where("unit_id = ?", unitID).Delete(&models.Lesson{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Delete(&models.Unit{}, unitID).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// --- Lessons ---

func (s *CurriculumService) CreateLesson(unitID uint, name string) (*models.Lesson, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("lesson name cannot be empty")
	}

	if _, err := s.UnitByID(unitID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrMissingParent
		}
		return nil, err
	}

	lesson := models.Lesson{UnitID: unitID, Name: name}
	if err := s.db.Create(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (s *CurriculumService) UpdateLesson(lessonID uint, name string) (*models.Lesson, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("lesson name cannot be empty")
	}

	lesson, err := s.LessonByID(lessonID)
	if err != nil {
		return nil, err
	}

	lesson.Name = name
	if err := s.db.Save(lesson).Error; err != nil {
		return nil, err
	}
	return lesson, nil
}

// DeleteLesson removes the lesson with its questions and options.
func (s *CurriculumService) DeleteLesson(lessonID uint) error {
	if _, err := s.LessonByID(lessonID); err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	questionIDs := tx.Model(&models.Question{}).Select("id").Where("lesson_id = ?", lessonID)

	if err := tx.Unscoped().Where("question_id IN (?)", questionIDs).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Where("lesson_id = ?", lessonID).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Delete(&models.Lesson{}, lessonID).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// --- Queries ---

func (s *CurriculumService) CourseByID(courseID uint) (*models.Course, error) {
	var course models.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (s *CurriculumService) UnitByID(unitID uint) (*models.Unit, error) {
	var unit models.Unit
	if err := s.db.First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

func (s *CurriculumService) LessonByID(lessonID uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.db.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

// ListCourses returns the full curriculum tree ordered by name at each level.
func (s *CurriculumService) ListCourses() ([]models.Course, error) {
	var courses []models.Course
	err := s.db.
		Preload("Units", func(db *gorm.DB) *gorm.DB {
			return db.Order("units.name")
		}).
		Preload("Units.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.name")
		}).
		Order("name").
		Find(&courses).Error
	return courses, err
}

// UnitsByCourse returns the units of a course ordered by id.
func (s *CurriculumService) UnitsByCourse(courseID uint) ([]models.Unit, error) {
	if _, err := s.CourseByID(courseID); err != nil {
		return nil, err
	}

	var units []models.Unit
	err := s.db.Where("course_id = ?", courseID).Order("id").Find(&units).Error
	return units, err
}

// LessonsByUnit returns the lessons of a unit ordered by id.
func (s *CurriculumService) LessonsByUnit(unitID uint) ([]models.Lesson, error) {
	if _, err := s.UnitByID(unitID); err != nil {
		return nil, err
	}

	var lessons []models.Lesson
	err := s.db.Where("unit_id = ?", unitID).Order("id").Find(&lessons).Error
	return lessons, err
}

// SortedLessons returns all lessons with unit and course loaded, ordered by
// course name, unit name, lesson name. Feeds the question form's lesson picker.
func (s *CurriculumService) SortedLessons() ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.db.
		Joins("JOIN units ON units.id = lessons.unit_id AND units.deleted_at IS NULL").
		Joins("JOIN courses ON courses.id = units.course_id AND courses.deleted_at IS NULL").
		Preload("Unit.Course").
		Order("courses.name, units.name, lessons.name").
		Find(&lessons).Error
	return lessons, err
}

func (s *CurriculumService) Counts() (*CurriculumCounts, error) {
	var counts CurriculumCounts
	if err := s.db.Model(&models.Course{}).Count(&counts.Courses).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Unit{}).Count(&counts.Units).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Lesson{}).Count(&counts.Lessons).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Question{}).Count(&counts.Questions).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}
