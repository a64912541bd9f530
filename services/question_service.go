package services

import (
	"errors"
	"strings"

	"qbank/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

type OptionInput struct {
	ID        uint   // existing option id on update, zero for new options
	Text      string
	ImagePath string
	IsCorrect bool
}

type QuestionInput struct {
	LessonID             uint
	Text                 string
	ImagePath            string
	Explanation          string
	ExplanationImagePath string
	Options              []OptionInput
}

// Create validates the full proposed option set before writing anything and
// persists the question with its options in one transaction.
func (s *QuestionService) Create(input *QuestionInput) (*models.Question, error) {
	if err := s.validate(input, 0); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	question := models.Question{
		LessonID:             input.LessonID,
		Text:                 nullable(input.Text),
		ImagePath:            nullable(input.ImagePath),
		Explanation:          nullable(input.Explanation),
		ExplanationImagePath: nullable(input.ExplanationImagePath),
	}
	if err := tx.Create(&question).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, optInput := range input.Options {
		option := models.Option{
			QuestionID: question.ID,
			Text:       nullable(optInput.Text),
			ImagePath:  nullable(optInput.ImagePath),
			IsCorrect:  optInput.IsCorrect,
		}
		if err := tx.Create(&option).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.ByID(question.ID)
}

// Update replaces the question's fields and reconciles its option set:
// submitted option ids are updated, entries without an id are inserted, and
// existing options left out of the submission are deleted.
func (s *QuestionService) Update(questionID uint, input *QuestionInput) (*models.Question, error) {
	question, err := s.ByID(questionID)
	if err != nil {
		return nil, err
	}

	if err := s.validate(input, questionID); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	question.LessonID = input.LessonID
	question.Text = nullable(input.Text)
	question.ImagePath = nullable(input.ImagePath)
	question.Explanation = nullable(input.Explanation)
	question.ExplanationImagePath = nullable(input.ExplanationImagePath)

	if err := tx.Save(question).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	existing := make(map[uint]*models.Option, len(question.Options))
	for i := range question.Options {
		existing[question.Options[i].ID] = &question.Options[i]
	}

	submitted := make(map[uint]bool, len(input.Options))
	for _, optInput := range input.Options {
		if opt, ok := existing[optInput.ID]; optInput.ID != 0 && ok {
			opt.Text = nullable(optInput.Text)
			opt.ImagePath = nullable(optInput.ImagePath)
			opt.IsCorrect = optInput.IsCorrect
			if err := tx.Save(opt).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			submitted[opt.ID] = true
			continue
		}

		option := models.Option{
			QuestionID: question.ID,
			Text:       nullable(optInput.Text),
			ImagePath:  nullable(optInput.ImagePath),
			IsCorrect:  optInput.IsCorrect,
		}
		if err := tx.Create(&option).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	for id := range existing {
		if !submitted[id] {
			if err := tx.Unscoped().Delete(&models.Option{}, id).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.ByID(questionID)
}

// Delete removes the question and its options. The deleted question is
// returned so the caller can clean up referenced image files.
func (s *QuestionService) Delete(questionID uint) (*models.Question, error) {
	question, err := s.ByID(questionID)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Unscoped().Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Unscoped().Delete(&models.Question{}, questionID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return question, nil
}

func (s *QuestionService) validate(input *QuestionInput, excludeQuestionID uint) error {
	var lessonCount int64
	if err := s.db.Model(&models.Lesson{}).Where("id = ?", input.LessonID).Count(&lessonCount).Error; err != nil {
		return err
	}
	if lessonCount == 0 {
		return ErrMissingParent
	}

	text := strings.TrimSpace(input.Text)
	if text == "" && strings.TrimSpace(input.ImagePath) == "" {
		return validationErrorf("a question needs text or an image")
	}

	if len(input.Options) < 2 {
		return validationErrorf("a question needs at least two options")
	}

	correctCount := 0
	for i, optInput := range input.Options {
		if strings.TrimSpace(optInput.Text) == "" && strings.TrimSpace(optInput.ImagePath) == "" {
			return validationErrorf("option %d needs text or an image", i+1)
		}
		if optInput.IsCorrect {
			correctCount++
		}
	}
	if correctCount != 1 {
		return validationErrorf("a question must have exactly one correct option, got %d", correctCount)
	}

	if text != "" {
		query := s.db.Model(&models.Question{}).Where("text = ? AND lesson_id = ?", text, input.LessonID)
		if excludeQuestionID != 0 {
			query = query.Where("id <> ?", excludeQuestionID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateName
		}
	}

	return nil
}

// --- Queries ---

func (s *QuestionService) ByID(questionID uint) (*models.Question, error) {
	var question models.Question
	err := s.withOptions().First(&question, questionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// ByLesson returns the lesson's questions ordered by id with options ordered
// by id.
func (s *QuestionService) ByLesson(lessonID uint) ([]models.Question, error) {
	var lessonCount int64
	if err := s.db.Model(&models.Lesson{}).Where("id = ?", lessonID).Count(&lessonCount).Error; err != nil {
		return nil, err
	}
	if lessonCount == 0 {
		return nil, ErrNotFound
	}

	var questions []models.Question
	err := s.withOptions().
		Where("lesson_id = ?", lessonID).
		Order("id").
		Find(&questions).Error
	return questions, err
}

func (s *QuestionService) ByUnit(unitID uint) ([]models.Question, error) {
	var unitCount int64
	if err := s.db.Model(&models.Unit{}).Where("id = ?", unitID).Count(&unitCount).Error; err != nil {
		return nil, err
	}
	if unitCount == 0 {
		return nil, ErrNotFound
	}

	lessonIDs := s.db.Model(&models.Lesson{}).Select("id").Where("unit_id = ?", unitID)

	var questions []models.Question
	err := s.withOptions().
		Where("lesson_id IN (?)", lessonIDs).
		Order("id").
		Find(&questions).Error
	return questions, err
}

func (s *QuestionService) ByCourse(courseID uint) ([]models.Question, error) {
	var courseCount int64
	if err := s.db.Model(&models.Course{}).Where("id = ?", courseID).Count(&courseCount).Error; err != nil {
		return nil, err
	}
	if courseCount == 0 {
		return nil, ErrNotFound
	}

	unitIDs := s.db.Model(&models.Unit{}).Select("id").Where("course_id = ?", courseID)
	lessonIDs := s.db.Model(&models.Lesson{}).Select("id").Where("unit_id IN (?)", unitIDs)

	var questions []models.Question
	err := s.withOptions().
		Where("lesson_id IN (?)", lessonIDs).
		Order("id").
		Find(&questions).Error
	return questions, err
}

// ByCourseUnit returns the unit's questions after verifying the unit actually
// belongs to the course.
func (s *QuestionService) ByCourseUnit(courseID, unitID uint) ([]models.Question, error) {
	var unit models.Unit
	if err := s.db.First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if unit.CourseID != courseID {
		return nil, ErrNotFound
	}

	return s.ByUnit(unitID)
}

func (s *QuestionService) All() ([]models.Question, error) {
	var questions []models.Question
	err := s.withOptions().Order("id").Find(&questions).Error
	return questions, err
}

// Recent returns the newest questions first.
func (s *QuestionService) Recent(limit int) ([]models.Question, error) {
	var questions []models.Question
	err := s.withOptions().
		Preload("Lesson").
		Order("id DESC").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

// Random returns up to count questions in random order.
func (s *QuestionService) Random(count int) ([]models.Question, error) {
	var questions []models.Question
	err := s.withOptions().
		Order("RANDOM()").
		Limit(count).
		Find(&questions).Error
	return questions, err
}

// List returns a newest-first page for the admin listing, with the full
// lesson/unit/course chain loaded, plus the total question count.
func (s *QuestionService) List(page, perPage int) ([]models.Question, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.db.Model(&models.Question{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []models.Question
	err := s.withOptions().
		Preload("Lesson.Unit.Course").
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&questions).Error
	return questions, total, err
}

func (s *QuestionService) withOptions() *gorm.DB {
	return s.db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("options.id")
	})
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
