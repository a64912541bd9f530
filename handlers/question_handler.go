package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"qbank/models"
	"qbank/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const questionsPerPage = 10

// QuestionHandler serves the administrator question CRUD. Create and update
// arrive as multipart forms so image uploads ride along with the fields.
type QuestionHandler struct {
	questions  *services.QuestionService
	curriculum *services.CurriculumService
	activities *services.ActivityService
	storage    services.Storage
	cache      *services.Cache
	log        *zap.SugaredLogger
}

func NewQuestionHandler(
	questions *services.QuestionService,
	curriculum *services.CurriculumService,
	activities *services.ActivityService,
	storage services.Storage,
	cache *services.Cache,
	log *zap.SugaredLogger,
) *QuestionHandler {
	return &QuestionHandler{
		questions:  questions,
		curriculum: curriculum,
		activities: activities,
		storage:    storage,
		cache:      cache,
		log:        log,
	}
}

func (h *QuestionHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	questions, total, err := h.questions.List(page, questionsPerPage)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	totalPages := int((total + questionsPerPage - 1) / questionsPerPage)
	c.JSON(http.StatusOK, gin.H{
		"questions":   questions,
		"total":       total,
		"page":        page,
		"per_page":    questionsPerPage,
		"total_pages": totalPages,
	})
}

func (h *QuestionHandler) Get(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	question, err := h.questions.ByID(questionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) Create(c *gin.Context) {
	input, uploaded, ok := h.parseQuestionForm(c, false)
	if !ok {
		return
	}

	question, err := h.questions.Create(input)
	if err != nil {
		// the database write failed or was rejected: don't leave the files
		// it would have referenced behind
		h.removeFiles(uploaded)
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	lessonName, unitName, courseName := h.lessonContext(input.LessonID)
	h.activities.Record(services.ActivityRecord{
		ActionType:  "add",
		EntityType:  "question",
		EntityID:    question.ID,
		Description: fmt.Sprintf("Added a question to lesson %q", lessonName),
		LessonName:  lessonName,
		UnitName:    unitName,
		CourseName:  courseName,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	existing, err := h.questions.ByID(questionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	input, uploaded, ok := h.parseQuestionForm(c, true)
	if !ok {
		return
	}

	// keep the stored images when the form didn't replace them
	if input.ImagePath == "" && existing.ImagePath != nil {
		input.ImagePath = *existing.ImagePath
	}
	if input.ExplanationImagePath == "" && existing.ExplanationImagePath != nil {
		input.ExplanationImagePath = *existing.ExplanationImagePath
	}
	existingOptions := make(map[uint]*models.Option, len(existing.Options))
	for i := range existing.Options {
		existingOptions[existing.Options[i].ID] = &existing.Options[i]
	}
	for i := range input.Options {
		opt := &input.Options[i]
		if opt.ImagePath != "" || opt.ID == 0 {
			continue
		}
		if prev, found := existingOptions[opt.ID]; found && prev.ImagePath != nil {
			opt.ImagePath = *prev.ImagePath
		}
	}

	question, err := h.questions.Update(questionID, input)
	if err != nil {
		h.removeFiles(uploaded)
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	lessonName, unitName, courseName := h.lessonContext(input.LessonID)
	h.activities.Record(services.ActivityRecord{
		ActionType:  "edit",
		EntityType:  "question",
		EntityID:    question.ID,
		Description: fmt.Sprintf("Edited a question in lesson %q", lessonName),
		LessonName:  lessonName,
		UnitName:    unitName,
		CourseName:  courseName,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	question, err := h.questions.Delete(questionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	// rows are gone; now drop the image files they referenced
	var paths []string
	if question.ImagePath != nil {
		paths = append(paths, *question.ImagePath)
	}
	if question.ExplanationImagePath != nil {
		paths = append(paths, *question.ExplanationImagePath)
	}
	for _, opt := range question.Options {
		if opt.ImagePath != nil {
			paths = append(paths, *opt.ImagePath)
		}
	}
	h.removeFiles(paths)

	h.cache.Invalidate(c.Request.Context())
	lessonName, unitName, courseName := h.lessonContext(question.LessonID)
	h.activities.Record(services.ActivityRecord{
		ActionType:  "delete",
		EntityType:  "question",
		EntityID:    questionID,
		Description: fmt.Sprintf("Deleted a question from lesson %q", lessonName),
		LessonName:  lessonName,
		UnitName:    unitName,
		CourseName:  courseName,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// parseQuestionForm reads the multipart form, stores any uploads, and builds
// the service input. It returns the relative paths of files stored during
// this request so the caller can clean them up if the database write fails.
func (h *QuestionHandler) parseQuestionForm(c *gin.Context, withOptionIDs bool) (*services.QuestionInput, []string, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return nil, nil, false
	}

	lessonID, err := strconv.ParseUint(formValue(form.Value, "lesson_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lesson_id"})
		return nil, nil, false
	}

	correctIndex, err := strconv.Atoi(formValue(form.Value, "correct_option"))
	if err != nil || correctIndex < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid correct_option"})
		return nil, nil, false
	}

	var uploaded []string
	saveUpload := func(field, subfolder string) (string, bool) {
		files := form.File[field]
		if len(files) == 0 {
			return "", true
		}
		path, err := h.storage.Save(files[0], subfolder)
		if err != nil {
			h.removeFiles(uploaded)
			respondError(c, h.log, err)
			return "", false
		}
		uploaded = append(uploaded, path)
		return path, true
	}

	questionImage, ok := saveUpload("question_image", "questions")
	if !ok {
		return nil, nil, false
	}
	explanationImage, ok := saveUpload("explanation_image", "explanations")
	if !ok {
		return nil, nil, false
	}

	// option fields arrive as option_text_<n>; the suffix orders them
	var indices []int
	for key := range form.Value {
		var n int
		if _, err := fmt.Sscanf(key, "option_text_%d", &n); err == nil {
			indices = append(indices, n)
		}
	}
	sort.Ints(indices)

	options := make([]services.OptionInput, 0, len(indices))
	for i, n := range indices {
		optInput := services.OptionInput{
			Text:      formValue(form.Value, fmt.Sprintf("option_text_%d", n)),
			IsCorrect: i == correctIndex,
		}

		if withOptionIDs {
			if idStr := formValue(form.Value, fmt.Sprintf("option_id_%d", n)); idStr != "" {
				if id, err := strconv.ParseUint(idStr, 10, 32); err == nil {
					optInput.ID = uint(id)
				}
			}
		}

		imagePath, ok := saveUpload(fmt.Sprintf("option_image_%d", n), "options")
		if !ok {
			return nil, nil, false
		}
		optInput.ImagePath = imagePath

		options = append(options, optInput)
	}

	if correctIndex >= len(options) {
		h.removeFiles(uploaded)
		c.JSON(http.StatusBadRequest, gin.H{"error": "correct_option is out of range"})
		return nil, nil, false
	}

	return &services.QuestionInput{
		LessonID:             uint(lessonID),
		Text:                 formValue(form.Value, "question_text"),
		ImagePath:            questionImage,
		Explanation:          formValue(form.Value, "explanation"),
		ExplanationImagePath: explanationImage,
		Options:              options,
	}, uploaded, true
}

func (h *QuestionHandler) removeFiles(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := h.storage.Remove(path); err != nil {
			h.log.Warnw("failed to remove stored file", "path", path, "error", err)
		}
	}
}

func (h *QuestionHandler) lessonContext(lessonID uint) (lessonName, unitName, courseName string) {
	lesson, err := h.curriculum.LessonByID(lessonID)
	if err != nil {
		return "", "", ""
	}
	lessonName = lesson.Name

	unit, err := h.curriculum.UnitByID(lesson.UnitID)
	if err != nil {
		return lessonName, "", ""
	}
	unitName = unit.Name

	course, err := h.curriculum.CourseByID(unit.CourseID)
	if err != nil {
		return lessonName, unitName, ""
	}
	return lessonName, unitName, course.Name
}

func formValue(values map[string][]string, key string) string {
	if v, ok := values[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}
