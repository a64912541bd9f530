package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"qbank/models"
	"qbank/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIHandler serves the public read-only API consumed by quiz clients.
type APIHandler struct {
	questions  *services.QuestionService
	curriculum *services.CurriculumService
	activities *services.ActivityService
	cache      *services.Cache
	baseURL    string
	log        *zap.SugaredLogger
}

func NewAPIHandler(
	questions *services.QuestionService,
	curriculum *services.CurriculumService,
	activities *services.ActivityService,
	cache *services.Cache,
	baseURL string,
	log *zap.SugaredLogger,
) *APIHandler {
	return &APIHandler{
		questions:  questions,
		curriculum: curriculum,
		activities: activities,
		cache:      cache,
		baseURL:    baseURL,
		log:        log,
	}
}

type NamedItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type OptionPayload struct {
	OptionID   uint    `json:"option_id"`
	OptionText *string `json:"option_text"`
	ImageURL   *string `json:"image_url"`
	IsCorrect  bool    `json:"is_correct"`
}

type QuestionPayload struct {
	QuestionID          uint            `json:"question_id"`
	QuestionText        *string         `json:"question_text"`
	ImageURL            *string         `json:"image_url"`
	Explanation         *string         `json:"explanation"`
	ExplanationImageURL *string         `json:"explanation_image_url"`
	Options             []OptionPayload `json:"options"`
	CorrectOptionID     *uint           `json:"correct_option_id"`
}

type ActivityPayload struct {
	ID          uint   `json:"id"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Time        string `json:"time"`
}

func (h *APIHandler) GetCourses(c *gin.Context) {
	var payload []NamedItem
	if h.cache.Get(c.Request.Context(), "courses", &payload) {
		c.JSON(http.StatusOK, payload)
		return
	}

	courses, err := h.curriculum.ListCourses()
	if err != nil {
		h.fail(c, err, "")
		return
	}

	payload = make([]NamedItem, 0, len(courses))
	for _, course := range courses {
		payload = append(payload, NamedItem{ID: course.ID, Name: course.Name})
	}

	h.cache.Set(c.Request.Context(), "courses", payload)
	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) GetCourseUnits(c *gin.Context) {
	courseID, ok := parseID(c, "course_id")
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("courses:%d:units", courseID)
	var payload []NamedItem
	if h.cache.Get(c.Request.Context(), cacheKey, &payload) {
		c.JSON(http.StatusOK, payload)
		return
	}

	units, err := h.curriculum.UnitsByCourse(courseID)
	if err != nil {
		h.fail(c, err, "Course not found")
		return
	}

	payload = make([]NamedItem, 0, len(units))
	for _, unit := range units {
		payload = append(payload, NamedItem{ID: unit.ID, Name: unit.Name})
	}

	h.cache.Set(c.Request.Context(), cacheKey, payload)
	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) GetUnitLessons(c *gin.Context) {
	unitID, ok := parseID(c, "unit_id")
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("units:%d:lessons", unitID)
	var payload []NamedItem
	if h.cache.Get(c.Request.Context(), cacheKey, &payload) {
		c.JSON(http.StatusOK, payload)
		return
	}

	lessons, err := h.curriculum.LessonsByUnit(unitID)
	if err != nil {
		h.fail(c, err, "Unit not found")
		return
	}

	payload = make([]NamedItem, 0, len(lessons))
	for _, lesson := range lessons {
		payload = append(payload, NamedItem{ID: lesson.ID, Name: lesson.Name})
	}

	h.cache.Set(c.Request.Context(), cacheKey, payload)
	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) GetLessonQuestions(c *gin.Context) {
	lessonID, ok := parseID(c, "lesson_id")
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("lessons:%d:questions", lessonID)
	var payload []QuestionPayload
	if h.cache.Get(c.Request.Context(), cacheKey, &payload) {
		c.JSON(http.StatusOK, payload)
		return
	}

	questions, err := h.questions.ByLesson(lessonID)
	if err != nil {
		h.fail(c, err, "Lesson not found")
		return
	}

	payload = h.formatQuestions(questions)
	h.cache.Set(c.Request.Context(), cacheKey, payload)
	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) GetUnitQuestions(c *gin.Context) {
	unitID, ok := parseID(c, "unit_id")
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("units:%d:questions", unitID)
	var payload []QuestionPayload
	if h.cache.Get(c.Request.Context(), cacheKey, &payload) {
		c.JSON(http.StatusOK, payload)
		return
	}

	questions, err := h.questions.ByUnit(unitID)
	if err != nil {
		h.fail(c, err, "Unit not found")
		return
	}

	payload = h.formatQuestions(questions)
	h.cache.Set(c.Request.Context(), cacheKey, payload)
	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) GetCourseQuestions(c *gin.Context) {
	courseID, ok := parseID(c, "course_id")
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("courses:%d:questions", courseID)
	var payload []QuestionPayload
	if h.cache.Get(c.Request.Context(), cacheKey, &payload) {
		c.JSON(http.StatusOK, payload)
		return
	}

	questions, err := h.questions.ByCourse(courseID)
	if err != nil {
		h.fail(c, err, "Course not found")
		return
	}

	payload = h.formatQuestions(questions)
	h.cache.Set(c.Request.Context(), cacheKey, payload)
	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) GetCourseUnitQuestions(c *gin.Context) {
	courseID, ok := parseID(c, "course_id")
	if !ok {
		return
	}
	unitID, ok := parseID(c, "unit_id")
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("courses:%d:units:%d:questions", courseID, unitID)
	var payload []QuestionPayload
	if h.cache.Get(c.Request.Context(), cacheKey, &payload) {
		c.JSON(http.StatusOK, payload)
		return
	}

	questions, err := h.questions.ByCourseUnit(courseID, unitID)
	if err != nil {
		h.fail(c, err, "Unit not found in this course")
		return
	}

	payload = h.formatQuestions(questions)
	h.cache.Set(c.Request.Context(), cacheKey, payload)
	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) GetAllQuestions(c *gin.Context) {
	var payload []QuestionPayload
	if h.cache.Get(c.Request.Context(), "questions:all", &payload) {
		c.JSON(http.StatusOK, payload)
		return
	}

	questions, err := h.questions.All()
	if err != nil {
		h.fail(c, err, "")
		return
	}

	payload = h.formatQuestions(questions)
	h.cache.Set(c.Request.Context(), "questions:all", payload)
	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) GetRecentQuestions(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 5, 20)

	questions, err := h.questions.Recent(limit)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	c.JSON(http.StatusOK, h.formatQuestions(questions))
}

func (h *APIHandler) GetRandomQuestions(c *gin.Context) {
	count := parseLimit(c.Query("count"), 10, 50)

	questions, err := h.questions.Random(count)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	c.JSON(http.StatusOK, h.formatQuestions(questions))
}

func (h *APIHandler) GetRecentActivities(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 10, 50)

	activities, err := h.activities.Recent(limit)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	payload := make([]ActivityPayload, 0, len(activities))
	for _, activity := range activities {
		payload = append(payload, ActivityPayload{
			ID:          activity.ID,
			Description: activity.Description,
			Icon:        activityIcon(activity.ActionType),
			Time:        timeAgo(activity.Timestamp),
		})
	}

	c.JSON(http.StatusOK, payload)
}

func (h *APIHandler) formatQuestions(questions []models.Question) []QuestionPayload {
	payload := make([]QuestionPayload, 0, len(questions))
	for i := range questions {
		payload = append(payload, h.formatQuestion(&questions[i]))
	}
	return payload
}

func (h *APIHandler) formatQuestion(question *models.Question) QuestionPayload {
	options := make([]OptionPayload, 0, len(question.Options))
	var correctOptionID *uint
	for _, opt := range question.Options {
		options = append(options, OptionPayload{
			OptionID:   opt.ID,
			OptionText: opt.Text,
			ImageURL:   h.formatImageURL(opt.ImagePath),
			IsCorrect:  opt.IsCorrect,
		})
		if opt.IsCorrect {
			id := opt.ID
			correctOptionID = &id
		}
	}

	return QuestionPayload{
		QuestionID:          question.ID,
		QuestionText:        question.Text,
		ImageURL:            h.formatImageURL(question.ImagePath),
		Explanation:         question.Explanation,
		ExplanationImageURL: h.formatImageURL(question.ExplanationImagePath),
		Options:             options,
		CorrectOptionID:     correctOptionID,
	}
}

// formatImageURL turns a stored relative path into a URL the client can
// fetch. Absolute URLs pass through untouched.
func (h *APIHandler) formatImageURL(imagePath *string) *string {
	if imagePath == nil || *imagePath == "" {
		return imagePath
	}
	if strings.HasPrefix(*imagePath, "http://") || strings.HasPrefix(*imagePath, "https://") {
		return imagePath
	}

	path := services.SanitizePath(*imagePath)
	url := h.baseURL + "/static/" + path
	return &url
}

func (h *APIHandler) fail(c *gin.Context, err error, notFoundMsg string) {
	if errors.Is(err, services.ErrNotFound) && notFoundMsg != "" {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
		return
	}

	h.log.Errorw("api request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error occurred"})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

func parseLimit(raw string, fallback, max int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

func activityIcon(actionType string) string {
	icons := map[string]string{
		"add":    "fas fa-plus-circle",
		"edit":   "fas fa-edit",
		"delete": "fas fa-trash-alt",
		"import": "fas fa-file-import",
	}
	if icon, ok := icons[actionType]; ok {
		return icon
	}
	return "fas fa-info-circle"
}

func timeAgo(timestamp time.Time) string {
	diff := time.Since(timestamp)
	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	case diff >= time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	}
}
