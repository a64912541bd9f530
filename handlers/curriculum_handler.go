package handlers

import (
	"fmt"
	"net/http"

	"qbank/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CurriculumHandler struct {
	curriculum *services.CurriculumService
	activities *services.ActivityService
	cache      *services.Cache
	log        *zap.SugaredLogger
}

func NewCurriculumHandler(
	curriculum *services.CurriculumService,
	activities *services.ActivityService,
	cache *services.Cache,
	log *zap.SugaredLogger,
) *CurriculumHandler {
	return &CurriculumHandler{
		curriculum: curriculum,
		activities: activities,
		cache:      cache,
		log:        log,
	}
}

type CreateCourseRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateUnitRequest struct {
	Name     string `json:"name" binding:"required"`
	CourseID uint   `json:"course_id" binding:"required"`
}

type CreateLessonRequest struct {
	Name   string `json:"name" binding:"required"`
	UnitID uint   `json:"unit_id" binding:"required"`
}

type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListCourses returns the full curriculum tree for the admin screens.
func (h *CurriculumHandler) ListCourses(c *gin.Context) {
	courses, err := h.curriculum.ListCourses()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CurriculumHandler) ListLessons(c *gin.Context) {
	lessons, err := h.curriculum.SortedLessons()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lessons)
}

// --- Courses ---

func (h *CurriculumHandler) CreateCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.curriculum.CreateCourse(req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "add",
		EntityType:  "course",
		EntityID:    course.ID,
		Description: fmt.Sprintf("Added course %q", course.Name),
		CourseName:  course.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusCreated, course)
}

func (h *CurriculumHandler) UpdateCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.curriculum.UpdateCourse(courseID, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "edit",
		EntityType:  "course",
		EntityID:    course.ID,
		Description: fmt.Sprintf("Renamed course to %q", course.Name),
		CourseName:  course.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusOK, course)
}

func (h *CurriculumHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}

	course, err := h.curriculum.CourseByID(courseID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.curriculum.DeleteCourse(courseID); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "delete",
		EntityType:  "course",
		EntityID:    courseID,
		Description: fmt.Sprintf("Deleted course %q and all its contents", course.Name),
		CourseName:  course.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Course and all its contents deleted"})
}

// --- Units ---

func (h *CurriculumHandler) CreateUnit(c *gin.Context) {
	var req CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.curriculum.CreateUnit(req.CourseID, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "add",
		EntityType:  "unit",
		EntityID:    unit.ID,
		Description: fmt.Sprintf("Added unit %q", unit.Name),
		UnitName:    unit.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusCreated, unit)
}

func (h *CurriculumHandler) UpdateUnit(c *gin.Context) {
	unitID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.curriculum.UpdateUnit(unitID, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "edit",
		EntityType:  "unit",
		EntityID:    unit.ID,
		Description: fmt.Sprintf("Renamed unit to %q", unit.Name),
		UnitName:    unit.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusOK, unit)
}

func (h *CurriculumHandler) DeleteUnit(c *gin.Context) {
	unitID, ok := parseID(c, "id")
	if !ok {
		return
	}

	unit, err := h.curriculum.UnitByID(unitID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.curriculum.DeleteUnit(unitID); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "delete",
		EntityType:  "unit",
		EntityID:    unitID,
		Description: fmt.Sprintf("Deleted unit %q and all its contents", unit.Name),
		UnitName:    unit.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Unit and all its contents deleted"})
}

// --- Lessons ---

func (h *CurriculumHandler) CreateLesson(c *gin.Context) {
	var req CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, err := h.curriculum.CreateLesson(req.UnitID, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "add",
		EntityType:  "lesson",
		EntityID:    lesson.ID,
		Description: fmt.Sprintf("Added lesson %q", lesson.Name),
		LessonName:  lesson.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusCreated, lesson)
}

func (h *CurriculumHandler) UpdateLesson(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, err := h.curriculum.UpdateLesson(lessonID, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "edit",
		EntityType:  "lesson",
		EntityID:    lesson.ID,
		Description: fmt.Sprintf("Renamed lesson to %q", lesson.Name),
		LessonName:  lesson.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusOK, lesson)
}

func (h *CurriculumHandler) DeleteLesson(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}

	lesson, err := h.curriculum.LessonByID(lessonID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.curriculum.DeleteLesson(lessonID); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.cache.Invalidate(c.Request.Context())
	h.activities.Record(services.ActivityRecord{
		ActionType:  "delete",
		EntityType:  "lesson",
		EntityID:    lessonID,
		Description: fmt.Sprintf("Deleted lesson %q and its questions", lesson.Name),
		LessonName:  lesson.Name,
		UserID:      currentUserID(c),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Lesson and its questions deleted"})
}
