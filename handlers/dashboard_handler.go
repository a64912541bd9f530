package handlers

import (
	"net/http"

	"qbank/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	curriculum *services.CurriculumService
	questions  *services.QuestionService
	activities *services.ActivityService
	log        *zap.SugaredLogger
}

func NewDashboardHandler(
	curriculum *services.CurriculumService,
	questions *services.QuestionService,
	activities *services.ActivityService,
	log *zap.SugaredLogger,
) *DashboardHandler {
	return &DashboardHandler{
		curriculum: curriculum,
		questions:  questions,
		activities: activities,
		log:        log,
	}
}

type RecentQuestionPayload struct {
	ID         uint    `json:"id"`
	Text       *string `json:"text"`
	LessonName string  `json:"lesson_name"`
}

// GetDashboard returns the admin landing-page widgets: entity counts, the
// newest questions and the activity feed.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	counts, err := h.curriculum.Counts()
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	questions, err := h.questions.Recent(4)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	recentQuestions := make([]RecentQuestionPayload, 0, len(questions))
	for _, question := range questions {
		recentQuestions = append(recentQuestions, RecentQuestionPayload{
			ID:         question.ID,
			Text:       question.Text,
			LessonName: question.Lesson.Name,
		})
	}

	activities, err := h.activities.Recent(10)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	recentActivities := make([]ActivityPayload, 0, len(activities))
	for _, activity := range activities {
		recentActivities = append(recentActivities, ActivityPayload{
			ID:          activity.ID,
			Description: activity.Description,
			Icon:        activityIcon(activity.ActionType),
			Time:        timeAgo(activity.Timestamp),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"courses_count":     counts.Courses,
		"units_count":       counts.Units,
		"lessons_count":     counts.Lessons,
		"questions_count":   counts.Questions,
		"recent_questions":  recentQuestions,
		"recent_activities": recentActivities,
	})
}
