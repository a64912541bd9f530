package routes

import (
	"net/http"

	"qbank/handlers"
	"qbank/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	curriculumHandler *handlers.CurriculumHandler,
	questionHandler *handlers.QuestionHandler,
	apiHandler *handlers.APIHandler,
	dashboardHandler *handlers.DashboardHandler,
	jwtSecret string,
	staticDir string,
) {
	// Uploaded images are served straight from disk
	router.Static("/static", staticDir)

	// Public read API consumed by quiz clients
	api := router.Group("/api/v1")
	{
		api.GET("/courses", apiHandler.GetCourses)
		api.GET("/courses/:course_id/units", apiHandler.GetCourseUnits)
		api.GET("/courses/:course_id/questions", apiHandler.GetCourseQuestions)
		api.GET("/courses/:course_id/units/:unit_id/questions", apiHandler.GetCourseUnitQuestions)
		api.GET("/units/:unit_id/lessons", apiHandler.GetUnitLessons)
		api.GET("/units/:unit_id/questions", apiHandler.GetUnitQuestions)
		api.GET("/lessons/:lesson_id/questions", apiHandler.GetLessonQuestions)
		api.GET("/questions/all", apiHandler.GetAllQuestions)
		api.GET("/questions/recent", apiHandler.GetRecentQuestions)
		api.GET("/questions/random", apiHandler.GetRandomQuestions)
		api.GET("/activities/recent", apiHandler.GetRecentActivities)
	}

	// Auth routes (public)
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Administrator routes
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret))
	{
		admin.GET("/profile", authHandler.GetProfile)
		admin.POST("/change-password", authHandler.ChangePassword)

		admin.GET("/dashboard", dashboardHandler.GetDashboard)

		admin.GET("/courses", curriculumHandler.ListCourses)
		admin.POST("/courses", curriculumHandler.CreateCourse)
		admin.PUT("/courses/:id", curriculumHandler.UpdateCourse)
		admin.DELETE("/courses/:id", curriculumHandler.DeleteCourse)

		admin.POST("/units", curriculumHandler.CreateUnit)
		admin.PUT("/units/:id", curriculumHandler.UpdateUnit)
		admin.DELETE("/units/:id", curriculumHandler.DeleteUnit)

		admin.GET("/lessons", curriculumHandler.ListLessons)
		admin.POST("/lessons", curriculumHandler.CreateLesson)
		admin.PUT("/lessons/:id", curriculumHandler.UpdateLesson)
		admin.DELETE("/lessons/:id", curriculumHandler.DeleteLesson)

		admin.GET("/questions", questionHandler.List)
		admin.GET("/questions/:id", questionHandler.Get)
		admin.POST("/questions", questionHandler.Create)
		admin.PUT("/questions/:id", questionHandler.Update)
		admin.DELETE("/questions/:id", questionHandler.Delete)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
