package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"qbank/middleware"
	"qbank/models"
	"qbank/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

var testDBSeq int64

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:qbank_handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database failed: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Unit{},
		&models.Lesson{},
		&models.Question{},
		&models.Option{},
		&models.Activity{},
	); err != nil {
		t.Fatalf("migrating test database failed: %v", err)
	}
	return db
}

type testEnv struct {
	router    *gin.Engine
	db        *gorm.DB
	staticDir string
	questions *services.QuestionService
	auth      *services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := openTestDB(t)
	staticDir := t.TempDir()
	log := zap.NewNop().Sugar()

	questionService := services.NewQuestionService(db)
	curriculumService := services.NewCurriculumService(db)
	authService := services.NewAuthService(db, testJWTSecret)
	activityService := services.NewActivityService(db, log)
	storage := services.NewLocalStorage(staticDir)
	var cache *services.Cache // handlers tolerate a nil cache

	authHandler := NewAuthHandler(authService, log)
	curriculumHandler := NewCurriculumHandler(curriculumService, activityService, cache, log)
	questionHandler := NewQuestionHandler(questionService, curriculumService, activityService, storage, cache, log)
	apiHandler := NewAPIHandler(questionService, curriculumService, activityService, cache, "http://localhost:8080", log)
	dashboardHandler := NewDashboardHandler(curriculumService, questionService, activityService, log)

	router := gin.New()
	router.Static("/static", staticDir)

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

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(testJWTSecret))
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

	return &testEnv{
		router:    router,
		db:        db,
		staticDir: staticDir,
		questions: questionService,
		auth:      authService,
	}
}

func (e *testEnv) seedLesson(t *testing.T, courseName, unitName, lessonName string) *models.Lesson {
	t.Helper()

	course := models.Course{Name: courseName}
	if err := e.db.Create(&course).Error; err != nil {
		t.Fatalf("seeding course failed: %v", err)
	}
	unit := models.Unit{Name: unitName, CourseID: course.ID}
	if err := e.db.Create(&unit).Error; err != nil {
		t.Fatalf("seeding unit failed: %v", err)
	}
	lesson := models.Lesson{Name: lessonName, UnitID: unit.ID}
	if err := e.db.Create(&lesson).Error; err != nil {
		t.Fatalf("seeding lesson failed: %v", err)
	}
	return &lesson
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	if _, err := e.auth.Register("admin", "secret123"); err != nil {
		t.Fatalf("registering test user failed: %v", err)
	}
	token, _, err := e.auth.Login("admin", "secret123")
	if err != nil {
		t.Fatalf("logging in test user failed: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) getJSON(t *testing.T, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	rec := e.do(t, http.MethodGet, path, "", nil, "")
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s response failed: %v", path, err)
		}
	}
	return rec
}

func (e *testEnv) postJSON(t *testing.T, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encoding request body failed: %v", err)
	}
	return e.do(t, http.MethodPost, path, token, bytes.NewReader(body), "application/json")
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error response failed: %v", err)
	}
	return body.Error
}

// questionForm builds the multipart body the question endpoints consume.
type questionForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
}

func newQuestionForm() *questionForm {
	f := &questionForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *questionForm) field(t *testing.T, name, value string) *questionForm {
	t.Helper()
	if err := f.writer.WriteField(name, value); err != nil {
		t.Fatalf("writing form field failed: %v", err)
	}
	return f
}

func (f *questionForm) file(t *testing.T, name, filename string, content []byte) *questionForm {
	t.Helper()
	part, err := f.writer.CreateFormFile(name, filename)
	if err != nil {
		t.Fatalf("creating form file failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing form file failed: %v", err)
	}
	return f
}

func (f *questionForm) done(t *testing.T) (io.Reader, string) {
	t.Helper()
	if err := f.writer.Close(); err != nil {
		t.Fatalf("closing multipart writer failed: %v", err)
	}
	return &f.buf, f.writer.FormDataContentType()
}
