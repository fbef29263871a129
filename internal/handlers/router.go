package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/services"
	"github.com/learnforge/course-service/internal/utils"
)

// HandlerManager owns all HTTP handlers and route registration
type HandlerManager struct {
	serviceManager services.ServiceManager
	auth           *JWTAuthMiddleware
	logger         utils.Logger

	authHandler     *AuthHandler
	courseHandler   *CourseHandler
	questionHandler *QuestionHandler
	progressHandler *ProgressHandler
	reviewHandler   *ReviewHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, auth *JWTAuthMiddleware, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		auth:           auth,
		logger:         logger,

		authHandler:     NewAuthHandler(serviceManager.Auth(), logger),
		courseHandler:   NewCourseHandler(serviceManager.Course(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), logger),
		progressHandler: NewProgressHandler(serviceManager.Progress(), serviceManager.ImportExport(), logger),
		reviewHandler:   NewReviewHandler(serviceManager.Review(), logger),
	}
}

// SetupRoutes registers all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")

	teacherOnly := hm.auth.RequireRoleMiddleware(models.RoleTeacher)
	adminOnly := hm.auth.RequireRoleMiddleware(models.RoleAdmin)

	auth := v1.Group("/auth")
	{
		auth.POST("/register", hm.authHandler.Register)
		auth.POST("/login", hm.authHandler.Login)
		auth.POST("/refresh", hm.authHandler.Refresh)
		auth.POST("/logout", hm.auth.AuthMiddleware(), hm.authHandler.Logout)
		auth.POST("/logout-all", hm.auth.AuthMiddleware(), hm.authHandler.LogoutAll)
		auth.POST("/change-password", hm.auth.AuthMiddleware(), hm.authHandler.ChangePassword)
		auth.GET("/me", hm.auth.AuthMiddleware(), hm.authHandler.Me)
	}

	users := v1.Group("/users")
	users.Use(hm.auth.AuthMiddleware())
	{
		users.PATCH("/:id/roles", adminOnly, hm.authHandler.UpdateRoles)
	}

	courses := v1.Group("/courses")
	courses.Use(hm.auth.AuthMiddleware())
	{
		courses.GET("", hm.courseHandler.ListCourses)
		courses.GET("/:id", hm.courseHandler.GetCourse)
		courses.POST("", teacherOnly, hm.courseHandler.CreateCourse)
		courses.PATCH("/:id", teacherOnly, hm.courseHandler.UpdateCourse)
		courses.DELETE("/:id", teacherOnly, hm.courseHandler.DeleteCourse)

		courses.POST("/:id/enroll", hm.progressHandler.Enroll)
		courses.DELETE("/:id/enroll", hm.progressHandler.Unenroll)
		courses.POST("/:id/progress/reset", teacherOnly, hm.progressHandler.ResetProgress)
		courses.GET("/:id/progress/export", teacherOnly, hm.progressHandler.ExportProgress)

		courses.GET("/:id/reviews", hm.reviewHandler.ListByCourse)
	}

	lessons := v1.Group("/lessons")
	lessons.Use(hm.auth.AuthMiddleware())
	{
		lessons.GET("/:id", hm.courseHandler.GetLesson)
		lessons.POST("", teacherOnly, hm.courseHandler.CreateLesson)
		lessons.PATCH("/:id", teacherOnly, hm.courseHandler.UpdateLesson)
		lessons.DELETE("/:id", teacherOnly, hm.courseHandler.DeleteLesson)

		lessons.GET("/:id/questions", hm.questionHandler.ListByLesson)
		lessons.POST("/:id/questions/import", teacherOnly, hm.questionHandler.Import)
		lessons.GET("/:id/progress", hm.progressHandler.GetLessonProgress)
	}

	questions := v1.Group("/questions")
	questions.Use(hm.auth.AuthMiddleware())
	{
		questions.GET("/:id", hm.questionHandler.Get)
		questions.POST("", teacherOnly, hm.questionHandler.Create)
		questions.PATCH("/:id", teacherOnly, hm.questionHandler.Update)
		questions.DELETE("/:id", teacherOnly, hm.questionHandler.Delete)
	}

	progress := v1.Group("/progress")
	progress.Use(hm.auth.AuthMiddleware())
	{
		progress.POST("/submit", hm.progressHandler.SubmitAnswers)
		progress.PATCH("/questions", teacherOnly, hm.progressHandler.UpdateQuestionProgress)
	}

	enrollments := v1.Group("/enrollments")
	enrollments.Use(hm.auth.AuthMiddleware())
	{
		enrollments.GET("/:id", hm.progressHandler.GetEnrollment)
	}

	me := v1.Group("/me")
	me.Use(hm.auth.AuthMiddleware())
	{
		me.GET("/courses", hm.progressHandler.ListEnrolledCourses)
		me.GET("/courses/:id", hm.progressHandler.GetEnrolledCourse)
	}

	reviews := v1.Group("/reviews")
	reviews.Use(hm.auth.AuthMiddleware())
	{
		reviews.POST("", hm.reviewHandler.Create)
		reviews.PATCH("/:id", hm.reviewHandler.Update)
		reviews.DELETE("/:id", hm.reviewHandler.Delete)
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
