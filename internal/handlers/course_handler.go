package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnforge/course-service/internal/services"
	"github.com/learnforge/course-service/internal/utils"
)

// CourseHandler exposes the course and lesson catalog
type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   BaseHandler{logger: logger},
		courseService: courseService,
	}
}

// CreateCourse creates a course
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	course, err := h.courseService.CreateCourse(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Course created", "course_id", course.ID, "name", course.Name)
	c.JSON(http.StatusCreated, course)
}

// UpdateCourse updates a course
// PATCH /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	course, err := h.courseService.UpdateCourse(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse archives a course
// DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	if err := h.courseService.DeleteCourse(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Course archived", "course_id", id)
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

// GetCourse returns a course with its lessons
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	course, err := h.courseService.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// ListCourses returns the paginated catalog
// GET /api/v1/courses?name=&limit=&offset=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var name *string
	if value := c.Query("name"); value != "" {
		name = &value
	}

	courses, total, err := h.courseService.ListCourses(c.Request.Context(), name, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data: courses,
		Meta: gin.H{"total": total, "limit": limit, "offset": offset},
	})
}

// CreateLesson creates a lesson inside a course
// POST /api/v1/lessons
func (h *CourseHandler) CreateLesson(c *gin.Context) {
	var req services.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	lesson, err := h.courseService.CreateLesson(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Lesson created", "lesson_id", lesson.ID, "course_id", lesson.CourseID)
	c.JSON(http.StatusCreated, lesson)
}

// UpdateLesson updates a lesson
// PATCH /api/v1/lessons/:id
func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	var req services.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	lesson, err := h.courseService.UpdateLesson(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// DeleteLesson archives a lesson
// DELETE /api/v1/lessons/:id
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	if err := h.courseService.DeleteLesson(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lesson deleted"})
}

// GetLesson returns a single lesson
// GET /api/v1/lessons/:id
func (h *CourseHandler) GetLesson(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	lesson, err := h.courseService.GetLesson(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}
