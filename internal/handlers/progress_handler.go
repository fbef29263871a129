package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnforge/course-service/internal/services"
	"github.com/learnforge/course-service/internal/utils"
)

// ProgressHandler exposes enrollments and the student's progress
type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
	exportService   services.ImportExportService
}

func NewProgressHandler(progressService services.ProgressService, exportService services.ImportExportService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     BaseHandler{logger: logger},
		progressService: progressService,
		exportService:   exportService,
	}
}

// Enroll enrolls the current user into a course. Re-enrolling is
// idempotent and reactivating an archived enrollment keeps its progress.
// POST /api/v1/courses/:id/enroll
func (h *ProgressHandler) Enroll(c *gin.Context) {
	courseID := h.parseUUIDParam(c, "id")
	if courseID == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	enrollment, err := h.progressService.Enroll(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User enrolled", "user_id", userID, "course_id", courseID)
	c.JSON(http.StatusCreated, enrollment)
}

// Unenroll archives the current user's enrollment
// DELETE /api/v1/courses/:id/enroll
func (h *ProgressHandler) Unenroll(c *gin.Context) {
	courseID := h.parseUUIDParam(c, "id")
	if courseID == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	if err := h.progressService.Unenroll(c.Request.Context(), userID, courseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unenrolled"})
}

// SubmitAnswers grades a batch of answers and records first-time
// results in the user's progress, enrolling them if needed.
// POST /api/v1/progress/submit
func (h *ProgressHandler) SubmitAnswers(c *gin.Context) {
	var req services.SubmitAnswersRequest
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

	result, err := h.progressService.SubmitAnswers(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Answers submitted",
		"user_id", userID,
		"lesson_id", req.LessonID,
		"count", len(req.Answers),
		"lesson_completed", result.LessonCompleted)
	c.JSON(http.StatusOK, result)
}

// UpdateQuestionProgress overwrites the recorded estimate of an
// already answered question on a student's enrollment. Teacher only.
// PATCH /api/v1/progress/questions
func (h *ProgressHandler) UpdateQuestionProgress(c *gin.Context) {
	var req services.UpdateQuestionProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid user ID"})
		return
	}

	enrollment, err := h.progressService.UpdateQuestionProgress(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// ResetProgress clears a student's recorded progress in a course.
// Teacher only; the target student comes from the request body.
// POST /api/v1/courses/:id/progress/reset
func (h *ProgressHandler) ResetProgress(c *gin.Context) {
	courseID := h.parseUUIDParam(c, "id")
	if courseID == uuid.Nil {
		return
	}

	var req services.ResetProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid user ID"})
		return
	}

	enrollment, err := h.progressService.ResetProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Progress reset", "user_id", userID, "course_id", courseID)
	c.JSON(http.StatusOK, enrollment)
}

// GetLessonProgress returns the current user's view of one lesson.
// A lesson the user has not started returns started=false, not 404.
// GET /api/v1/lessons/:id/progress
func (h *ProgressHandler) GetLessonProgress(c *gin.Context) {
	lessonID := h.parseUUIDParam(c, "id")
	if lessonID == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	view, err := h.progressService.GetLessonProgress(c.Request.Context(), userID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListEnrolledCourses returns the current user's courses with
// completion counts.
// GET /api/v1/me/courses
func (h *ProgressHandler) ListEnrolledCourses(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	courses, err := h.progressService.GetCourseList(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: courses})
}

// GetEnrollment returns the per-lesson breakdown of one enrollment.
// Owners see their own; admins see anyone's.
// GET /api/v1/enrollments/:id
func (h *ProgressHandler) GetEnrollment(c *gin.Context) {
	enrollmentID := h.parseUUIDParam(c, "id")
	if enrollmentID == uuid.Nil {
		return
	}

	callerID := h.currentUserID(c)
	if callerID == uuid.Nil {
		return
	}

	detail, err := h.progressService.GetEnrollmentDetail(c.Request.Context(), callerID, enrollmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetEnrolledCourse returns one enrolled course with per-lesson progress
// GET /api/v1/me/courses/:id
func (h *ProgressHandler) GetEnrolledCourse(c *gin.Context) {
	courseID := h.parseUUIDParam(c, "id")
	if courseID == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	detail, err := h.progressService.GetCourseDetail(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ExportProgress streams a progress report workbook for a course
// GET /api/v1/courses/:id/progress/export
func (h *ProgressHandler) ExportProgress(c *gin.Context) {
	courseID := h.parseUUIDParam(c, "id")
	if courseID == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	data, err := h.exportService.ExportProgressReport(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("progress-%s-%s.xlsx", courseID, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
