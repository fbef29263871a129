package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnforge/course-service/internal/services"
	"github.com/learnforge/course-service/internal/utils"
)

// QuestionHandler exposes quiz question management and xlsx import
type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importService   services.ImportExportService
}

func NewQuestionHandler(questionService services.QuestionService, importService services.ImportExportService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     BaseHandler{logger: logger},
		questionService: questionService,
		importService:   importService,
	}
}

// Create creates a question
// POST /api/v1/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req services.CreateQuestionRequest
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

	question, err := h.questionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Question created", "question_id", question.ID, "lesson_id", question.LessonID)
	c.JSON(http.StatusCreated, question)
}

// Update updates a question
// PATCH /api/v1/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	var req services.UpdateQuestionRequest
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

	question, err := h.questionService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// Delete archives a question
// DELETE /api/v1/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// Get returns a question without its correct answer
// GET /api/v1/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ListByLesson returns the active questions of one lesson
// GET /api/v1/lessons/:id/questions
func (h *QuestionHandler) ListByLesson(c *gin.Context) {
	lessonID := h.parseUUIDParam(c, "id")
	if lessonID == uuid.Nil {
		return
	}

	questions, err := h.questionService.GetByLesson(c.Request.Context(), lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: questions})
}

// Import bulk-loads questions into a lesson from an uploaded xlsx file
// POST /api/v1/lessons/:id/questions/import
func (h *QuestionHandler) Import(c *gin.Context) {
	lessonID := h.parseUUIDParam(c, "id")
	if lessonID == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importService.ImportQuestions(c.Request.Context(), lessonID, file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Questions imported",
		"lesson_id", lessonID,
		"imported", result.Imported,
		"skipped", result.Skipped)
	c.JSON(http.StatusOK, result)
}
