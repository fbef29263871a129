package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnforge/course-service/internal/services"
	"github.com/learnforge/course-service/internal/utils"
)

// ReviewHandler exposes course reviews
type ReviewHandler struct {
	BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService, logger utils.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   BaseHandler{logger: logger},
		reviewService: reviewService,
	}
}

// Create posts a review; the author must be enrolled in the course
// POST /api/v1/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	var req services.CreateReviewRequest
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

	review, err := h.reviewService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// Update edits the caller's own review (admins may edit any)
// PATCH /api/v1/reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	var req services.UpdateReviewRequest
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

	review, err := h.reviewService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// Delete removes the caller's own review (admins may remove any)
// DELETE /api/v1/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	id := h.parseUUIDParam(c, "id")
	if id == uuid.Nil {
		return
	}

	userID := h.currentUserID(c)
	if userID == uuid.Nil {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// ListByCourse lists the active reviews of a course
// GET /api/v1/courses/:id/reviews
func (h *ReviewHandler) ListByCourse(c *gin.Context) {
	courseID := h.parseUUIDParam(c, "id")
	if courseID == uuid.Nil {
		return
	}

	reviews, err := h.reviewService.GetByCourse(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: reviews})
}
