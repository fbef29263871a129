package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/services"
	"github.com/learnforge/course-service/internal/utils"
)

// ErrorResponse is the error payload of every failed request
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps list payloads that carry metadata
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta interface{} `json:"meta,omitempty"`
}

// BaseHandler carries the pieces every handler needs
type BaseHandler struct {
	logger utils.Logger
}

// LogRequest logs an incoming request with its request id context
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// parseUUIDParam parses a path parameter as a UUID; on failure it
// writes the error response and returns uuid.Nil.
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) uuid.UUID {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: err.Error(),
		})
		return uuid.Nil
	}
	return id
}

// currentUserID extracts the authenticated user id set by the auth
// middleware; on failure it writes the error response and returns
// uuid.Nil.
func (h *BaseHandler) currentUserID(c *gin.Context) uuid.UUID {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return uuid.Nil
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return uuid.Nil
	}
	return userID
}

// currentUserEmail extracts the authenticated user's email
func (h *BaseHandler) currentUserEmail(c *gin.Context) string {
	if value, exists := c.Get("user_email"); exists {
		if email, ok := value.(string); ok {
			return email
		}
	}
	return ""
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":     businessRuleError.Rule,
				"resource": businessRuleError.Resource,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrLessonNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrEnrollmentNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrCourseNotActive),
		errors.Is(err, services.ErrLessonNotActive),
		errors.Is(err, services.ErrQuestionNotActive),
		errors.Is(err, services.ErrEnrollmentNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrCourseNameExists),
		errors.Is(err, services.ErrLessonNameExists),
		errors.Is(err, services.ErrEmailExists):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrQuestionsCrossLessons),
		errors.Is(err, services.ErrQuestionNotInLesson),
		errors.Is(err, services.ErrQuestionNotAnswered):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})

	default:
		utils.FromContext(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

// hasAnyRole reports whether the authenticated user carries one of the
// given roles (admin always qualifies).
func hasAnyRole(c *gin.Context, roles ...models.UserRole) bool {
	value, exists := c.Get("user_roles")
	if !exists {
		return false
	}
	userRoles, ok := value.([]models.UserRole)
	if !ok {
		return false
	}

	for _, have := range userRoles {
		if have == models.RoleAdmin {
			return true
		}
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
