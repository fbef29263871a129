package services

import (
	"errors"
	"fmt"

	"github.com/learnforge/course-service/internal/validator"
)

// Sentinel errors returned by services and mapped to HTTP statuses in
// the handlers.
var (
	// Catalog
	ErrCourseNotFound    = errors.New("course not found")
	ErrCourseNotActive   = errors.New("course is not active")
	ErrCourseNameExists  = errors.New("course with this name already exists")
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrLessonNotActive   = errors.New("lesson is not active")
	ErrLessonNameExists  = errors.New("lesson with this name already exists in the course")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrQuestionNotActive = errors.New("question is not active")

	// Enrollment and progress
	ErrEnrollmentNotFound    = errors.New("enrollment not found")
	ErrEnrollmentNotActive   = errors.New("enrollment is not active")
	ErrQuestionsCrossLessons = errors.New("submitted questions belong to different lessons")
	ErrQuestionNotInLesson   = errors.New("question does not belong to the lesson")
	ErrQuestionNotAnswered   = errors.New("question has not been answered yet")

	// Users and auth
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Reviews
	ErrReviewNotFound = errors.New("review not found")
)

// ValidationErrors re-exported so handlers can match with errors.As
// without importing the validator package.
type ValidationErrors = validator.ValidationErrors
type ValidationError = validator.ValidationError

// BusinessRuleError indicates a domain rule rejected the operation.
type BusinessRuleError struct {
	Rule     string
	Resource string
	Message  string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation on %s: %s", e.Resource, e.Message)
}

func NewBusinessRuleError(rule, resource, message string) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:     rule,
		Resource: resource,
		Message:  message,
	}
}

// PermissionError indicates the caller may not perform the operation.
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}
