package repositories

import (
	"github.com/google/uuid"

	"github.com/learnforge/course-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Name            *string `json:"name"`
	IncludeArchived *bool   `json:"include_archived"`
	Limit           int     `json:"limit"`
	Offset          int     `json:"offset"`
	SortBy          string  `json:"sort_by"`    // "created_at", "name"
	SortOrder       string  `json:"sort_order"` // "asc", "desc"
}

type QuestionFilters struct {
	LessonID        *uuid.UUID `json:"lesson_id"`
	Name            *string    `json:"name"`
	IncludeArchived *bool      `json:"include_archived"`
	Limit           int        `json:"limit"`
	Offset          int        `json:"offset"`
	SortBy          string     `json:"sort_by"`
	SortOrder       string     `json:"sort_order"`
}

type UserFilters struct {
	Email           *string          `json:"email"`
	Role            *models.UserRole `json:"role"`
	IncludeArchived *bool            `json:"include_archived"`
	Limit           int              `json:"limit"`
	Offset          int              `json:"offset"`
	SortBy          string           `json:"sort_by"`
	SortOrder       string           `json:"sort_order"`
}

type EnrollmentFilters struct {
	IncludeArchived *bool `json:"include_archived"`
	Limit           int   `json:"limit"`
	Offset          int   `json:"offset"`
}
