package postgres

import (
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/repositories"
)

// applyCourseFilters applies common filters to course queries
func applyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.Name != nil {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+*filters.Name+"%")
	}
	if filters.IncludeArchived == nil || !*filters.IncludeArchived {
		query = query.Where("archived = ?", false)
	}
	return query
}

// applyQuestionFilters applies common filters to question queries
func applyQuestionFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.LessonID != nil {
		query = query.Where("lesson_id = ?", *filters.LessonID)
	}
	if filters.Name != nil {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+*filters.Name+"%")
	}
	if filters.IncludeArchived == nil || !*filters.IncludeArchived {
		query = query.Where("archived = ?", false)
	}
	return query
}

// applyUserFilters applies common filters to user queries
func applyUserFilters(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	if filters.Email != nil {
		query = query.Where("email = ?", *filters.Email)
	}
	if filters.Role != nil {
		query = query.Where("roles @> ?", `["`+string(*filters.Role)+`"]`)
	}
	if filters.IncludeArchived == nil || !*filters.IncludeArchived {
		query = query.Where("archived = ?", false)
	}
	return query
}

// applyPaginationAndSort applies pagination and sorting with SQL injection protection
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"id":           true,
		"name":         true,
		"email":        true,
		"question_num": true,
	}

	// Validate and set sort column
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	// Validate and set sort order
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
