package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/cache"
	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
)

// CoursePostgreSQL implements CourseRepository with read-through caching
type CoursePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise the default DB
func (r *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := r.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, course.ID.String(), "course_create")
	return nil
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Course, error) {
	var course models.Course

	// Skip the cache inside transactions so reads see uncommitted writes
	if tx == nil && r.cacheManager != nil {
		err := r.cacheManager.Course.CacheOrExecute(ctx, id.String(), &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
			var c models.Course
			if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &c, nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, err
		}
		return &course, nil
	}

	if err := r.getDB(tx).WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

func (r *CoursePostgreSQL) GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Course, error) {
	course, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if course.Archived {
		return nil, repositories.ErrNotActive
	}
	return course, nil
}

func (r *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	result := r.getDB(tx).WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).Updates(course)
	if result.Error != nil {
		return fmt.Errorf("failed to update course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, course.ID.String(), "course_update")
	return nil
}

func (r *CoursePostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := r.getDB(tx).WithContext(ctx).Model(&models.Course{}).
		Where("id = ? AND archived = ?", id, false).
		Update("archived", true)
	if result.Error != nil {
		return fmt.Errorf("failed to archive course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, id.String(), "course_soft_delete")
	return nil
}

func (r *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.Course{})
	query = applyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	var courses []*models.Course
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

func (r *CoursePostgreSQL) GetLessons(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := r.getDB(tx).WithContext(ctx).
		Where("course_id = ? AND archived = ?", courseID, false).
		Order("created_at ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course lessons: %w", err)
	}
	return lessons, nil
}

func (r *CoursePostgreSQL) IsActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64

	if tx == nil && r.cacheManager != nil {
		var active bool
		err := r.cacheManager.Exists.CacheOrExecute(ctx, "course:"+id.String(), &active, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
			var c int64
			if err := r.db.WithContext(ctx).Model(&models.Course{}).
				Where("id = ? AND archived = ?", id, false).
				Count(&c).Error; err != nil {
				return nil, err
			}
			return c > 0, nil
		})
		if err != nil {
			return false, err
		}
		return active, nil
	}

	err := r.getDB(tx).WithContext(ctx).Model(&models.Course{}).
		Where("id = ? AND archived = ?", id, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course status: %w", err)
	}
	return count > 0, nil
}

func (r *CoursePostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uuid.UUID) (bool, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.Course{}).
		Where("name = ? AND archived = ?", name, false)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check course name: %w", err)
	}
	return count > 0, nil
}
