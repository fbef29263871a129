package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
)

// EnrollmentPostgreSQL implements EnrollmentRepository over the nested
// jsonb progress column. Progress mutations are read-merge-write: the
// row is loaded, merged in memory via ProgressList, and written back as
// a whole. Enrollment rows are never cached; progress is the most
// frequently written data in the system and a stale read here would
// surface directly to the user.
type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (r *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *EnrollmentPostgreSQL) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.getDB(tx).WithContext(ctx).First(&enrollment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (r *EnrollmentPostgreSQL) GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error) {
	enrollment, err := r.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Archived {
		return nil, repositories.ErrNotActive
	}
	return enrollment, nil
}

func (r *EnrollmentPostgreSQL) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND archived = ?", userID, courseID, false).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

// GetAnyByUserAndCourse also matches archived rows, so re-enrollment can
// reactivate the old row instead of creating a duplicate.
func (r *EnrollmentPostgreSQL) GetAnyByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at DESC").
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (r *EnrollmentPostgreSQL) GetAllByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filters repositories.EnrollmentFilters) ([]*models.Enrollment, error) {
	query := r.getDB(tx).WithContext(ctx).Where("user_id = ?", userID)
	if filters.IncludeArchived == nil || !*filters.IncludeArchived {
		query = query.Where("archived = ?", false)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var enrollments []*models.Enrollment
	if err := query.Order("created_at DESC").Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if enrollment.Progress == nil {
		enrollment.Progress = models.ProgressList{}
	}
	if err := r.getDB(tx).WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

// Reactivate clears the archived flag and keeps the accumulated
// progress untouched.
func (r *EnrollmentPostgreSQL) Reactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error) {
	enrollment, err := r.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !enrollment.Archived {
		return enrollment, nil
	}

	err = r.getDB(tx).WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("archived", false).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reactivate enrollment: %w", err)
	}

	enrollment.Archived = false
	return enrollment, nil
}

func (r *EnrollmentPostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error) {
	enrollment, err := r.GetActive(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	err = r.getDB(tx).WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("archived", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to archive enrollment: %w", err)
	}

	enrollment.Archived = true
	return enrollment, nil
}

func (r *EnrollmentPostgreSQL) GetLessonProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, lessonID uuid.UUID) (*models.LessonProgress, error) {
	enrollment, err := r.GetActive(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	lesson := enrollment.Progress.Find(lessonID.String())
	if lesson == nil {
		return nil, repositories.ErrNotFound
	}

	// Copy out so callers cannot mutate the loaded row.
	questions := make([]models.QuestionProgress, len(lesson.Questions))
	copy(questions, lesson.Questions)
	return &models.LessonProgress{LessonID: lesson.LessonID, Questions: questions}, nil
}

// MergeQuestionProgress loads the row, merges the incoming entries into
// the nested structure and writes the whole progress column back. The
// write carries the complete merged document, so a lost update can drop
// a concurrent merge but can never produce a half-merged structure.
func (r *EnrollmentPostgreSQL) MergeQuestionProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, lessonID uuid.UUID, entries []models.QuestionProgress) (*models.Enrollment, error) {
	enrollment, err := r.GetActive(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return enrollment, nil
	}

	merged := enrollment.Progress.Merge(lessonID.String(), entries)

	err = r.getDB(tx).WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("progress", merged).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	enrollment.Progress = merged
	return enrollment, nil
}

// Reset replaces the progress with an empty list. The enrollment stays
// active.
func (r *EnrollmentPostgreSQL) Reset(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error) {
	enrollment, err := r.GetActive(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	empty := models.ProgressList{}
	err = r.getDB(tx).WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("progress", empty).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reset progress: %w", err)
	}

	enrollment.Progress = empty
	return enrollment, nil
}

// IsLessonCompleted compares the number of recorded answers for the
// lesson against the live count of active questions. An empty lesson
// (zero active questions) is never completed.
func (r *EnrollmentPostgreSQL) IsLessonCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, lessonID uuid.UUID) (bool, error) {
	enrollment, err := r.GetActive(ctx, tx, id)
	if err != nil {
		return false, err
	}

	return r.lessonCompleted(ctx, tx, enrollment, lessonID.String())
}

func (r *EnrollmentPostgreSQL) lessonCompleted(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment, lessonID string) (bool, error) {
	parsed, err := uuid.Parse(models.NormalizeID(lessonID))
	if err != nil {
		return false, nil
	}

	var total int64
	err = r.getDB(tx).WithContext(ctx).Model(&models.Question{}).
		Where("lesson_id = ? AND archived = ?", parsed, false).
		Count(&total).Error
	if err != nil {
		return false, fmt.Errorf("failed to count questions: %w", err)
	}
	if total == 0 {
		return false, nil
	}

	lesson := enrollment.Progress.Find(lessonID)
	if lesson == nil {
		return false, nil
	}

	return int64(len(lesson.Questions)) >= total, nil
}

// CompletedLessonCount counts, across the whole enrollment, lessons
// whose recorded answers cover every active question.
func (r *EnrollmentPostgreSQL) CompletedLessonCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int, error) {
	enrollment, err := r.GetActive(ctx, tx, id)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, lesson := range enrollment.Progress {
		done, err := r.lessonCompleted(ctx, tx, enrollment, lesson.LessonID)
		if err != nil {
			return 0, err
		}
		if done {
			completed++
		}
	}
	return completed, nil
}

// AverageEstimate returns the mean estimate over the lesson's recorded
// answers, rounded to two decimals. Returns nil when the lesson has no
// recorded answers.
func (r *EnrollmentPostgreSQL) AverageEstimate(ctx context.Context, tx *gorm.DB, id uuid.UUID, lessonID uuid.UUID) (*float64, error) {
	enrollment, err := r.GetActive(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	lesson := enrollment.Progress.Find(lessonID.String())
	if lesson == nil || len(lesson.Questions) == 0 {
		return nil, nil
	}

	sum := 0
	for _, q := range lesson.Questions {
		sum += q.Estimate
	}

	avg := math.Round(float64(sum)/float64(len(lesson.Questions))*100) / 100
	return &avg, nil
}
