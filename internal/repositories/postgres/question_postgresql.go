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

// QuestionPostgreSQL implements QuestionRepository. The correct answer
// never leaves this layer except through GetCorrectAnswer; answer
// checking compares normalized forms.
type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := r.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, r.cacheManager, question.ID.String(), question.LessonID.String(), "question_create")
	return nil
}

func (r *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	if err := r.getDB(tx).WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}

	for _, q := range questions {
		cache.InvalidateQuestionCache(ctx, r.cacheManager, q.ID.String(), q.LessonID.String(), "question_create_batch")
	}
	return nil
}

func (r *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Question, error) {
	var question models.Question

	if tx == nil && r.cacheManager != nil {
		err := r.cacheManager.Question.CacheOrExecute(ctx, id.String(), &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
			var q models.Question
			if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &q, nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, err
		}
		return &question, nil
	}

	if err := r.getDB(tx).WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (r *QuestionPostgreSQL) GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Question, error) {
	question, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if question.Archived {
		return nil, repositories.ErrNotActive
	}
	return question, nil
}

func (r *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	result := r.getDB(tx).WithContext(ctx).Model(&models.Question{}).Where("id = ?", question.ID).Updates(question)
	if result.Error != nil {
		return fmt.Errorf("failed to update question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateQuestionCache(ctx, r.cacheManager, question.ID.String(), question.LessonID.String(), "question_update")
	return nil
}

func (r *QuestionPostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	question, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if question.Archived {
		return repositories.ErrNotFound
	}

	result := r.getDB(tx).WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		Update("archived", true)
	if result.Error != nil {
		return fmt.Errorf("failed to archive question: %w", result.Error)
	}

	cache.InvalidateQuestionCache(ctx, r.cacheManager, id.String(), question.LessonID.String(), "question_soft_delete")
	return nil
}

func (r *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.Question{})
	query = applyQuestionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	var questions []*models.Question
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

func (r *QuestionPostgreSQL) GetByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*models.Question, error) {
	var questions []*models.Question
	err := r.getDB(tx).WithContext(ctx).
		Where("lesson_id = ? AND archived = ?", lessonID, false).
		Order("question_num ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions by lesson: %w", err)
	}
	return questions, nil
}

// CountActiveByLesson is the denominator of every lesson completion
// check, so it must always reflect the live state of the catalog.
// Inside transactions it reads through the tx; outside, a short exists
// cache bounds staleness.
func (r *QuestionPostgreSQL) CountActiveByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (int64, error) {
	if tx == nil && r.cacheManager != nil {
		var count int64
		err := r.cacheManager.Exists.CacheOrExecute(ctx, "lesson:"+lessonID.String()+":qcount", &count, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
			var c int64
			if err := r.db.WithContext(ctx).Model(&models.Question{}).
				Where("lesson_id = ? AND archived = ?", lessonID, false).
				Count(&c).Error; err != nil {
				return nil, err
			}
			return c, nil
		})
		if err != nil {
			return 0, err
		}
		return count, nil
	}

	var count int64
	err := r.getDB(tx).WithContext(ctx).Model(&models.Question{}).
		Where("lesson_id = ? AND archived = ?", lessonID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

func (r *QuestionPostgreSQL) GetCorrectAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID) (string, error) {
	var question models.Question
	err := r.getDB(tx).WithContext(ctx).
		Select("id, correct_answer, archived").
		First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", repositories.ErrNotFound
		}
		return "", fmt.Errorf("failed to get correct answer: %w", err)
	}
	if question.Archived {
		return "", repositories.ErrNotActive
	}
	return question.CorrectAnswer, nil
}

func (r *QuestionPostgreSQL) CheckAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID, userAnswer string) (bool, error) {
	correct, err := r.GetCorrectAnswer(ctx, tx, id)
	if err != nil {
		return false, err
	}
	return models.NormalizeAnswer(userAnswer) == models.NormalizeAnswer(correct), nil
}

func (r *QuestionPostgreSQL) GetLessonIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}

	var lessonIDs []uuid.UUID
	err := r.getDB(tx).WithContext(ctx).Model(&models.Question{}).
		Where("id IN ? AND archived = ?", questionIDs, false).
		Distinct("lesson_id").
		Pluck("lesson_id", &lessonIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson ids: %w", err)
	}
	return lessonIDs, nil
}
