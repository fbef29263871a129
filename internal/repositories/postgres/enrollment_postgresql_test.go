package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique in-memory database per test; shared cache keeps the pooled
	// connections pointed at the same database.
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Lesson{},
		&models.Question{},
		&models.Enrollment{},
		&models.Review{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type progressFixture struct {
	db         *gorm.DB
	repo       repositories.EnrollmentRepository
	enrollment *models.Enrollment
	lessonID   uuid.UUID
	questions  []uuid.UUID
}

// seedProgressFixture creates a course with one lesson holding n active
// questions, plus an active enrollment for a fresh user.
func seedProgressFixture(t *testing.T, questionCount int) *progressFixture {
	t.Helper()

	db := newTestDB(t)
	ctx := context.Background()

	course := &models.Course{ID: uuid.New(), Name: "Go Fundamentals"}
	require.NoError(t, db.WithContext(ctx).Create(course).Error)

	lesson := &models.Lesson{ID: uuid.New(), Name: "Slices", CourseID: course.ID}
	require.NoError(t, db.WithContext(ctx).Create(lesson).Error)

	questions := make([]uuid.UUID, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		q := &models.Question{
			ID:            uuid.New(),
			QuestionNum:   i + 1,
			Name:          "q",
			Question:      "what is a slice?",
			Choices:       []byte(`["a","b"]`),
			CorrectAnswer: "a",
			LessonID:      lesson.ID,
		}
		require.NoError(t, db.WithContext(ctx).Create(q).Error)
		questions = append(questions, q.ID)
	}

	repo := NewEnrollmentPostgreSQL(db)
	enrollment := &models.Enrollment{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		CourseID: course.ID,
	}
	require.NoError(t, repo.Create(ctx, nil, enrollment))

	return &progressFixture{
		db:         db,
		repo:       repo,
		enrollment: enrollment,
		lessonID:   lesson.ID,
		questions:  questions,
	}
}

func TestEnrollmentMergeQuestionProgress(t *testing.T) {
	f := seedProgressFixture(t, 2)
	ctx := context.Background()

	updated, err := f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 100},
	})
	require.NoError(t, err)
	require.Len(t, updated.Progress, 1)
	require.Len(t, updated.Progress[0].Questions, 1)

	// Second merge appends the new question and overwrites the old one
	updated, err = f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 0},
		{QuestionID: f.questions[1].String(), Estimate: 100},
	})
	require.NoError(t, err)
	require.Len(t, updated.Progress, 1)
	require.Len(t, updated.Progress[0].Questions, 2)
	assert.Equal(t, 0, updated.Progress[0].Questions[0].Estimate)
	assert.Equal(t, 100, updated.Progress[0].Questions[1].Estimate)

	// The merged document survives a reload
	reloaded, err := f.repo.Get(ctx, nil, f.enrollment.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Progress, 1)
	assert.Len(t, reloaded.Progress[0].Questions, 2)
}

func TestEnrollmentMergeRequiresActiveRow(t *testing.T) {
	f := seedProgressFixture(t, 1)
	ctx := context.Background()

	_, err := f.repo.SoftDelete(ctx, nil, f.enrollment.ID)
	require.NoError(t, err)

	_, err = f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 100},
	})
	assert.ErrorIs(t, err, repositories.ErrNotActive)
}

func TestEnrollmentReset(t *testing.T) {
	f := seedProgressFixture(t, 1)
	ctx := context.Background()

	_, err := f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 100},
	})
	require.NoError(t, err)

	reset, err := f.repo.Reset(ctx, nil, f.enrollment.ID)
	require.NoError(t, err)
	assert.Empty(t, reset.Progress)

	reloaded, err := f.repo.Get(ctx, nil, f.enrollment.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Progress)
	assert.False(t, reloaded.Archived)
}

func TestEnrollmentReactivateKeepsProgress(t *testing.T) {
	f := seedProgressFixture(t, 1)
	ctx := context.Background()

	_, err := f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 100},
	})
	require.NoError(t, err)

	_, err = f.repo.SoftDelete(ctx, nil, f.enrollment.ID)
	require.NoError(t, err)

	_, err = f.repo.GetByUserAndCourse(ctx, nil, f.enrollment.UserID, f.enrollment.CourseID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	archived, err := f.repo.GetAnyByUserAndCourse(ctx, nil, f.enrollment.UserID, f.enrollment.CourseID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	restored, err := f.repo.Reactivate(ctx, nil, archived.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)
	require.Len(t, restored.Progress, 1)
	assert.Len(t, restored.Progress[0].Questions, 1)
}

func TestIsLessonCompleted(t *testing.T) {
	f := seedProgressFixture(t, 2)
	ctx := context.Background()

	done, err := f.repo.IsLessonCompleted(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	assert.False(t, done, "no answers yet")

	_, err = f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 0},
	})
	require.NoError(t, err)

	done, err = f.repo.IsLessonCompleted(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	assert.False(t, done, "one of two answered")

	_, err = f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[1].String(), Estimate: 100},
	})
	require.NoError(t, err)

	done, err = f.repo.IsLessonCompleted(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	assert.True(t, done, "completion counts wrong answers too")
}

func TestIsLessonCompletedArchivedQuestionShrinksDenominator(t *testing.T) {
	f := seedProgressFixture(t, 2)
	ctx := context.Background()

	_, err := f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 100},
	})
	require.NoError(t, err)

	// Archiving the unanswered question makes the recorded answer cover
	// every remaining active question.
	require.NoError(t, f.db.Model(&models.Question{}).
		Where("id = ?", f.questions[1]).
		Update("archived", true).Error)

	done, err := f.repo.IsLessonCompleted(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestIsLessonCompletedEmptyLesson(t *testing.T) {
	f := seedProgressFixture(t, 0)
	ctx := context.Background()

	done, err := f.repo.IsLessonCompleted(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	assert.False(t, done, "a lesson with no active questions is never completed")
}

func TestCompletedLessonCount(t *testing.T) {
	f := seedProgressFixture(t, 1)
	ctx := context.Background()

	// Second lesson with two questions, only one answered
	lesson2 := &models.Lesson{ID: uuid.New(), Name: "Maps", CourseID: f.enrollment.CourseID}
	require.NoError(t, f.db.Create(lesson2).Error)
	q1 := &models.Question{ID: uuid.New(), QuestionNum: 1, Name: "q", Question: "?", Choices: []byte(`[]`), CorrectAnswer: "x", LessonID: lesson2.ID}
	q2 := &models.Question{ID: uuid.New(), QuestionNum: 2, Name: "q", Question: "?", Choices: []byte(`[]`), CorrectAnswer: "x", LessonID: lesson2.ID}
	require.NoError(t, f.db.Create(q1).Error)
	require.NoError(t, f.db.Create(q2).Error)

	_, err := f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 100},
	})
	require.NoError(t, err)
	_, err = f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, lesson2.ID, []models.QuestionProgress{
		{QuestionID: q1.ID.String(), Estimate: 0},
	})
	require.NoError(t, err)

	count, err := f.repo.CompletedLessonCount(ctx, nil, f.enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAverageEstimate(t *testing.T) {
	f := seedProgressFixture(t, 3)
	ctx := context.Background()

	avg, err := f.repo.AverageEstimate(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	assert.Nil(t, avg, "no recorded answers")

	_, err = f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 100},
		{QuestionID: f.questions[1].String(), Estimate: 0},
		{QuestionID: f.questions[2].String(), Estimate: 0},
	})
	require.NoError(t, err)

	avg, err = f.repo.AverageEstimate(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 33.33, *avg, "rounded to two decimals")
}

func TestGetLessonProgressCopiesOut(t *testing.T) {
	f := seedProgressFixture(t, 1)
	ctx := context.Background()

	_, err := f.repo.GetLessonProgress(ctx, nil, f.enrollment.ID, f.lessonID)
	assert.ErrorIs(t, err, repositories.ErrNotFound, "lesson not started")

	_, err = f.repo.MergeQuestionProgress(ctx, nil, f.enrollment.ID, f.lessonID, []models.QuestionProgress{
		{QuestionID: f.questions[0].String(), Estimate: 100},
	})
	require.NoError(t, err)

	progress, err := f.repo.GetLessonProgress(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	require.Len(t, progress.Questions, 1)

	progress.Questions[0].Estimate = 0

	again, err := f.repo.GetLessonProgress(ctx, nil, f.enrollment.ID, f.lessonID)
	require.NoError(t, err)
	assert.Equal(t, 100, again.Questions[0].Estimate)
}
