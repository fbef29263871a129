package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/learnforge/course-service/internal/events"
	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
	"github.com/learnforge/course-service/internal/repositories/postgres"
	"github.com/learnforge/course-service/internal/validator"
)

type serviceFixture struct {
	db        *gorm.DB
	repo      repositories.Repository
	publisher *events.MockEventPublisher

	questionService QuestionService
	progressService ProgressService

	student  *models.User
	teacher  *models.User
	course   *models.Course
	lesson   *models.Lesson
	question *models.Question
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

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
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	slogLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	publisher := events.NewMockEventPublisher(slogLogger)

	questionService := NewQuestionService(repo, db, slogLogger, v)
	progressService := NewProgressService(repo, db, slogLogger, v, questionService, publisher)

	f := &serviceFixture{
		db:              db,
		repo:            repo,
		publisher:       publisher,
		questionService: questionService,
		progressService: progressService,
	}

	f.student = f.seedUser(t, "student@example.com", models.RoleStudent)
	f.teacher = f.seedUser(t, "teacher@example.com", models.RoleTeacher)

	f.course = &models.Course{ID: uuid.New(), Name: "Go Fundamentals"}
	require.NoError(t, db.Create(f.course).Error)

	f.lesson = &models.Lesson{ID: uuid.New(), Name: "Slices", CourseID: f.course.ID}
	require.NoError(t, db.Create(f.lesson).Error)

	f.question = f.seedQuestion(t, f.lesson.ID, 1, "Paris")

	return f
}

func (f *serviceFixture) seedUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Username: email,
		Email:    email,
		Password: "not-a-real-hash",
		Roles:    []byte(`["` + string(role) + `"]`),
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *serviceFixture) seedQuestion(t *testing.T, lessonID uuid.UUID, num int, correct string) *models.Question {
	t.Helper()
	q := &models.Question{
		ID:            uuid.New(),
		QuestionNum:   num,
		Name:          "question",
		Question:      "prompt",
		Choices:       []byte(`["Paris","London"]`),
		CorrectAnswer: correct,
		LessonID:      lessonID,
	}
	require.NoError(t, f.db.Create(q).Error)
	return q
}

func (f *serviceFixture) eventTypes() []string {
	published := f.publisher.GetPublishedEvents()
	types := make([]string, len(published))
	for i, e := range published {
		types[i] = e.Type
	}
	return types
}

func TestEnrollIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)

	second, err := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Only the first enrollment publishes an event
	assert.Equal(t, []string{events.EventUserEnrolled}, f.eventTypes())
}

func TestEnrollReactivatesArchivedWithProgress(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	enrolled, err := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)

	_, err = f.repo.Enrollment().MergeQuestionProgress(ctx, nil, enrolled.ID, f.lesson.ID, []models.QuestionProgress{
		{QuestionID: f.question.ID.String(), Estimate: 100},
	})
	require.NoError(t, err)

	require.NoError(t, f.progressService.Unenroll(ctx, f.student.ID, f.course.ID))

	again, err := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, enrolled.ID, again.ID, "archived row is reactivated, not replaced")
	require.Len(t, again.Progress, 1)
	assert.Len(t, again.Progress[0].Questions, 1)
}

func TestEnrollArchivedCourse(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(&models.Course{}).Where("id = ?", f.course.ID).Update("archived", true).Error)

	_, err := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	assert.ErrorIs(t, err, ErrCourseNotActive)
}

func TestSubmitAnswersAutoEnrolls(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	resp, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "paris"}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Passed, "answer check ignores case")
	assert.True(t, resp.LessonCompleted)

	require.NotNil(t, resp.Enrollment)
	assert.Equal(t, f.course.ID, resp.Enrollment.CourseID, "submission enrolled the user")
	require.Len(t, resp.Enrollment.Progress, 1)
	assert.Equal(t, 100, resp.Enrollment.Progress[0].Questions[0].Estimate)

	assert.Contains(t, f.eventTypes(), events.EventAnswersSubmitted)
	assert.Contains(t, f.eventTypes(), events.EventLessonCompleted)
}

func TestSubmitAnswersFirstAnswerWins(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "London"}},
	})
	require.NoError(t, err)

	resp, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "Paris"}},
	})
	require.NoError(t, err)

	// Grading still reports the retry as correct...
	assert.True(t, resp.Results[0].Passed)
	// ...but the question is reported skipped and the recorded
	// estimate stays at the first, wrong answer.
	assert.Empty(t, resp.Recorded)
	assert.Equal(t, []uuid.UUID{f.question.ID}, resp.Skipped)
	require.Len(t, resp.Enrollment.Progress, 1)
	assert.Equal(t, 0, resp.Enrollment.Progress[0].Questions[0].Estimate)
}

func TestSubmitAnswersWrongLesson(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	other := &models.Lesson{ID: uuid.New(), Name: "Maps", CourseID: f.course.ID}
	require.NoError(t, f.db.Create(other).Error)

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: other.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "Paris"}},
	})
	assert.ErrorIs(t, err, ErrQuestionNotInLesson)
}

func TestSubmitAnswersCrossLessonBatch(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	other := &models.Lesson{ID: uuid.New(), Name: "Maps", CourseID: f.course.ID}
	require.NoError(t, f.db.Create(other).Error)
	foreign := f.seedQuestion(t, other.ID, 1, "x")

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers: []AnswerSubmission{
			{QuestionID: f.question.ID.String(), Answer: "Paris"},
			{QuestionID: foreign.ID.String(), Answer: "x"},
		},
	})
	assert.ErrorIs(t, err, ErrQuestionsCrossLessons)
}

func TestSubmitAnswersDuplicateQuestions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers: []AnswerSubmission{
			{QuestionID: f.question.ID.String(), Answer: "Paris"},
			{QuestionID: f.question.ID.String(), Answer: "London"},
		},
	})

	var validationErrors ValidationErrors
	assert.ErrorAs(t, err, &validationErrors)
}

func TestUpdateQuestionProgress(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	t.Run("requires an already answered question", func(t *testing.T) {
		_, err := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
		require.NoError(t, err)

		_, err = f.progressService.UpdateQuestionProgress(ctx, f.student.ID, &UpdateQuestionProgressRequest{
			UserID:     f.student.ID.String(),
			LessonID:   f.lesson.ID.String(),
			QuestionID: f.question.ID.String(),
			Estimate:   100,
		})
		assert.ErrorIs(t, err, ErrQuestionNotAnswered)
	})

	t.Run("overwrites a recorded estimate", func(t *testing.T) {
		_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
			LessonID: f.lesson.ID.String(),
			Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "London"}},
		})
		require.NoError(t, err)

		updated, err := f.progressService.UpdateQuestionProgress(ctx, f.student.ID, &UpdateQuestionProgressRequest{
			UserID:     f.student.ID.String(),
			LessonID:   f.lesson.ID.String(),
			QuestionID: f.question.ID.String(),
			Estimate:   100,
		})
		require.NoError(t, err)
		assert.Equal(t, 100, updated.Progress[0].Questions[0].Estimate)
	})

	t.Run("rejects archived question", func(t *testing.T) {
		archived := f.seedQuestion(t, f.lesson.ID, 9, "x")
		require.NoError(t, f.db.Model(&models.Question{}).Where("id = ?", archived.ID).Update("archived", true).Error)

		_, err := f.progressService.UpdateQuestionProgress(ctx, f.student.ID, &UpdateQuestionProgressRequest{
			UserID:     f.student.ID.String(),
			LessonID:   f.lesson.ID.String(),
			QuestionID: archived.ID.String(),
			Estimate:   0,
		})
		assert.ErrorIs(t, err, ErrQuestionNotActive)
	})
}

func TestResetProgress(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "Paris"}},
	})
	require.NoError(t, err)

	reset, err := f.progressService.ResetProgress(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Empty(t, reset.Progress)
	assert.Contains(t, f.eventTypes(), events.EventProgressReset)
}

func TestGetLessonProgressNotStarted(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// Not even enrolled: still no error
	view, err := f.progressService.GetLessonProgress(ctx, f.student.ID, f.lesson.ID)
	require.NoError(t, err)
	assert.False(t, view.Started)
	assert.Empty(t, view.Questions)

	_, err = f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)

	view, err = f.progressService.GetLessonProgress(ctx, f.student.ID, f.lesson.ID)
	require.NoError(t, err)
	assert.False(t, view.Started, "enrolled but no answers yet")
}

func TestGetLessonProgressStarted(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	second := f.seedQuestion(t, f.lesson.ID, 2, "y")

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "Paris"}},
	})
	require.NoError(t, err)

	view, err := f.progressService.GetLessonProgress(ctx, f.student.ID, f.lesson.ID)
	require.NoError(t, err)
	assert.True(t, view.Started)
	assert.False(t, view.Completed, "one of two questions answered")
	require.NotNil(t, view.AverageEstimate)
	assert.Equal(t, 100.0, *view.AverageEstimate)

	_, err = f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: second.ID.String(), Answer: "wrong"}},
	})
	require.NoError(t, err)

	view, err = f.progressService.GetLessonProgress(ctx, f.student.ID, f.lesson.ID)
	require.NoError(t, err)
	assert.True(t, view.Completed, "wrong answers still count toward completion")
	require.NotNil(t, view.AverageEstimate)
	assert.Equal(t, 50.0, *view.AverageEstimate)
}

func TestGetCourseList(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "Paris"}},
	})
	require.NoError(t, err)

	courses, err := f.progressService.GetCourseList(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, f.course.ID, courses[0].CourseID)
	assert.Equal(t, 1, courses[0].TotalLessons)
	assert.Equal(t, 1, courses[0].CompletedLessons)
	assert.Equal(t, 100.0, courses[0].OverallProgress)

	// An archived course drops out of the list
	require.NoError(t, f.db.Model(&models.Course{}).Where("id = ?", f.course.ID).Update("archived", true).Error)

	courses, err = f.progressService.GetCourseList(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestGetCourseListOverallProgressRounding(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// Three lessons, one completed: 1/3 rounds to 33.33
	for _, name := range []string{"Maps", "Channels"} {
		lesson := &models.Lesson{ID: uuid.New(), Name: name, CourseID: f.course.ID}
		require.NoError(t, f.db.Create(lesson).Error)
		f.seedQuestion(t, lesson.ID, 1, "x")
	}

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "Paris"}},
	})
	require.NoError(t, err)

	courses, err := f.progressService.GetCourseList(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 3, courses[0].TotalLessons)
	assert.Equal(t, 1, courses[0].CompletedLessons)
	assert.Equal(t, 33.33, courses[0].OverallProgress)
}

func TestGetCourseListNoLessons(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	empty := &models.Course{ID: uuid.New(), Name: "Empty Course"}
	require.NoError(t, f.db.Create(empty).Error)

	_, err := f.progressService.Enroll(ctx, f.student.ID, empty.ID)
	require.NoError(t, err)

	courses, err := f.progressService.GetCourseList(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 0, courses[0].TotalLessons)
	assert.Equal(t, 0.0, courses[0].OverallProgress)
}

func TestGetCourseDetail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	other := &models.Lesson{ID: uuid.New(), Name: "Maps", CourseID: f.course.ID}
	require.NoError(t, f.db.Create(other).Error)
	f.seedQuestion(t, other.ID, 1, "z")

	_, err := f.progressService.SubmitAnswers(ctx, f.student.ID, &SubmitAnswersRequest{
		LessonID: f.lesson.ID.String(),
		Answers:  []AnswerSubmission{{QuestionID: f.question.ID.String(), Answer: "Paris"}},
	})
	require.NoError(t, err)

	detail, err := f.progressService.GetCourseDetail(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.TotalLessons)
	assert.Equal(t, 1, detail.CompletedLessons)
	require.Len(t, detail.Lessons, 2)

	byID := map[uuid.UUID]*LessonWithProgressResponse{}
	for _, l := range detail.Lessons {
		byID[l.ID] = l
	}
	assert.True(t, byID[f.lesson.ID].Started)
	assert.True(t, byID[f.lesson.ID].Completed)
	assert.False(t, byID[other.ID].Started)
	assert.Nil(t, byID[other.ID].AverageEstimate)
}

func TestGetEnrollmentDetailOwnerOrAdmin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	enrolled, err := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)

	t.Run("owner", func(t *testing.T) {
		detail, err := f.progressService.GetEnrollmentDetail(ctx, f.student.ID, enrolled.ID)
		require.NoError(t, err)
		assert.Equal(t, f.course.ID, detail.CourseID)
		assert.Equal(t, enrolled.ID, detail.EnrollmentID)
	})

	t.Run("admin sees another user's enrollment", func(t *testing.T) {
		admin := f.seedUser(t, "admin@example.com", models.RoleAdmin)

		detail, err := f.progressService.GetEnrollmentDetail(ctx, admin.ID, enrolled.ID)
		require.NoError(t, err)
		assert.Equal(t, enrolled.ID, detail.EnrollmentID, "detail is keyed to the enrollment, not the caller")
	})

	t.Run("another student is refused", func(t *testing.T) {
		other := f.seedUser(t, "other-student@example.com", models.RoleStudent)

		_, err := f.progressService.GetEnrollmentDetail(ctx, other.ID, enrolled.ID)
		var permErr *PermissionError
		assert.ErrorAs(t, err, &permErr)
	})

	t.Run("unknown enrollment", func(t *testing.T) {
		_, err := f.progressService.GetEnrollmentDetail(ctx, f.student.ID, uuid.New())
		assert.ErrorIs(t, err, ErrEnrollmentNotFound)
	})
}

func TestUnenrollNotEnrolled(t *testing.T) {
	f := newServiceFixture(t)

	err := f.progressService.Unenroll(context.Background(), f.student.ID, f.course.ID)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}
