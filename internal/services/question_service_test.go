package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAnswersNormalization(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		answer string
		passed bool
	}{
		{"exact match", "Paris", true},
		{"lower case", "paris", true},
		{"upper case", "PARIS", true},
		{"surrounding whitespace", "  Paris  ", true},
		{"wrong answer", "London", false},
		{"empty answer", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results, lessonID, err := f.questionService.CheckAnswers(ctx, []AnswerSubmission{
				{QuestionID: f.question.ID.String(), Answer: tc.answer},
			})
			require.NoError(t, err)
			assert.Equal(t, f.lesson.ID, lessonID)
			require.Len(t, results, 1)
			assert.Equal(t, tc.passed, results[0].Passed)
			assert.Equal(t, "Paris", results[0].CorrectAnswer)
		})
	}
}

func TestCheckAnswersErrors(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	t.Run("empty batch", func(t *testing.T) {
		var validationErrors ValidationErrors
		_, _, err := f.questionService.CheckAnswers(ctx, nil)
		assert.ErrorAs(t, err, &validationErrors)
	})

	t.Run("unknown question", func(t *testing.T) {
		_, _, err := f.questionService.CheckAnswers(ctx, []AnswerSubmission{
			{QuestionID: uuid.New().String(), Answer: "x"},
		})
		assert.ErrorIs(t, err, ErrQuestionNotFound)
	})

	t.Run("malformed question id", func(t *testing.T) {
		_, _, err := f.questionService.CheckAnswers(ctx, []AnswerSubmission{
			{QuestionID: "not-a-uuid", Answer: "x"},
		})
		assert.ErrorIs(t, err, ErrQuestionNotFound)
	})

	t.Run("archived question", func(t *testing.T) {
		archived := f.seedQuestion(t, f.lesson.ID, 5, "x")
		require.NoError(t, f.db.Model(archived).Update("archived", true).Error)

		_, _, err := f.questionService.CheckAnswers(ctx, []AnswerSubmission{
			{QuestionID: archived.ID.String(), Answer: "x"},
		})
		assert.Error(t, err)
	})
}

func TestQuestionCreatePermissions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	req := &CreateQuestionRequest{
		QuestionNum:   2,
		Name:          "Capitals",
		Prompt:        "Capital of Germany?",
		Choices:       []string{"Berlin", "Munich"},
		CorrectAnswer: "Berlin",
		LessonID:      f.lesson.ID.String(),
	}

	t.Run("student may not create", func(t *testing.T) {
		_, err := f.questionService.Create(ctx, req, f.student.ID)
		var permissionError *PermissionError
		assert.ErrorAs(t, err, &permissionError)
	})

	t.Run("teacher creates", func(t *testing.T) {
		created, err := f.questionService.Create(ctx, req, f.teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, "Capitals", created.Name)
		assert.Equal(t, []string{"Berlin", "Munich"}, created.Choices)
	})

	t.Run("correct answer must be a listed choice", func(t *testing.T) {
		bad := *req
		bad.CorrectAnswer = "Hamburg"
		_, err := f.questionService.Create(ctx, &bad, f.teacher.ID)
		var validationErrors ValidationErrors
		assert.ErrorAs(t, err, &validationErrors)
	})
}

func TestQuestionResponseHidesCorrectAnswer(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	resp, err := f.questionService.GetByID(ctx, f.question.ID)
	require.NoError(t, err)
	assert.Equal(t, f.question.ID, resp.ID)
	assert.NotContains(t, resp.Choices, "", "choices come through")

	list, err := f.questionService.GetByLesson(ctx, f.lesson.ID)
	require.NoError(t, err)
	require.NotEmpty(t, list)
}

func TestQuestionSoftDelete(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.questionService.Delete(ctx, f.question.ID, f.teacher.ID))

	_, err := f.questionService.GetByID(ctx, f.question.ID)
	assert.Error(t, err)
}
