package validator

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegisterRequest(t *testing.T) {
	v := New()

	cases := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"valid", RegisterRequest{Email: "a@b.com", Password: "longenough", Name: "Alice"}, ""},
		{"bad email", RegisterRequest{Email: "nope", Password: "longenough", Name: "Alice"}, "email"},
		{"short password", RegisterRequest{Email: "a@b.com", Password: "short", Name: "Alice"}, "password"},
		{"blank name", RegisterRequest{Email: "a@b.com", Password: "longenough", Name: "   "}, "name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(&tc.req)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}

			var validationErrors ValidationErrors
			require.ErrorAs(t, err, &validationErrors)
			require.NotEmpty(t, validationErrors)
			assert.Equal(t, tc.field, validationErrors[0].Field)
		})
	}
}

func TestUpdateRolesRequestValidation(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&UpdateRolesRequest{Roles: []string{"teacher"}}))
	assert.NoError(t, v.Validate(&UpdateRolesRequest{Roles: []string{"student", "admin"}}))

	var validationErrors ValidationErrors
	require.ErrorAs(t, v.Validate(&UpdateRolesRequest{Roles: []string{"wizard"}}), &validationErrors)
	assert.Equal(t, "roles[0]", validationErrors[0].Field)

	require.ErrorAs(t, v.Validate(&UpdateRolesRequest{}), &validationErrors)
}

func TestEstimateValueRule(t *testing.T) {
	v := New()
	userID := uuid.New().String()
	lessonID := uuid.New().String()
	questionID := uuid.New().String()

	for _, estimate := range []int{0, 100} {
		assert.NoError(t, v.Validate(&UpdateQuestionProgressRequest{
			UserID:     userID,
			LessonID:   lessonID,
			QuestionID: questionID,
			Estimate:   estimate,
		}), "estimate %d is valid", estimate)
	}

	for _, estimate := range []int{-1, 1, 50, 99, 101} {
		err := v.Validate(&UpdateQuestionProgressRequest{
			UserID:     userID,
			LessonID:   lessonID,
			QuestionID: questionID,
			Estimate:   estimate,
		})
		var validationErrors ValidationErrors
		require.ErrorAs(t, err, &validationErrors, "estimate %d must be rejected", estimate)
	}
}

func TestValidateAnswerSubmission(t *testing.T) {
	bv := NewBusinessValidator()
	lessonID := uuid.New().String()
	questionID := uuid.New().String()

	t.Run("valid", func(t *testing.T) {
		errs := bv.ValidateAnswerSubmission(&SubmitAnswersRequest{
			LessonID: lessonID,
			Answers:  []AnswerSubmission{{QuestionID: questionID, Answer: "42"}},
		})
		assert.Empty(t, errs)
	})

	t.Run("empty batch", func(t *testing.T) {
		errs := bv.ValidateAnswerSubmission(&SubmitAnswersRequest{LessonID: lessonID})
		assert.NotEmpty(t, errs)
	})

	t.Run("duplicate question ids", func(t *testing.T) {
		errs := bv.ValidateAnswerSubmission(&SubmitAnswersRequest{
			LessonID: lessonID,
			Answers: []AnswerSubmission{
				{QuestionID: questionID, Answer: "a"},
				{QuestionID: strings.ToUpper(questionID), Answer: "b"},
			},
		})
		require.NotEmpty(t, errs, "case variants of the same uuid are duplicates")
		assert.Equal(t, "business_logic", errs[len(errs)-1].Rule)
	})
}

func TestValidateQuestionCreate(t *testing.T) {
	bv := NewBusinessValidator()
	lessonID := uuid.New().String()

	base := QuestionCreateRequest{
		QuestionNum:   1,
		Name:          "Capitals",
		Prompt:        "Capital of France?",
		Choices:       []string{"Paris", "London"},
		CorrectAnswer: "Paris",
		LessonID:      lessonID,
	}

	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, bv.ValidateQuestionCreate(&base))
	})

	t.Run("answer matches choice ignoring case", func(t *testing.T) {
		req := base
		req.CorrectAnswer = "  PARIS "
		assert.Empty(t, bv.ValidateQuestionCreate(&req))
	})

	t.Run("answer not in choices", func(t *testing.T) {
		req := base
		req.CorrectAnswer = "Berlin"
		assert.NotEmpty(t, bv.ValidateQuestionCreate(&req))
	})

	t.Run("no choices means free text", func(t *testing.T) {
		req := base
		req.Choices = nil
		req.CorrectAnswer = "anything"
		assert.Empty(t, bv.ValidateQuestionCreate(&req))
	})

	t.Run("blank answer", func(t *testing.T) {
		req := base
		req.Choices = nil
		req.CorrectAnswer = "   "
		assert.NotEmpty(t, bv.ValidateQuestionCreate(&req))
	})
}

func TestValidateProgressEntries(t *testing.T) {
	bv := NewBusinessValidator()

	errs := bv.ValidateProgressEntries([]QuestionProgressRequest{
		{QuestionID: uuid.New().String(), Estimate: 0},
		{QuestionID: uuid.New().String(), Estimate: 100},
	})
	assert.Empty(t, errs)

	errs = bv.ValidateProgressEntries([]QuestionProgressRequest{
		{QuestionID: uuid.New().String(), Estimate: 42},
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "estimate_value", errs[0].Rule)
}
