package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/learnforge/course-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	registerDomainRules(validate)

	return &BusinessValidator{validate: validate}
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateAnswerSubmission validates a batch of submitted answers.
// Struct tags cover field shapes; the batch rules (non-empty, no
// duplicate question ids) live here.
func (bv *BusinessValidator) ValidateAnswerSubmission(req *SubmitAnswersRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if len(req.Answers) == 0 {
		errors = append(errors, ValidationError{
			Field:   "answers",
			Message: "at least one answer is required",
			Rule:    "business_logic",
		})
	}

	seen := make(map[string]bool, len(req.Answers))
	for i, answer := range req.Answers {
		key := models.NormalizeID(answer.QuestionID)
		if seen[key] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%d].question_id", i),
				Message: "duplicate question in submission",
				Value:   answer.QuestionID,
				Rule:    "business_logic",
			})
		}
		seen[key] = true
	}

	return errors
}

// ValidateQuestionCreate validates question creation business rules
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if strings.TrimSpace(req.CorrectAnswer) == "" {
		errors = append(errors, ValidationError{
			Field:   "correct_answer",
			Message: "cannot be blank",
			Value:   req.CorrectAnswer,
			Rule:    "business_logic",
		})
	}

	// When choices are given, the correct answer must be one of them
	if len(req.Choices) > 0 {
		found := false
		want := models.NormalizeAnswer(req.CorrectAnswer)
		for _, choice := range req.Choices {
			if models.NormalizeAnswer(choice) == want {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, ValidationError{
				Field:   "correct_answer",
				Message: "must be one of the provided choices",
				Value:   req.CorrectAnswer,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateProgressEntries validates raw progress entries for the
// teacher-facing progress update endpoint.
func (bv *BusinessValidator) ValidateProgressEntries(entries []QuestionProgressRequest) ValidationErrors {
	var errors ValidationErrors

	for i, entry := range entries {
		if entry.Estimate != 0 && entry.Estimate != 100 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("progress[%d].estimate", i),
				Message: "must be 0 or 100",
				Value:   entry.Estimate,
				Rule:    "estimate_value",
			})
		}
	}

	return errors
}

// registerDomainRules registers custom rule validators shared by the
// struct validator and the business validator.
func registerDomainRules(validate *validator.Validate) {
	// Estimate is binary: 0 for wrong, 100 for correct
	validate.RegisterValidation("estimate_value", func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v == 0 || v == 100
	})

	// Name validation (1-200 characters after trimming)
	validate.RegisterValidation("entity_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 1 && len(name) <= 200
	})

	// user role validation
	validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		validRoles := []models.UserRole{models.RoleStudent, models.RoleTeacher, models.RoleAdmin}
		for _, vr := range validRoles {
			if models.UserRole(role) == vr {
				return true
			}
		}
		return false
	})
}
