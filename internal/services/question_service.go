package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
	"github.com/learnforge/course-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID uuid.UUID) (*QuestionResponse, error) {
	s.logger.Info("Creating question", "lesson_id", req.LessonID, "creator_id", creatorID)

	if errs := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, errs
	}

	if err := s.requireTeacher(ctx, creatorID, "question", "create"); err != nil {
		return nil, err
	}

	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		return nil, ErrLessonNotFound
	}

	if _, err := s.repo.Lesson().GetActive(ctx, nil, lessonID); err != nil {
		return nil, mapLessonErr(err)
	}

	choicesJSON, err := json.Marshal(req.Choices)
	if err != nil {
		return nil, fmt.Errorf("failed to encode choices: %w", err)
	}

	question := &models.Question{
		ID:            uuid.New(),
		QuestionNum:   req.QuestionNum,
		Name:          req.Name,
		Desc:          req.Description,
		Question:      req.Prompt,
		Choices:       choicesJSON,
		CorrectAnswer: req.CorrectAnswer,
		LessonID:      lessonID,
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created", "question_id", question.ID, "lesson_id", lessonID)
	return toQuestionResponse(question), nil
}

func (s *questionService) Update(ctx context.Context, id uuid.UUID, req *UpdateQuestionRequest, userID uuid.UUID) (*QuestionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.requireTeacher(ctx, userID, "question", "update"); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetActive(ctx, nil, id)
	if err != nil {
		return nil, mapQuestionErr(err)
	}

	if req.QuestionNum != nil {
		question.QuestionNum = *req.QuestionNum
	}
	if req.Name != nil {
		question.Name = *req.Name
	}
	if req.Description != nil {
		question.Desc = req.Description
	}
	if req.Prompt != nil {
		question.Question = *req.Prompt
	}
	if req.Choices != nil {
		choicesJSON, err := json.Marshal(req.Choices)
		if err != nil {
			return nil, fmt.Errorf("failed to encode choices: %w", err)
		}
		question.Choices = choicesJSON
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return toQuestionResponse(question), nil
}

func (s *questionService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if err := s.requireTeacher(ctx, userID, "question", "delete"); err != nil {
		return err
	}

	if err := s.repo.Question().SoftDelete(ctx, nil, id); err != nil {
		return mapQuestionErr(err)
	}

	s.logger.Info("Question archived", "question_id", id, "user_id", userID)
	return nil
}

func (s *questionService) GetByID(ctx context.Context, id uuid.UUID) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetActive(ctx, nil, id)
	if err != nil {
		return nil, mapQuestionErr(err)
	}
	return toQuestionResponse(question), nil
}

func (s *questionService) GetByLesson(ctx context.Context, lessonID uuid.UUID) ([]*QuestionResponse, error) {
	if _, err := s.repo.Lesson().GetActive(ctx, nil, lessonID); err != nil {
		return nil, mapLessonErr(err)
	}

	questions, err := s.repo.Question().GetByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	responses := make([]*QuestionResponse, len(questions))
	for i, q := range questions {
		responses[i] = toQuestionResponse(q)
	}
	return responses, nil
}

// CheckAnswers grades a batch of answers. Every question must be active
// and belong to the same lesson; the check is case- and
// whitespace-insensitive. Results reveal the correct answer, so this is
// only called after a submission.
func (s *questionService) CheckAnswers(ctx context.Context, answers []AnswerSubmission) ([]CheckAnswerResult, uuid.UUID, error) {
	if len(answers) == 0 {
		return nil, uuid.Nil, ValidationErrors{{
			Field:   "answers",
			Message: "at least one answer is required",
			Rule:    "business_logic",
		}}
	}

	questionIDs := make([]uuid.UUID, 0, len(answers))
	for _, answer := range answers {
		id, err := uuid.Parse(answer.QuestionID)
		if err != nil {
			return nil, uuid.Nil, ErrQuestionNotFound
		}
		questionIDs = append(questionIDs, id)
	}

	lessonIDs, err := s.repo.Question().GetLessonIDs(ctx, nil, questionIDs)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("failed to resolve lessons: %w", err)
	}
	if len(lessonIDs) == 0 {
		return nil, uuid.Nil, ErrQuestionNotFound
	}
	if len(lessonIDs) > 1 {
		return nil, uuid.Nil, ErrQuestionsCrossLessons
	}
	lessonID := lessonIDs[0]

	results := make([]CheckAnswerResult, 0, len(answers))
	for i, answer := range answers {
		correct, err := s.repo.Question().GetCorrectAnswer(ctx, nil, questionIDs[i])
		if err != nil {
			return nil, uuid.Nil, mapQuestionErr(err)
		}

		results = append(results, CheckAnswerResult{
			QuestionID:    questionIDs[i],
			Passed:        models.NormalizeAnswer(answer.Answer) == models.NormalizeAnswer(correct),
			CorrectAnswer: correct,
		})
	}

	return results, lessonID, nil
}

func (s *questionService) requireTeacher(ctx context.Context, userID uuid.UUID, resource, action string) error {
	for _, role := range []models.UserRole{models.RoleTeacher, models.RoleAdmin} {
		has, err := s.repo.User().HasRole(ctx, nil, userID, role)
		if err != nil {
			if repositories.IsNotFoundError(err) || repositories.IsNotActiveError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to check role: %w", err)
		}
		if has {
			return nil
		}
	}
	return NewPermissionError(userID.String(), resource, action, "insufficient role permissions")
}

func toQuestionResponse(question *models.Question) *QuestionResponse {
	return &QuestionResponse{
		ID:          question.ID,
		LessonID:    question.LessonID,
		QuestionNum: question.QuestionNum,
		Name:        question.Name,
		Description: derefString(question.Desc),
		Prompt:      question.Question,
		Choices:     question.ChoiceList(),
		CreatedAt:   question.CreatedAt,
	}
}

func mapQuestionErr(err error) error {
	switch {
	case repositories.IsNotActiveError(err):
		return ErrQuestionNotActive
	case repositories.IsNotFoundError(err):
		return ErrQuestionNotFound
	default:
		return fmt.Errorf("question lookup failed: %w", err)
	}
}
