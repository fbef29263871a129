package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
	"github.com/learnforge/course-service/internal/validator"
)

// Expected column order of a question import sheet. Choices are
// pipe-separated in a single cell.
var questionImportHeader = []string{"question_num", "name", "description", "prompt", "choices", "correct_answer"}

type importExportService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ImportQuestions loads questions for a lesson from an xlsx sheet. Rows
// that fail validation are skipped and reported; valid rows are created
// in one batch.
func (s *importExportService) ImportQuestions(ctx context.Context, lessonID uuid.UUID, file io.Reader, userID uuid.UUID) (*ImportResult, error) {
	s.logger.Info("Importing questions", "lesson_id", lessonID, "user_id", userID)

	if err := s.requireTeacher(ctx, userID); err != nil {
		return nil, err
	}

	if _, err := s.repo.Lesson().GetActive(ctx, nil, lessonID); err != nil {
		return nil, mapLessonErr(err)
	}

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, NewBusinessRuleError("import_format", "question", "file is not a valid xlsx workbook")
	}
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewBusinessRuleError("import_format", "question", "sheet has no data rows")
	}

	result := &ImportResult{}
	questions := make([]*models.Question, 0, len(rows)-1)

	for i, row := range rows[1:] {
		rowNum := i + 2
		question, err := s.parseQuestionRow(row, lessonID)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		questions = append(questions, question)
	}

	if len(questions) > 0 {
		if err := s.repo.Question().CreateBatch(ctx, nil, questions); err != nil {
			return nil, fmt.Errorf("failed to create questions: %w", err)
		}
	}
	result.Imported = len(questions)

	s.logger.Info("Questions imported",
		"lesson_id", lessonID,
		"imported", result.Imported,
		"skipped", result.Skipped)
	return result, nil
}

func (s *importExportService) parseQuestionRow(row []string, lessonID uuid.UUID) (*models.Question, error) {
	if len(row) < len(questionImportHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(questionImportHeader), len(row))
	}

	num, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil || num < 1 {
		return nil, fmt.Errorf("question_num must be a positive integer")
	}

	name := strings.TrimSpace(row[1])
	prompt := strings.TrimSpace(row[3])
	correctAnswer := strings.TrimSpace(row[5])
	if name == "" || prompt == "" || correctAnswer == "" {
		return nil, fmt.Errorf("name, prompt and correct_answer are required")
	}

	var choices []string
	for _, choice := range strings.Split(row[4], "|") {
		if c := strings.TrimSpace(choice); c != "" {
			choices = append(choices, c)
		}
	}

	req := &validator.QuestionCreateRequest{
		QuestionNum:   num,
		Name:          name,
		Prompt:        prompt,
		Choices:       choices,
		CorrectAnswer: correctAnswer,
		LessonID:      lessonID.String(),
	}
	if errs := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, errs
	}

	choicesJSON, err := json.Marshal(choices)
	if err != nil {
		return nil, fmt.Errorf("failed to encode choices: %w", err)
	}

	question := &models.Question{
		ID:            uuid.New(),
		QuestionNum:   num,
		Name:          name,
		Question:      prompt,
		Choices:       choicesJSON,
		CorrectAnswer: correctAnswer,
		LessonID:      lessonID,
	}
	if desc := strings.TrimSpace(row[2]); desc != "" {
		question.Desc = &desc
	}
	return question, nil
}

// ExportProgressReport builds an xlsx report of every enrollment in a
// course: one row per enrolled user per lesson with answered counts,
// completion and average estimate.
func (s *importExportService) ExportProgressReport(ctx context.Context, courseID uuid.UUID, userID uuid.UUID) ([]byte, error) {
	s.logger.Info("Exporting progress report", "course_id", courseID, "user_id", userID)

	if err := s.requireTeacher(ctx, userID); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetActive(ctx, nil, courseID)
	if err != nil {
		return nil, mapCourseErr(err)
	}

	lessons, err := s.repo.Course().GetLessons(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}

	var enrollments []*models.Enrollment
	if err := s.db.WithContext(ctx).
		Where("course_id = ? AND archived = ?", courseID, false).
		Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to get enrollments: %w", err)
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	_ = workbook.SetSheetName(sheet, "Progress")
	sheet = "Progress"

	header := []interface{}{"User Email", "Lesson", "Answered", "Total Questions", "Completed", "Average Estimate"}
	if err := workbook.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	rowNum := 2
	for _, enrollment := range enrollments {
		user, err := s.repo.User().GetByID(ctx, nil, enrollment.UserID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		for _, lesson := range lessons {
			total, err := s.repo.Question().CountActiveByLesson(ctx, nil, lesson.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to count questions: %w", err)
			}

			answered := 0
			avgCell := interface{}("")
			completed := false
			if lp := enrollment.Progress.Find(lesson.ID.String()); lp != nil {
				answered = len(lp.Questions)
				completed = total > 0 && int64(answered) >= total

				if avg, err := s.repo.Enrollment().AverageEstimate(ctx, nil, enrollment.ID, lesson.ID); err == nil && avg != nil {
					avgCell = *avg
				}
			}

			row := []interface{}{user.Email, lesson.Name, answered, total, completed, avgCell}
			cell := fmt.Sprintf("A%d", rowNum)
			if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
			rowNum++
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}

	s.logger.Info("Progress report exported",
		"course", course.Name,
		"enrollments", len(enrollments),
		"rows", rowNum-2)
	return buf.Bytes(), nil
}

func (s *importExportService) requireTeacher(ctx context.Context, userID uuid.UUID) error {
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
	return NewPermissionError(userID.String(), "report", "export", "insufficient role permissions")
}
