package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/events"
	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
	"github.com/learnforge/course-service/internal/validator"
)

// progressService implements ProgressService. Submissions follow a
// first-answer-wins policy: once a question has a recorded estimate,
// re-submitting it through SubmitAnswers leaves the original estimate
// in place. Teachers can overwrite through UpdateQuestionProgress.
type progressService struct {
	repo            repositories.Repository
	db              *gorm.DB
	logger          *slog.Logger
	validator       *validator.Validator
	questionService QuestionService
	eventPublisher  events.EventPublisher
}

func NewProgressService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	questionService QuestionService,
	eventPublisher events.EventPublisher,
) ProgressService {
	return &progressService{
		repo:            repo,
		db:              db,
		logger:          logger,
		validator:       validator,
		questionService: questionService,
		eventPublisher:  eventPublisher,
	}
}

// ===== ENROLLMENT LIFECYCLE =====

// Enroll is idempotent: an existing active enrollment is returned as
// is, and an archived one is reactivated with its progress intact.
func (s *progressService) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*EnrollmentResponse, error) {
	s.logger.Info("Enrolling user", "user_id", userID, "course_id", courseID)

	if _, err := s.repo.Course().GetActive(ctx, nil, courseID); err != nil {
		return nil, mapCourseErr(err)
	}
	if _, err := s.repo.User().GetActive(ctx, nil, userID); err != nil {
		if repositories.IsNotFoundError(err) || repositories.IsNotActiveError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	enrollment, created, err := s.ensureEnrollment(ctx, s.repo, userID, courseID)
	if err != nil {
		return nil, err
	}

	if created {
		s.publish(ctx, events.NewEvent(events.EventUserEnrolled, events.EnrollmentEvent{
			EnrollmentID: enrollment.ID.String(),
			UserID:       userID.String(),
			CourseID:     courseID.String(),
		}))
	}

	return toEnrollmentResponse(enrollment), nil
}

func (s *progressService) Unenroll(ctx context.Context, userID, courseID uuid.UUID) error {
	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return mapEnrollmentErr(err)
	}

	if _, err := s.repo.Enrollment().SoftDelete(ctx, nil, enrollment.ID); err != nil {
		return mapEnrollmentErr(err)
	}

	s.logger.Info("User unenrolled", "user_id", userID, "course_id", courseID)
	s.publish(ctx, events.NewEvent(events.EventUserUnenrolled, events.EnrollmentEvent{
		EnrollmentID: enrollment.ID.String(),
		UserID:       userID.String(),
		CourseID:     courseID.String(),
	}))
	return nil
}

// ===== SUBMISSIONS =====

func (s *progressService) SubmitAnswers(ctx context.Context, userID uuid.UUID, req *SubmitAnswersRequest) (*SubmitAnswersResponse, error) {
	s.logger.Info("Submitting answers",
		"user_id", userID,
		"lesson_id", req.LessonID,
		"count", len(req.Answers))

	if errs := s.validator.GetBusinessValidator().ValidateAnswerSubmission(req); len(errs) > 0 {
		return nil, errs
	}

	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		return nil, ErrLessonNotFound
	}

	lesson, err := s.repo.Lesson().GetActive(ctx, nil, lessonID)
	if err != nil {
		return nil, mapLessonErr(err)
	}

	// Grade first; grading also proves every question is active and
	// resolves the single lesson the batch belongs to.
	results, gradedLessonID, err := s.questionService.CheckAnswers(ctx, req.Answers)
	if err != nil {
		return nil, err
	}
	if gradedLessonID != lessonID {
		return nil, ErrQuestionNotInLesson
	}

	var enrollment *models.Enrollment
	var lessonCompleted bool
	var recorded, skipped []uuid.UUID

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var created bool
		enrollment, created, err = s.ensureEnrollment(ctx, txRepo, userID, lesson.CourseID)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info("Auto-enrolled on submission",
				"user_id", userID,
				"course_id", lesson.CourseID)
		}

		// First answer wins: already-recorded questions keep their
		// original estimate.
		existing := enrollment.Progress.Find(lessonID.String())
		entries := make([]models.QuestionProgress, 0, len(results))
		recorded = recorded[:0]
		skipped = skipped[:0]
		for _, result := range results {
			if existing != nil && existing.FindQuestion(result.QuestionID.String()) >= 0 {
				skipped = append(skipped, result.QuestionID)
				continue
			}
			estimate := 0
			if result.Passed {
				estimate = 100
			}
			entries = append(entries, models.QuestionProgress{
				QuestionID: result.QuestionID.String(),
				Estimate:   estimate,
			})
			recorded = append(recorded, result.QuestionID)
		}

		enrollment, err = txRepo.Enrollment().MergeQuestionProgress(ctx, nil, enrollment.ID, lessonID, entries)
		if err != nil {
			return mapEnrollmentErr(err)
		}

		lessonCompleted, err = txRepo.Enrollment().IsLessonCompleted(ctx, nil, enrollment.ID, lessonID)
		if err != nil {
			return mapEnrollmentErr(err)
		}
		return nil
	})
	if err != nil {
		// Scoring already happened; the student still gets their
		// results even when recording fails.
		s.logger.Error("Failed to record submission",
			"user_id", userID,
			"lesson_id", lessonID,
			"error", err)
		return &SubmitAnswersResponse{
			Results:       results,
			Recorded:      []uuid.UUID{},
			ProgressError: "progress could not be recorded",
		}, nil
	}

	passed := 0
	for _, result := range results {
		if result.Passed {
			passed++
		}
	}

	s.publish(ctx, events.NewEvent(events.EventAnswersSubmitted, events.AnswersSubmittedEvent{
		EnrollmentID: enrollment.ID.String(),
		UserID:       userID.String(),
		CourseID:     lesson.CourseID.String(),
		LessonID:     lessonID.String(),
		Submitted:    len(results),
		Passed:       passed,
		LessonDone:   lessonCompleted,
	}))
	if lessonCompleted {
		s.publish(ctx, events.NewEvent(events.EventLessonCompleted, events.LessonCompletedEvent{
			EnrollmentID: enrollment.ID.String(),
			UserID:       userID.String(),
			CourseID:     lesson.CourseID.String(),
			LessonID:     lessonID.String(),
		}))
	}

	return &SubmitAnswersResponse{
		Results:         results,
		Recorded:        recorded,
		Skipped:         skipped,
		LessonCompleted: lessonCompleted,
		Enrollment:      toEnrollmentResponse(enrollment),
	}, nil
}

// UpdateQuestionProgress overwrites a single recorded estimate. Unlike
// SubmitAnswers it requires the question to already be answered; it is
// a correction, not a submission.
func (s *progressService) UpdateQuestionProgress(ctx context.Context, userID uuid.UUID, req *UpdateQuestionProgressRequest) (*EnrollmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		return nil, ErrLessonNotFound
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		return nil, ErrQuestionNotFound
	}

	lesson, err := s.repo.Lesson().GetActive(ctx, nil, lessonID)
	if err != nil {
		return nil, mapLessonErr(err)
	}

	question, err := s.repo.Question().GetActive(ctx, nil, questionID)
	if err != nil {
		return nil, mapQuestionErr(err)
	}
	if question.LessonID != lessonID {
		return nil, ErrQuestionNotInLesson
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, lesson.CourseID)
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	lessonProgress := enrollment.Progress.Find(lessonID.String())
	if lessonProgress == nil || lessonProgress.FindQuestion(questionID.String()) < 0 {
		return nil, ErrQuestionNotAnswered
	}

	enrollment, err = s.repo.Enrollment().MergeQuestionProgress(ctx, nil, enrollment.ID, lessonID, []models.QuestionProgress{
		{QuestionID: questionID.String(), Estimate: req.Estimate},
	})
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	s.logger.Info("Question progress updated",
		"enrollment_id", enrollment.ID,
		"question_id", questionID,
		"estimate", req.Estimate)
	return toEnrollmentResponse(enrollment), nil
}

func (s *progressService) ResetProgress(ctx context.Context, userID, courseID uuid.UUID) (*EnrollmentResponse, error) {
	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	enrollment, err = s.repo.Enrollment().Reset(ctx, nil, enrollment.ID)
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	s.logger.Info("Progress reset", "enrollment_id", enrollment.ID, "user_id", userID)
	s.publish(ctx, events.NewEvent(events.EventProgressReset, events.EnrollmentEvent{
		EnrollmentID: enrollment.ID.String(),
		UserID:       userID.String(),
		CourseID:     courseID.String(),
	}))
	return toEnrollmentResponse(enrollment), nil
}

// ===== VIEWS =====

// GetLessonProgress returns the student's view of one lesson. A user
// who has not started the lesson (or is not even enrolled) gets
// started=false, not an error.
func (s *progressService) GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*LessonProgressView, error) {
	lesson, err := s.repo.Lesson().GetActive(ctx, nil, lessonID)
	if err != nil {
		return nil, mapLessonErr(err)
	}

	notStarted := &LessonProgressView{
		LessonID:  lessonID,
		Started:   false,
		Questions: []models.QuestionProgress{},
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, lesson.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return notStarted, nil
		}
		return nil, mapEnrollmentErr(err)
	}

	lessonProgress := enrollment.Progress.Find(lessonID.String())
	if lessonProgress == nil {
		return notStarted, nil
	}

	completed, err := s.repo.Enrollment().IsLessonCompleted(ctx, nil, enrollment.ID, lessonID)
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	avg, err := s.repo.Enrollment().AverageEstimate(ctx, nil, enrollment.ID, lessonID)
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	return &LessonProgressView{
		LessonID:        lessonID,
		Started:         true,
		Completed:       completed,
		AverageEstimate: avg,
		Questions:       lessonProgress.Questions,
	}, nil
}

func (s *progressService) GetCourseList(ctx context.Context, userID uuid.UUID) ([]*EnrolledCourseResponse, error) {
	enrollments, err := s.repo.Enrollment().GetAllByUser(ctx, nil, userID, repositories.EnrollmentFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	responses := make([]*EnrolledCourseResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		course, err := s.repo.Course().GetActive(ctx, nil, enrollment.CourseID)
		if err != nil {
			// Archived courses drop out of the list instead of failing it
			if repositories.IsNotFoundError(err) || repositories.IsNotActiveError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get course: %w", err)
		}

		entry, err := s.toEnrolledCourse(ctx, enrollment, course)
		if err != nil {
			return nil, err
		}
		responses = append(responses, entry)
	}

	return responses, nil
}

func (s *progressService) GetCourseDetail(ctx context.Context, userID, courseID uuid.UUID) (*EnrolledCourseDetailResponse, error) {
	course, err := s.repo.Course().GetActive(ctx, nil, courseID)
	if err != nil {
		return nil, mapCourseErr(err)
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	return s.buildCourseDetail(ctx, enrollment, course)
}

// GetEnrollmentDetail returns the per-lesson breakdown of any
// enrollment. The caller must own the enrollment or hold the admin
// role.
func (s *progressService) GetEnrollmentDetail(ctx context.Context, callerID, enrollmentID uuid.UUID) (*EnrolledCourseDetailResponse, error) {
	enrollment, err := s.repo.Enrollment().Get(ctx, nil, enrollmentID)
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	if enrollment.UserID != callerID {
		isAdmin, err := s.repo.User().HasRole(ctx, nil, callerID, models.RoleAdmin)
		if err != nil && !repositories.IsNotFoundError(err) && !repositories.IsNotActiveError(err) {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(callerID.String(), "enrollment", "read", "not the enrollment owner")
		}
	}

	course, err := s.repo.Course().GetActive(ctx, nil, enrollment.CourseID)
	if err != nil {
		return nil, mapCourseErr(err)
	}

	return s.buildCourseDetail(ctx, enrollment, course)
}

func (s *progressService) buildCourseDetail(ctx context.Context, enrollment *models.Enrollment, course *models.Course) (*EnrolledCourseDetailResponse, error) {
	summary, err := s.toEnrolledCourse(ctx, enrollment, course)
	if err != nil {
		return nil, err
	}

	lessons, err := s.repo.Course().GetLessons(ctx, nil, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}

	lessonViews := make([]*LessonWithProgressResponse, len(lessons))
	for i, lesson := range lessons {
		view := &LessonWithProgressResponse{LessonResponse: *toLessonResponse(lesson)}

		if lessonProgress := enrollment.Progress.Find(lesson.ID.String()); lessonProgress != nil {
			view.Started = true

			view.Completed, err = s.repo.Enrollment().IsLessonCompleted(ctx, nil, enrollment.ID, lesson.ID)
			if err != nil {
				return nil, mapEnrollmentErr(err)
			}
			view.AverageEstimate, err = s.repo.Enrollment().AverageEstimate(ctx, nil, enrollment.ID, lesson.ID)
			if err != nil {
				return nil, mapEnrollmentErr(err)
			}
		}
		lessonViews[i] = view
	}

	return &EnrolledCourseDetailResponse{
		EnrolledCourseResponse: *summary,
		Lessons:                lessonViews,
	}, nil
}

// ===== HELPERS =====

// ensureEnrollment finds, reactivates or creates the enrollment for
// (user, course) through the given repository, which may be bound to a
// transaction. created reports whether the enrollment is newly usable
// (fresh row or reactivation).
func (s *progressService) ensureEnrollment(ctx context.Context, repo repositories.Repository, userID, courseID uuid.UUID) (*models.Enrollment, bool, error) {
	enrollment, err := repo.Enrollment().GetAnyByUserAndCourse(ctx, nil, userID, courseID)
	if err == nil {
		if !enrollment.Archived {
			return enrollment, false, nil
		}
		enrollment, err = repo.Enrollment().Reactivate(ctx, nil, enrollment.ID)
		if err != nil {
			return nil, false, mapEnrollmentErr(err)
		}
		s.logger.Info("Enrollment reactivated", "enrollment_id", enrollment.ID)
		return enrollment, true, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, mapEnrollmentErr(err)
	}

	enrollment = &models.Enrollment{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
		Progress: models.ProgressList{},
	}
	if err := repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		return nil, false, fmt.Errorf("failed to create enrollment: %w", err)
	}
	return enrollment, true, nil
}

func (s *progressService) toEnrolledCourse(ctx context.Context, enrollment *models.Enrollment, course *models.Course) (*EnrolledCourseResponse, error) {
	totalLessons, err := s.repo.Lesson().CountActiveByCourse(ctx, nil, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	completed, err := s.repo.Enrollment().CompletedLessonCount(ctx, nil, enrollment.ID)
	if err != nil {
		return nil, mapEnrollmentErr(err)
	}

	var overall float64
	if totalLessons > 0 {
		overall = math.Round(float64(completed)/float64(totalLessons)*100*100) / 100
	}

	return &EnrolledCourseResponse{
		EnrollmentID:     enrollment.ID,
		CourseID:         course.ID,
		Name:             course.Name,
		Description:      derefString(course.Description),
		TotalLessons:     int(totalLessons),
		CompletedLessons: completed,
		OverallProgress:  overall,
		EnrolledAt:       enrollment.CreatedAt,
	}, nil
}

func (s *progressService) publish(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.TopicEnrollments, event); err != nil {
		s.logger.Warn("Failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}

func toEnrollmentResponse(enrollment *models.Enrollment) *EnrollmentResponse {
	return &EnrollmentResponse{
		ID:        enrollment.ID,
		UserID:    enrollment.UserID,
		CourseID:  enrollment.CourseID,
		Progress:  enrollment.Progress,
		CreatedAt: enrollment.CreatedAt,
		UpdatedAt: enrollment.UpdatedAt,
	}
}

func mapEnrollmentErr(err error) error {
	switch {
	case repositories.IsNotActiveError(err):
		return ErrEnrollmentNotActive
	case repositories.IsNotFoundError(err):
		return ErrEnrollmentNotFound
	default:
		return fmt.Errorf("enrollment lookup failed: %w", err)
	}
}
