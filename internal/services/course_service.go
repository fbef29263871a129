package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
	"github.com/learnforge/course-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== COURSE OPERATIONS =====

func (s *courseService) CreateCourse(ctx context.Context, req *CreateCourseRequest, creatorID uuid.UUID) (*CourseResponse, error) {
	s.logger.Info("Creating course", "name", req.Name, "creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.requireTeacher(ctx, creatorID, "course", "create"); err != nil {
		return nil, err
	}

	exists, err := s.repo.Course().ExistsByName(ctx, nil, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check course name: %w", err)
	}
	if exists {
		return nil, ErrCourseNameExists
	}

	course := &models.Course{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID)
	return s.toCourseResponse(ctx, course)
}

func (s *courseService) UpdateCourse(ctx context.Context, id uuid.UUID, req *UpdateCourseRequest, userID uuid.UUID) (*CourseResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.requireTeacher(ctx, userID, "course", "update"); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetActive(ctx, nil, id)
	if err != nil {
		return nil, mapCourseErr(err)
	}

	if req.Name != nil && *req.Name != course.Name {
		exists, err := s.repo.Course().ExistsByName(ctx, nil, *req.Name, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check course name: %w", err)
		}
		if exists {
			return nil, ErrCourseNameExists
		}
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = req.Description
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	return s.toCourseResponse(ctx, course)
}

func (s *courseService) DeleteCourse(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if err := s.requireTeacher(ctx, userID, "course", "delete"); err != nil {
		return err
	}

	if err := s.repo.Course().SoftDelete(ctx, nil, id); err != nil {
		return mapCourseErr(err)
	}

	s.logger.Info("Course archived", "course_id", id, "user_id", userID)
	return nil
}

func (s *courseService) GetCourse(ctx context.Context, id uuid.UUID) (*CourseDetailResponse, error) {
	course, err := s.repo.Course().GetActive(ctx, nil, id)
	if err != nil {
		return nil, mapCourseErr(err)
	}

	lessons, err := s.repo.Course().GetLessons(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}

	lessonResponses := make([]*LessonResponse, len(lessons))
	for i, lesson := range lessons {
		lessonResponses[i] = toLessonResponse(lesson)
	}

	return &CourseDetailResponse{
		CourseResponse: CourseResponse{
			ID:          course.ID,
			Name:        course.Name,
			Description: derefString(course.Description),
			LessonCount: len(lessons),
			CreatedAt:   course.CreatedAt,
			UpdatedAt:   course.UpdatedAt,
		},
		Lessons: lessonResponses,
	}, nil
}

func (s *courseService) ListCourses(ctx context.Context, name *string, limit, offset int) ([]*CourseResponse, int64, error) {
	filters := repositories.CourseFilters{
		Name:   name,
		Limit:  limit,
		Offset: offset,
		SortBy: "created_at",
	}

	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	responses := make([]*CourseResponse, len(courses))
	for i, course := range courses {
		count, err := s.repo.Lesson().CountActiveByCourse(ctx, nil, course.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count lessons: %w", err)
		}
		responses[i] = &CourseResponse{
			ID:          course.ID,
			Name:        course.Name,
			Description: derefString(course.Description),
			LessonCount: int(count),
			CreatedAt:   course.CreatedAt,
			UpdatedAt:   course.UpdatedAt,
		}
	}

	return responses, total, nil
}

// ===== LESSON OPERATIONS =====

func (s *courseService) CreateLesson(ctx context.Context, req *CreateLessonRequest, creatorID uuid.UUID) (*LessonResponse, error) {
	s.logger.Info("Creating lesson", "name", req.Name, "course_id", req.CourseID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.requireTeacher(ctx, creatorID, "lesson", "create"); err != nil {
		return nil, err
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return nil, ErrCourseNotFound
	}

	if _, err := s.repo.Course().GetActive(ctx, nil, courseID); err != nil {
		return nil, mapCourseErr(err)
	}

	exists, err := s.repo.Lesson().ExistsByName(ctx, nil, courseID, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check lesson name: %w", err)
	}
	if exists {
		return nil, ErrLessonNameExists
	}

	lesson := &models.Lesson{
		ID:       uuid.New(),
		Name:     req.Name,
		Desc:     req.Description,
		Content:  req.Content,
		VideoURL: req.VideoURL,
		CourseID: courseID,
	}

	if err := s.repo.Lesson().Create(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson created", "lesson_id", lesson.ID, "course_id", courseID)
	return toLessonResponse(lesson), nil
}

func (s *courseService) UpdateLesson(ctx context.Context, id uuid.UUID, req *UpdateLessonRequest, userID uuid.UUID) (*LessonResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.requireTeacher(ctx, userID, "lesson", "update"); err != nil {
		return nil, err
	}

	lesson, err := s.repo.Lesson().GetActive(ctx, nil, id)
	if err != nil {
		return nil, mapLessonErr(err)
	}

	if req.Name != nil && *req.Name != lesson.Name {
		exists, err := s.repo.Lesson().ExistsByName(ctx, nil, lesson.CourseID, *req.Name, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check lesson name: %w", err)
		}
		if exists {
			return nil, ErrLessonNameExists
		}
		lesson.Name = *req.Name
	}
	if req.Description != nil {
		lesson.Desc = req.Description
	}
	if req.Content != nil {
		lesson.Content = req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}

	if err := s.repo.Lesson().Update(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	return toLessonResponse(lesson), nil
}

func (s *courseService) DeleteLesson(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if err := s.requireTeacher(ctx, userID, "lesson", "delete"); err != nil {
		return err
	}

	if err := s.repo.Lesson().SoftDelete(ctx, nil, id); err != nil {
		return mapLessonErr(err)
	}

	s.logger.Info("Lesson archived", "lesson_id", id, "user_id", userID)
	return nil
}

func (s *courseService) GetLesson(ctx context.Context, id uuid.UUID) (*LessonResponse, error) {
	lesson, err := s.repo.Lesson().GetActive(ctx, nil, id)
	if err != nil {
		return nil, mapLessonErr(err)
	}
	return toLessonResponse(lesson), nil
}

// ===== HELPERS =====

func (s *courseService) requireTeacher(ctx context.Context, userID uuid.UUID, resource, action string) error {
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

func (s *courseService) toCourseResponse(ctx context.Context, course *models.Course) (*CourseResponse, error) {
	count, err := s.repo.Lesson().CountActiveByCourse(ctx, nil, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	return &CourseResponse{
		ID:          course.ID,
		Name:        course.Name,
		Description: derefString(course.Description),
		LessonCount: int(count),
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}, nil
}

func toLessonResponse(lesson *models.Lesson) *LessonResponse {
	return &LessonResponse{
		ID:          lesson.ID,
		CourseID:    lesson.CourseID,
		Name:        lesson.Name,
		Description: derefString(lesson.Desc),
		Content:     derefString(lesson.Content),
		VideoURL:    derefString(lesson.VideoURL),
		CreatedAt:   lesson.CreatedAt,
	}
}

func mapCourseErr(err error) error {
	switch {
	case repositories.IsNotActiveError(err):
		return ErrCourseNotActive
	case repositories.IsNotFoundError(err):
		return ErrCourseNotFound
	default:
		return fmt.Errorf("course lookup failed: %w", err)
	}
}

func mapLessonErr(err error) error {
	switch {
	case repositories.IsNotActiveError(err):
		return ErrLessonNotActive
	case repositories.IsNotFoundError(err):
		return ErrLessonNotFound
	default:
		return fmt.Errorf("lesson lookup failed: %w", err)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
