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

type reviewService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewReviewService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ReviewService {
	return &reviewService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *reviewService) Create(ctx context.Context, req *CreateReviewRequest, userID uuid.UUID) (*ReviewResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return nil, ErrCourseNotFound
	}

	if _, err := s.repo.Course().GetActive(ctx, nil, courseID); err != nil {
		return nil, mapCourseErr(err)
	}

	// Only enrolled users may review a course
	if _, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewPermissionError(userID.String(), "review", "create", "user is not enrolled in the course")
		}
		return nil, mapEnrollmentErr(err)
	}

	review := &models.Review{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
		Content:  req.Content,
	}

	if err := s.repo.Review().Create(ctx, nil, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info("Review created", "review_id", review.ID, "course_id", courseID)
	return toReviewResponse(review), nil
}

func (s *reviewService) Update(ctx context.Context, id uuid.UUID, req *UpdateReviewRequest, userID uuid.UUID) (*ReviewResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	review, err := s.getOwnedReview(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	review.Content = req.Content
	if err := s.repo.Review().Update(ctx, nil, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	return toReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if _, err := s.getOwnedReview(ctx, id, userID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Review().SoftDelete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.logger.Info("Review archived", "review_id", id, "user_id", userID)
	return nil
}

func (s *reviewService) GetByCourse(ctx context.Context, courseID uuid.UUID) ([]*ReviewResponse, error) {
	if _, err := s.repo.Course().GetActive(ctx, nil, courseID); err != nil {
		return nil, mapCourseErr(err)
	}

	reviews, err := s.repo.Review().GetByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	responses := make([]*ReviewResponse, len(reviews))
	for i, review := range reviews {
		responses[i] = toReviewResponse(review)
	}
	return responses, nil
}

// getOwnedReview loads an active review and checks the caller owns it.
// Admins may act on any review.
func (s *reviewService) getOwnedReview(ctx context.Context, id, userID uuid.UUID, action string) (*models.Review, error) {
	review, err := s.repo.Review().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review.Archived {
		return nil, ErrReviewNotFound
	}

	if review.UserID != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, nil, userID, models.RoleAdmin)
		if err != nil && !repositories.IsNotFoundError(err) && !repositories.IsNotActiveError(err) {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID.String(), "review", action, "not the review author")
		}
	}

	return review, nil
}

func toReviewResponse(review *models.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:        review.ID,
		UserID:    review.UserID,
		CourseID:  review.CourseID,
		Content:   review.Content,
		CreatedAt: review.CreatedAt,
	}
}
