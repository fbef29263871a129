package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/validator"
)

func (f *serviceFixture) reviewService() ReviewService {
	slogLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReviewService(f.repo, f.db, slogLogger, validator.New())
}

func TestCreateReviewRequiresEnrollment(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.reviewService()
	ctx := context.Background()

	req := &CreateReviewRequest{CourseID: f.course.ID.String(), Content: "Great course"}

	_, err := svc.Create(ctx, req, f.student.ID)
	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "create", permErr.Action)

	_, enrollErr := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, enrollErr)

	review, err := svc.Create(ctx, req, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, review.UserID)
	assert.Equal(t, "Great course", review.Content)

	reviews, err := svc.GetByCourse(ctx, f.course.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, review.ID, reviews[0].ID)
}

func TestCreateReviewArchivedCourse(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.reviewService()
	ctx := context.Background()

	require.NoError(t, f.db.Model(f.course).Update("archived", true).Error)

	_, err := svc.Create(ctx, &CreateReviewRequest{
		CourseID: f.course.ID.String(),
		Content:  "too late",
	}, f.student.ID)
	assert.ErrorIs(t, err, ErrCourseNotActive)
}

func TestUpdateReviewOwnerOnly(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.reviewService()
	ctx := context.Background()

	_, enrollErr := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, enrollErr)
	review, err := svc.Create(ctx, &CreateReviewRequest{
		CourseID: f.course.ID.String(),
		Content:  "first impression",
	}, f.student.ID)
	require.NoError(t, err)

	// Another user cannot touch it
	other := f.seedUser(t, "other@example.com", models.RoleStudent)
	_, err = svc.Update(ctx, review.ID, &UpdateReviewRequest{Content: "hijacked"}, other.ID)
	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)

	// The author can
	updated, err := svc.Update(ctx, review.ID, &UpdateReviewRequest{Content: "second thoughts"}, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "second thoughts", updated.Content)

	// An admin can too
	admin := f.seedUser(t, "admin@example.com", models.RoleAdmin)
	updated, err = svc.Update(ctx, review.ID, &UpdateReviewRequest{Content: "moderated"}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "moderated", updated.Content)
}

func TestDeleteReviewHidesIt(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.reviewService()
	ctx := context.Background()

	_, enrollErr := f.progressService.Enroll(ctx, f.student.ID, f.course.ID)
	require.NoError(t, enrollErr)
	review, err := svc.Create(ctx, &CreateReviewRequest{
		CourseID: f.course.ID.String(),
		Content:  "ephemeral",
	}, f.student.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, review.ID, f.student.ID))

	reviews, err := svc.GetByCourse(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	_, err = svc.Update(ctx, review.ID, &UpdateReviewRequest{Content: "resurrect"}, f.student.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	err = svc.Delete(ctx, uuid.New(), f.student.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}
