package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/course-service/internal/validator"
)

func (f *serviceFixture) courseService() CourseService {
	slogLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCourseService(f.repo, f.db, slogLogger, validator.New())
}

func TestCreateCourse(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.courseService()
	ctx := context.Background()

	t.Run("teacher creates", func(t *testing.T) {
		desc := "from zero to goroutines"
		created, err := svc.CreateCourse(ctx, &CreateCourseRequest{
			Name:        "Concurrency",
			Description: &desc,
		}, f.teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, "Concurrency", created.Name)
		assert.Equal(t, desc, created.Description)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, &CreateCourseRequest{Name: "Concurrency"}, f.teacher.ID)
		assert.ErrorIs(t, err, ErrCourseNameExists)
	})

	t.Run("student may not create", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, &CreateCourseRequest{Name: "Another"}, f.student.ID)
		var permissionError *PermissionError
		assert.ErrorAs(t, err, &permissionError)
	})
}

func TestUpdateCourse(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.courseService()
	ctx := context.Background()

	name := "Go Fundamentals v2"
	updated, err := svc.UpdateCourse(ctx, f.course.ID, &UpdateCourseRequest{Name: &name}, f.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	t.Run("renaming onto an existing course fails", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, &CreateCourseRequest{Name: "Taken"}, f.teacher.ID)
		require.NoError(t, err)

		taken := "Taken"
		_, err = svc.UpdateCourse(ctx, f.course.ID, &UpdateCourseRequest{Name: &taken}, f.teacher.ID)
		assert.ErrorIs(t, err, ErrCourseNameExists)
	})

	t.Run("keeping the same name is fine", func(t *testing.T) {
		same := name
		_, err := svc.UpdateCourse(ctx, f.course.ID, &UpdateCourseRequest{Name: &same}, f.teacher.ID)
		assert.NoError(t, err)
	})
}

func TestDeleteCourseHidesIt(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.courseService()
	ctx := context.Background()

	require.NoError(t, svc.DeleteCourse(ctx, f.course.ID, f.teacher.ID))

	_, err := svc.GetCourse(ctx, f.course.ID)
	assert.ErrorIs(t, err, ErrCourseNotActive)

	courses, total, err := svc.ListCourses(ctx, nil, 20, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, courses)
}

func TestGetCourseDetailLessons(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.courseService()
	ctx := context.Background()

	detail, err := svc.GetCourse(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.LessonCount)
	require.Len(t, detail.Lessons, 1)
	assert.Equal(t, f.lesson.ID, detail.Lessons[0].ID)
}

func TestListCoursesFilterByName(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.courseService()
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, &CreateCourseRequest{Name: "Rust Basics"}, f.teacher.ID)
	require.NoError(t, err)

	name := "go"
	courses, total, err := svc.ListCourses(ctx, &name, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, courses, 1)
	assert.Equal(t, "Go Fundamentals", courses[0].Name)
}

func TestLessonLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.courseService()
	ctx := context.Background()

	created, err := svc.CreateLesson(ctx, &CreateLessonRequest{
		CourseID: f.course.ID.String(),
		Name:     "Channels",
	}, f.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, f.course.ID, created.CourseID)

	name := "Buffered Channels"
	updated, err := svc.UpdateLesson(ctx, created.ID, &UpdateLessonRequest{Name: &name}, f.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	require.NoError(t, svc.DeleteLesson(ctx, created.ID, f.teacher.ID))

	_, err = svc.GetLesson(ctx, created.ID)
	assert.ErrorIs(t, err, ErrLessonNotActive)

	t.Run("lesson in archived course rejected", func(t *testing.T) {
		require.NoError(t, svc.DeleteCourse(ctx, f.course.ID, f.teacher.ID))

		_, err := svc.CreateLesson(ctx, &CreateLessonRequest{
			CourseID: f.course.ID.String(),
			Name:     "Orphan",
		}, f.teacher.ID)
		assert.ErrorIs(t, err, ErrCourseNotActive)
	})
}
