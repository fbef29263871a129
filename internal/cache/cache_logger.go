package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern and logs failures instead
// of propagating them; a stale cache entry is preferable to failing the write
// that already committed.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string, operation string) {
	if helper == nil {
		return
	}

	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.WarnContext(ctx, "Cache invalidation failed",
			"operation", operation,
			"pattern", pattern,
			"error", err)
	}
}

// SafeDelete deletes cache keys and logs failures without propagating them.
func SafeDelete(ctx context.Context, helper *CacheHelper, operation string, keys ...string) {
	if helper == nil || len(keys) == 0 {
		return
	}

	if err := helper.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "Cache delete failed",
			"operation", operation,
			"keys", keys,
			"error", err)
	}
}

// InvalidateCourseCache removes all cached entries for a course, including
// its lesson listings.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID string, operation string) {
	if cm == nil {
		return
	}

	SafeDelete(ctx, cm.Course, operation, courseID, "list:*")
	SafeInvalidatePattern(ctx, cm.Course, "list:*", operation)
	SafeInvalidatePattern(ctx, cm.Lesson, "course:"+courseID+":*", operation)
	SafeInvalidatePattern(ctx, cm.Exists, "course:"+courseID+"*", operation)
}

// InvalidateLessonCache removes cached entries for a lesson and the derived
// per-lesson question counts used by completion checks.
func InvalidateLessonCache(ctx context.Context, cm *CacheManager, lessonID, courseID string, operation string) {
	if cm == nil {
		return
	}

	SafeDelete(ctx, cm.Lesson, operation, lessonID)
	SafeInvalidatePattern(ctx, cm.Lesson, "course:"+courseID+":*", operation)
	SafeInvalidatePattern(ctx, cm.Question, "lesson:"+lessonID+":*", operation)
	SafeInvalidatePattern(ctx, cm.Exists, "lesson:"+lessonID+"*", operation)
}

// InvalidateQuestionCache removes cached entries for a question and its
// lesson's question counts.
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID, lessonID string, operation string) {
	if cm == nil {
		return
	}

	SafeDelete(ctx, cm.Question, operation, questionID)
	SafeInvalidatePattern(ctx, cm.Question, "lesson:"+lessonID+":*", operation)
	SafeInvalidatePattern(ctx, cm.Exists, "lesson:"+lessonID+"*", operation)
}

// InvalidateUserCache removes cached entries for a user.
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string, operation string) {
	if cm == nil {
		return
	}

	SafeDelete(ctx, cm.User, operation, userID)
}
