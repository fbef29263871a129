package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressListMerge(t *testing.T) {
	lessonID := uuid.New().String()
	q1 := uuid.New().String()
	q2 := uuid.New().String()

	t.Run("appends new lesson and questions", func(t *testing.T) {
		var progress ProgressList

		merged := progress.Merge(lessonID, []QuestionProgress{
			{QuestionID: q1, Estimate: 100},
			{QuestionID: q2, Estimate: 0},
		})

		require.Len(t, merged, 1)
		assert.Equal(t, lessonID, merged[0].LessonID)
		require.Len(t, merged[0].Questions, 2)
		assert.Equal(t, 100, merged[0].Questions[0].Estimate)
		assert.Equal(t, 0, merged[0].Questions[1].Estimate)
	})

	t.Run("overwrites existing question entry", func(t *testing.T) {
		progress := ProgressList{
			{LessonID: lessonID, Questions: []QuestionProgress{{QuestionID: q1, Estimate: 0}}},
		}

		merged := progress.Merge(lessonID, []QuestionProgress{{QuestionID: q1, Estimate: 100}})

		require.Len(t, merged, 1)
		require.Len(t, merged[0].Questions, 1)
		assert.Equal(t, 100, merged[0].Questions[0].Estimate)
	})

	t.Run("matches question ids case insensitively", func(t *testing.T) {
		progress := ProgressList{
			{LessonID: lessonID, Questions: []QuestionProgress{{QuestionID: strings.ToUpper(q1), Estimate: 0}}},
		}

		merged := progress.Merge(lessonID, []QuestionProgress{{QuestionID: q1, Estimate: 100}})

		require.Len(t, merged[0].Questions, 1)
		assert.Equal(t, 100, merged[0].Questions[0].Estimate)
	})

	t.Run("does not touch other lessons", func(t *testing.T) {
		otherLesson := uuid.New().String()
		progress := ProgressList{
			{LessonID: otherLesson, Questions: []QuestionProgress{{QuestionID: q2, Estimate: 100}}},
		}

		merged := progress.Merge(lessonID, []QuestionProgress{{QuestionID: q1, Estimate: 0}})

		require.Len(t, merged, 2)
		other := merged.Find(otherLesson)
		require.NotNil(t, other)
		assert.Equal(t, 100, other.Questions[0].Estimate)
	})

	t.Run("receiver is not mutated", func(t *testing.T) {
		progress := ProgressList{
			{LessonID: lessonID, Questions: []QuestionProgress{{QuestionID: q1, Estimate: 0}}},
		}

		_ = progress.Merge(lessonID, []QuestionProgress{{QuestionID: q1, Estimate: 100}})

		assert.Equal(t, 0, progress[0].Questions[0].Estimate)
	})
}

func TestProgressListClone(t *testing.T) {
	lessonID := uuid.New().String()
	q1 := uuid.New().String()

	progress := ProgressList{
		{LessonID: lessonID, Questions: []QuestionProgress{{QuestionID: q1, Estimate: 0}}},
	}

	clone := progress.Clone()
	clone[0].Questions[0].Estimate = 100
	clone[0].Questions = append(clone[0].Questions, QuestionProgress{QuestionID: uuid.New().String(), Estimate: 0})

	assert.Equal(t, 0, progress[0].Questions[0].Estimate)
	assert.Len(t, progress[0].Questions, 1)
}

func TestProgressListScanValue(t *testing.T) {
	lessonID := uuid.New().String()
	q1 := uuid.New().String()

	original := ProgressList{
		{LessonID: lessonID, Questions: []QuestionProgress{{QuestionID: q1, Estimate: 100}}},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var restored ProgressList
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, original, restored)

	t.Run("nil column scans to empty list", func(t *testing.T) {
		var p ProgressList
		require.NoError(t, p.Scan(nil))
		assert.NotNil(t, p)
		assert.Empty(t, p)
	})

	t.Run("nil list serializes as empty array", func(t *testing.T) {
		var p ProgressList
		value, err := p.Value()
		require.NoError(t, err)
		assert.JSONEq(t, "[]", value.(string))
	})
}

func TestNormalizeID(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, id.String(), NormalizeID(strings.ToUpper(id.String())))
	assert.Equal(t, id.String(), NormalizeID("  "+id.String()+"  "))
	assert.Equal(t, "not-a-uuid", NormalizeID("Not-A-UUID"))
}
