package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Question struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionNum int       `json:"question_num" gorm:"not null" validate:"required,gt=0"` // ordinal within the lesson, need not be contiguous
	Name        string    `json:"name" gorm:"not null;size:255" validate:"required,max=255"`
	Desc        *string   `json:"desc" gorm:"type:text"`
	Question    string    `json:"question" gorm:"type:text;not null" validate:"required"`

	// Choices stored as jsonb ([]string); the correct answer must match
	// one of them under trimmed case-insensitive comparison.
	Choices       datatypes.JSON `json:"choices" gorm:"type:jsonb;not null"`
	CorrectAnswer string         `json:"correct_answer,omitempty" gorm:"not null;size:500" validate:"required"`

	LessonID uuid.UUID `json:"lesson_id" gorm:"type:uuid;not null;index"`

	Archived bool `json:"archived" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID"`
}

func (Question) TableName() string {
	return "test_questions"
}

// ChoiceList decodes the jsonb choices column.
func (q *Question) ChoiceList() []string {
	var choices []string
	if len(q.Choices) == 0 {
		return choices
	}
	_ = jsonUnmarshal(q.Choices, &choices)
	return choices
}

// MatchesAnswer compares a user answer against the stored correct
// answer, ignoring case and surrounding whitespace.
func (q *Question) MatchesAnswer(userAnswer string) bool {
	return NormalizeAnswer(userAnswer) == NormalizeAnswer(q.CorrectAnswer)
}

// NormalizeAnswer is the canonical answer comparison form: trimmed,
// lower-cased.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
