package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionProgress is one recorded answer inside a lesson's progress.
// Estimate is 0 (wrong) or 100 (correct).
type QuestionProgress struct {
	QuestionID string `json:"question_id"`
	Estimate   int    `json:"estimate"`
}

// LessonProgress groups the recorded answers of one lesson. A lesson
// appears in an enrollment's progress once the user has submitted at
// least one answer for it.
type LessonProgress struct {
	LessonID  string             `json:"lesson_id"`
	Questions []QuestionProgress `json:"questions"`
}

// FindQuestion returns the index of the entry for questionID, or -1.
// IDs are compared in normalized string form so that values written as
// native UUIDs and values written as strings stay equal.
func (lp *LessonProgress) FindQuestion(questionID string) int {
	want := NormalizeID(questionID)
	for i, q := range lp.Questions {
		if NormalizeID(q.QuestionID) == want {
			return i
		}
	}
	return -1
}

// ProgressList is the nested per-course progress structure persisted as
// a single jsonb column on the enrollment row.
type ProgressList []LessonProgress

// Find returns a pointer into the list for lessonID, or nil.
func (p ProgressList) Find(lessonID string) *LessonProgress {
	want := NormalizeID(lessonID)
	for i := range p {
		if NormalizeID(p[i].LessonID) == want {
			return &p[i]
		}
	}
	return nil
}

// Clone deep-copies the progress structure so merges never mutate a
// loaded row in place.
func (p ProgressList) Clone() ProgressList {
	if p == nil {
		return ProgressList{}
	}
	out := make(ProgressList, len(p))
	for i, lp := range p {
		questions := make([]QuestionProgress, len(lp.Questions))
		copy(questions, lp.Questions)
		out[i] = LessonProgress{LessonID: lp.LessonID, Questions: questions}
	}
	return out
}

// Merge applies incoming question entries to the lesson's progress:
// existing question entries are overwritten, new ones appended. The
// receiver is not modified; the merged copy is returned. Merge is the
// raw primitive and always overwrites; first-submission policy lives in
// the service layer.
func (p ProgressList) Merge(lessonID string, entries []QuestionProgress) ProgressList {
	merged := p.Clone()

	lesson := merged.Find(lessonID)
	if lesson == nil {
		merged = append(merged, LessonProgress{LessonID: NormalizeID(lessonID), Questions: []QuestionProgress{}})
		lesson = &merged[len(merged)-1]
	}

	for _, entry := range entries {
		if idx := lesson.FindQuestion(entry.QuestionID); idx >= 0 {
			lesson.Questions[idx].Estimate = entry.Estimate
		} else {
			lesson.Questions = append(lesson.Questions, QuestionProgress{
				QuestionID: NormalizeID(entry.QuestionID),
				Estimate:   entry.Estimate,
			})
		}
	}

	return merged
}

// Value implements driver.Valuer, serializing the list as JSON with all
// ids as strings.
func (p ProgressList) Value() (driver.Value, error) {
	if p == nil {
		p = ProgressList{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal progress: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (p *ProgressList) Scan(value interface{}) error {
	if value == nil {
		*p = ProgressList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported progress column type %T", value)
	}

	if len(data) == 0 {
		*p = ProgressList{}
		return nil
	}
	return json.Unmarshal(data, p)
}

// NormalizeID canonicalizes an id for value comparison regardless of
// whether it arrived as a native UUID string or some cased variant.
func NormalizeID(id string) string {
	trimmed := strings.TrimSpace(id)
	if parsed, err := uuid.Parse(trimmed); err == nil {
		return parsed.String()
	}
	return strings.ToLower(trimmed)
}

// Enrollment is the per-user-per-course progress record. At most one
// active row exists per (user, course); soft-deleted rows are kept and
// reactivated on re-enrollment.
type Enrollment struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_user_course"`
	CourseID uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index:idx_user_course"`

	Progress ProgressList `json:"progress" gorm:"type:jsonb;not null"`

	Archived bool `json:"archived" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

func (Enrollment) TableName() string {
	return "user_courses"
}
