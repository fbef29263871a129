package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// jsonUnmarshal is a small indirection so model helpers stay terse.
func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

type Course struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255;index" validate:"required,max=255"`
	Description *string   `json:"description" gorm:"type:text"`

	Archived bool `json:"archived" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Lessons     []Lesson     `json:"lessons,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Enrollments []Enrollment `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (Course) TableName() string {
	return "courses"
}

type Lesson struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name     string    `json:"name" gorm:"not null;size:255" validate:"required,max=255"`
	Desc     *string   `json:"desc" gorm:"type:text"`
	Content  *string   `json:"content" gorm:"type:text"`
	VideoURL *string   `json:"video_url" gorm:"size:500"`

	CourseID uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index"`

	Archived bool `json:"archived" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course    Course     `json:"-" gorm:"foreignKey:CourseID"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE"`
}

func (Lesson) TableName() string {
	return "lessons"
}
