package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	CourseID uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index"`
	Content  string    `json:"content" gorm:"type:text;not null" validate:"required"`

	Archived bool `json:"archived" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

func (Review) TableName() string {
	return "reviews"
}
