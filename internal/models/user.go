package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID       uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Username string         `json:"username" gorm:"size:100"`
	Email    string         `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	Password string         `json:"-" gorm:"not null;size:255"`
	Roles    datatypes.JSON `json:"roles" gorm:"type:jsonb"` // []UserRole

	Archived bool `json:"archived" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Enrollments []Enrollment `json:"-" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.RoleList() {
		if r == role {
			return true
		}
	}
	return false
}

// RoleList decodes the jsonb roles column. An undecodable or empty
// column yields no roles rather than an error.
func (u *User) RoleList() []UserRole {
	var roles []UserRole
	if len(u.Roles) == 0 {
		return roles
	}
	_ = jsonUnmarshal(u.Roles, &roles)
	return roles
}
