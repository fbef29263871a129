package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound signals an absent (or archived-when-active-required) row.
	// Callers decide the user-facing response.
	ErrNotFound = errors.New("record not found")

	// ErrNotActive signals a mutating operation against an archived row.
	ErrNotActive = errors.New("record is archived")
)

// IsNotFoundError reports whether err is a not-found condition from
// either this package or gorm.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsNotActiveError reports whether err marks an archived row.
func IsNotActiveError(err error) bool {
	return errors.Is(err, ErrNotActive)
}
