package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrDuplicateAttendee     = errors.New("attendee already registered")
	ErrDuplicateRegistration = errors.New("registration already exists")
	ErrNoAttendees           = errors.New("activity has no attendees")
	ErrAttendeeOutOfRange    = errors.New("attendee index out of range")
)

// IsNotFound reports whether err is gorm's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicateKey recognises unique-index violations. TranslateError covers
// the mysql driver; the message checks cover drivers without a translator.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
