package models

import (
	"time"
)

type EventRegistration struct {
	ID          string    `json:"id" gorm:"primaryKey;size:191"`
	ActivityID  string    `json:"activityId" gorm:"not null;size:191;uniqueIndex:uk_event_registration_activity_user,priority:1"`
	UserID      string    `json:"userId" gorm:"not null;size:191;uniqueIndex:uk_event_registration_activity_user,priority:2;index"`
	FirstName   string    `json:"firstName" gorm:"not null;size:255"`
	LastName    string    `json:"lastName" gorm:"not null;size:255"`
	Email       string    `json:"email" gorm:"not null;size:255"`
	College     string    `json:"college" gorm:"size:255"`
	YearOfStudy string    `json:"yearOfStudy" gorm:"size:50"`
	IsAttended  bool      `json:"isAttended" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RegistrationInput is the registrant snapshot captured at signup.
type RegistrationInput struct {
	ActivityID  string `json:"activityId" binding:"required"`
	UserID      string `json:"userId"`
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	College     string `json:"college"`
	YearOfStudy string `json:"yearOfStudy"`
	IsAttended  bool   `json:"isAttended"`
}

type RegistrationStats struct {
	TotalRegistrations int64   `json:"totalRegistrations"`
	TotalAttendees     int64   `json:"totalAttendees"`
	AttendanceRate     float64 `json:"attendanceRate"`
}

// RegisteredEvent pairs a user's registration with the activity it points at.
type RegisteredEvent struct {
	Registration EventRegistration `json:"registration"`
	Activity     Activity          `json:"activity"`
}
