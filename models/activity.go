package models

import (
	"time"
)

type Activity struct {
	ID                 string      `json:"id" gorm:"primaryKey;size:191"`
	CreatedByUserID    *string     `json:"createdByUserId" gorm:"size:191;index"`
	Title              string      `json:"title" gorm:"not null;size:255"`
	Description        string      `json:"description" gorm:"type:text"`
	StartDate          time.Time   `json:"startDate" gorm:"not null;index"`
	EndDate            time.Time   `json:"endDate" gorm:"not null"`
	Location           string      `json:"location" gorm:"size:255"`
	Host               string      `json:"host" gorm:"size:255"`
	Contact            string      `json:"contact" gorm:"size:255"`
	Capacity           string      `json:"capacity" gorm:"size:50"`
	Tags               StringSlice `json:"tags" gorm:"type:json"`
	Schedule           string      `json:"schedule" gorm:"type:text"`
	Speakers           string      `json:"speakers" gorm:"type:text"`
	Prerequisites      string      `json:"prerequisites" gorm:"type:text"`
	CancellationPolicy string      `json:"cancellationPolicy" gorm:"type:text"`
	Privacy            string      `json:"privacy" gorm:"type:text"`
	Accessibility      string      `json:"accessibility" gorm:"type:text"`
	Note               string      `json:"note" gorm:"type:text"`
	SocialMedia        SocialMedia `json:"socialMedia" gorm:"type:json"`
	CoverPhotoURL      *string     `json:"coverPhotoUrl" gorm:"size:1024"`
	DocumentURL        *string     `json:"documentUrl" gorm:"size:1024"`
	IsHidden           bool        `json:"isHidden" gorm:"not null;default:false;index"`
	IsArchived         bool        `json:"isArchived" gorm:"not null;default:false;index"`
	AttendanceCount    int         `json:"attendanceCount" gorm:"not null;default:0"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`

	Attendees []ActivityAttendee `json:"attendees" gorm:"foreignKey:ActivityID"`
	TagIndex  []ActivityTag      `json:"-" gorm:"foreignKey:ActivityID"`
}

// ActivityTag is the lower-cased tag row used for filtering.
type ActivityTag struct {
	ID         uint   `json:"-" gorm:"primaryKey"`
	ActivityID string `json:"-" gorm:"not null;size:191;index"`
	Tag        string `json:"-" gorm:"not null;size:100;index"`
}

// ActivityAttendee is one entry of an activity's embedded roster.
type ActivityAttendee struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	ActivityID string    `json:"-" gorm:"not null;size:191;uniqueIndex:uk_activity_attendee_name,priority:1"`
	FirstName  string    `json:"firstName" gorm:"not null;size:191;uniqueIndex:uk_activity_attendee_name,priority:2"`
	LastName   string    `json:"lastName" gorm:"not null;size:191;uniqueIndex:uk_activity_attendee_name,priority:3"`
	CreatedAt  time.Time `json:"-"`
}

// ActivityFields is the create payload. Dates arrive as RFC 3339 strings.
type ActivityFields struct {
	Title              string      `json:"title" form:"title" binding:"required"`
	Description        string      `json:"description" form:"description"`
	StartDate          string      `json:"startDate" form:"startDate" binding:"required"`
	EndDate            string      `json:"endDate" form:"endDate" binding:"required"`
	Location           string      `json:"location" form:"location"`
	Host               string      `json:"host" form:"host"`
	Contact            string      `json:"contact" form:"contact"`
	Capacity           string      `json:"capacity" form:"capacity"`
	Tags               []string    `json:"tags" form:"tags"`
	Schedule           string      `json:"schedule" form:"schedule"`
	Speakers           string      `json:"speakers" form:"speakers"`
	Prerequisites      string      `json:"prerequisites" form:"prerequisites"`
	CancellationPolicy string      `json:"cancellationPolicy" form:"cancellationPolicy"`
	Privacy            string      `json:"privacy" form:"privacy"`
	Accessibility      string      `json:"accessibility" form:"accessibility"`
	Note               string      `json:"note" form:"note"`
	SocialMedia        SocialMedia `json:"socialMedia" form:"-"`
	DocumentURL        *string     `json:"documentUrl" form:"documentUrl"`

	// Ignored on create; the owner is always the caller.
	CreatedByUserID *string `json:"createdByUserId" form:"createdByUserId"`
}

// ActivityPatch is a partial update. A nil field is left untouched, a
// non-nil field overwrites, including with an empty value.
type ActivityPatch struct {
	Title              *string      `json:"title"`
	Description        *string      `json:"description"`
	StartDate          *string      `json:"startDate"`
	EndDate            *string      `json:"endDate"`
	Location           *string      `json:"location"`
	Host               *string      `json:"host"`
	Contact            *string      `json:"contact"`
	Capacity           *string      `json:"capacity"`
	Tags               *[]string    `json:"tags"`
	Schedule           *string      `json:"schedule"`
	Speakers           *string      `json:"speakers"`
	Prerequisites      *string      `json:"prerequisites"`
	CancellationPolicy *string      `json:"cancellationPolicy"`
	Privacy            *string      `json:"privacy"`
	Accessibility      *string      `json:"accessibility"`
	Note               *string      `json:"note"`
	SocialMedia        *SocialMedia `json:"socialMedia"`
	DocumentURL        *string      `json:"documentUrl"`
}

type ActivityFilters struct {
	Page       int
	PageSize   int
	IsArchived bool
	Tags       []string
}

type AttendeeInput struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}
