package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"campus-events-api/models"
	"campus-events-api/repositories"
	"campus-events-api/utils"

	"github.com/google/uuid"
)

const (
	DefaultActivityPageSize = 12
	MaxActivityPageSize     = 100

	coverImageFolder = "activities"
)

type ActivityService struct {
	activities *repositories.ActivityRepository
	media      *MediaService
}

func NewActivityService(activities *repositories.ActivityRepository, media *MediaService) *ActivityService {
	return &ActivityService{activities: activities, media: media}
}

// ParseTimestamp accepts RFC 3339 timestamps with an offset and returns
// the instant in UTC. sqlite stores times as text, so a single offset keeps
// ORDER BY start_date chronological.
func ParseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, utils.BadRequest("Invalid " + field + ", expected an ISO 8601 timestamp")
	}
	return t.UTC(), nil
}

func activityNotFound() error {
	return utils.NotFound("Activity not found")
}

// Create persists a new activity owned by caller. A cover file is uploaded
// first; if the insert then fails the uploaded object is removed.
func (s *ActivityService) Create(ctx context.Context, fields models.ActivityFields, caller Caller, cover *UploadFile) (*models.Activity, error) {
	if !CanCreateActivity(caller) {
		return nil, utils.Forbidden("You are not allowed to create activities")
	}

	start, err := ParseTimestamp("startDate", fields.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimestamp("endDate", fields.EndDate)
	if err != nil {
		return nil, err
	}

	ownerID := caller.ID
	activity := &models.Activity{
		ID:                 uuid.New().String(),
		CreatedByUserID:    &ownerID,
		Title:              fields.Title,
		Description:        fields.Description,
		StartDate:          start,
		EndDate:            end,
		Location:           fields.Location,
		Host:               fields.Host,
		Contact:            fields.Contact,
		Capacity:           fields.Capacity,
		Tags:               models.StringSlice(cleanTags(fields.Tags)),
		Schedule:           fields.Schedule,
		Speakers:           fields.Speakers,
		Prerequisites:      fields.Prerequisites,
		CancellationPolicy: fields.CancellationPolicy,
		Privacy:            fields.Privacy,
		Accessibility:      fields.Accessibility,
		Note:               fields.Note,
		SocialMedia:        fields.SocialMedia,
		DocumentURL:        fields.DocumentURL,
	}

	var uploaded *UploadResult
	if cover != nil {
		uploaded, err = s.media.Upload(ctx, *cover, coverImageFolder, true)
		if err != nil {
			return nil, err
		}
		activity.CoverPhotoURL = &uploaded.URL
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		if uploaded != nil {
			if rmErr := s.media.Remove(ctx, uploaded.Key); rmErr != nil {
				log.Printf("Failed to remove orphaned cover %s: %v", uploaded.Key, rmErr)
			}
		}
		return nil, utils.Wrap(err, "Error creating activity")
	}

	return s.GetByID(ctx, activity.ID)
}

// cleanTags trims tags and drops empty ones while keeping submission order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		for _, part := range strings.Split(tag, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// List returns visible activities; hidden ones are never included.
func (s *ActivityService) List(ctx context.Context, filters models.ActivityFilters) ([]models.Activity, int64, models.ActivityFilters, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = DefaultActivityPageSize
	}
	if filters.PageSize > MaxActivityPageSize {
		filters.PageSize = MaxActivityPageSize
	}

	activities, total, err := s.activities.List(ctx, filters)
	if err != nil {
		return nil, 0, filters, utils.Wrap(err, "Error fetching activities")
	}
	return activities, total, filters, nil
}

func (s *ActivityService) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, activityNotFound()
		}
		return nil, utils.Wrap(err, "Error fetching activity")
	}
	return activity, nil
}

func (s *ActivityService) GetByUser(ctx context.Context, userID string) ([]models.Activity, error) {
	activities, err := s.activities.FindByOwner(ctx, userID)
	if err != nil {
		return nil, utils.Wrap(err, "Error fetching user activities")
	}
	return activities, nil
}

func (s *ActivityService) Search(ctx context.Context, term string) ([]models.Activity, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, utils.BadRequest("Search query required")
	}
	activities, err := s.activities.Search(ctx, term)
	if err != nil {
		return nil, utils.Wrap(err, "Error searching activities")
	}
	return activities, nil
}

// loadForMutation fetches the activity and applies the ownership rule.
func (s *ActivityService) loadForMutation(ctx context.Context, id string, caller Caller) (*models.Activity, error) {
	activity, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeActivityMutation(caller, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *ActivityService) Update(ctx context.Context, id string, patch models.ActivityPatch, caller Caller) (*models.Activity, error) {
	activity, err := s.loadForMutation(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	columns, err := applyPatch(activity, patch)
	if err != nil {
		return nil, err
	}

	if err := s.activities.UpdateFields(ctx, activity, columns); err != nil {
		return nil, utils.Wrap(err, "Error updating activity")
	}
	return s.GetByID(ctx, id)
}

func setString(columns *[]string, column string, dst *string, src *string) {
	if src != nil {
		*dst = *src
		*columns = append(*columns, column)
	}
}

// applyPatch copies every non-nil patch field onto activity and returns the
// columns it touched.
func applyPatch(activity *models.Activity, patch models.ActivityPatch) ([]string, error) {
	var columns []string

	if patch.StartDate != nil {
		t, err := ParseTimestamp("startDate", *patch.StartDate)
		if err != nil {
			return nil, err
		}
		activity.StartDate = t
		columns = append(columns, "start_date")
	}
	if patch.EndDate != nil {
		t, err := ParseTimestamp("endDate", *patch.EndDate)
		if err != nil {
			return nil, err
		}
		activity.EndDate = t
		columns = append(columns, "end_date")
	}

	setString(&columns, "title", &activity.Title, patch.Title)
	setString(&columns, "description", &activity.Description, patch.Description)
	setString(&columns, "location", &activity.Location, patch.Location)
	setString(&columns, "host", &activity.Host, patch.Host)
	setString(&columns, "contact", &activity.Contact, patch.Contact)
	setString(&columns, "capacity", &activity.Capacity, patch.Capacity)
	setString(&columns, "schedule", &activity.Schedule, patch.Schedule)
	setString(&columns, "speakers", &activity.Speakers, patch.Speakers)
	setString(&columns, "prerequisites", &activity.Prerequisites, patch.Prerequisites)
	setString(&columns, "cancellation_policy", &activity.CancellationPolicy, patch.CancellationPolicy)
	setString(&columns, "privacy", &activity.Privacy, patch.Privacy)
	setString(&columns, "accessibility", &activity.Accessibility, patch.Accessibility)
	setString(&columns, "note", &activity.Note, patch.Note)

	if patch.SocialMedia != nil {
		activity.SocialMedia = *patch.SocialMedia
		columns = append(columns, "social_media")
	}
	if patch.DocumentURL != nil {
		url := *patch.DocumentURL
		activity.DocumentURL = &url
		columns = append(columns, "document_url")
	}
	if patch.Tags != nil {
		activity.Tags = models.StringSlice(cleanTags(*patch.Tags))
		columns = append(columns, "tags")
	}
	return columns, nil
}

func (s *ActivityService) Delete(ctx context.Context, id string, caller Caller) error {
	if _, err := s.loadForMutation(ctx, id, caller); err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return activityNotFound()
		}
		return utils.Wrap(err, "Error deleting activity")
	}
	return nil
}

func (s *ActivityService) setHidden(ctx context.Context, id string, hidden bool, caller Caller) error {
	if _, err := s.loadForMutation(ctx, id, caller); err != nil {
		return err
	}
	if err := s.activities.SetHidden(ctx, id, hidden); err != nil {
		if repositories.IsNotFound(err) {
			return activityNotFound()
		}
		return utils.Wrap(err, "Error hiding activity")
	}
	return nil
}

func (s *ActivityService) Hide(ctx context.Context, id string, caller Caller) error {
	return s.setHidden(ctx, id, true, caller)
}

func (s *ActivityService) Unhide(ctx context.Context, id string, caller Caller) error {
	return s.setHidden(ctx, id, false, caller)
}

func (s *ActivityService) setArchived(ctx context.Context, id string, archived bool, caller Caller) error {
	if _, err := s.loadForMutation(ctx, id, caller); err != nil {
		return err
	}
	if err := s.activities.SetArchived(ctx, id, archived); err != nil {
		if repositories.IsNotFound(err) {
			return activityNotFound()
		}
		return utils.Wrap(err, "Error archiving activity")
	}
	return nil
}

func (s *ActivityService) Archive(ctx context.Context, id string, caller Caller) error {
	return s.setArchived(ctx, id, true, caller)
}

func (s *ActivityService) Unarchive(ctx context.Context, id string, caller Caller) error {
	return s.setArchived(ctx, id, false, caller)
}

// AddAttendee appends to the activity's roster. Identity is the exact
// (firstName, lastName) pair.
func (s *ActivityService) AddAttendee(ctx context.Context, activityID string, attendee models.AttendeeInput) (*models.Activity, error) {
	if _, err := s.GetByID(ctx, activityID); err != nil {
		return nil, err
	}

	attendee.FirstName = strings.TrimSpace(attendee.FirstName)
	attendee.LastName = strings.TrimSpace(attendee.LastName)
	if attendee.FirstName == "" || attendee.LastName == "" {
		return nil, utils.BadRequest("Attendee first and last name are required")
	}

	if err := s.activities.AddAttendee(ctx, activityID, attendee); err != nil {
		if errors.Is(err, repositories.ErrDuplicateAttendee) {
			return nil, utils.BadRequest("Attendee already registered")
		}
		return nil, utils.Wrap(err, "Error adding attendee")
	}
	return s.GetByID(ctx, activityID)
}

func (s *ActivityService) RemoveAttendee(ctx context.Context, activityID string, index int) (*models.Activity, error) {
	if _, err := s.GetByID(ctx, activityID); err != nil {
		return nil, err
	}

	if err := s.activities.RemoveAttendee(ctx, activityID, index); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNoAttendees):
			return nil, utils.BadRequest("No attendees to remove")
		case errors.Is(err, repositories.ErrAttendeeOutOfRange):
			return nil, utils.BadRequest("Attendee index out of range")
		}
		return nil, utils.Wrap(err, "Error removing attendee")
	}
	return s.GetByID(ctx, activityID)
}

// UpdateCoverImage uploads a new cover and drops the previous object.
func (s *ActivityService) UpdateCoverImage(ctx context.Context, id string, file UploadFile, caller Caller) (*models.Activity, error) {
	activity, err := s.loadForMutation(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.media.Upload(ctx, file, coverImageFolder, true)
	if err != nil {
		return nil, err
	}

	if err := s.activities.UpdateCoverURL(ctx, id, uploaded.URL); err != nil {
		return nil, utils.Wrap(err, "Error updating cover image")
	}

	if activity.CoverPhotoURL != nil {
		if key, ok := s.media.KeyFromURL(*activity.CoverPhotoURL); ok {
			if err := s.media.Remove(ctx, key); err != nil {
				log.Printf("Failed to remove previous cover %s: %v", key, err)
			}
		}
	}

	return s.GetByID(ctx, id)
}
