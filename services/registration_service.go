package services

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"

	"campus-events-api/models"
	"campus-events-api/repositories"
	"campus-events-api/utils"

	"github.com/google/uuid"
)

// RegistrationService is the event-registration ledger. It is the source
// of truth for capacity and attendance statistics.
type RegistrationService struct {
	registrations *repositories.RegistrationRepository
	activities    *repositories.ActivityRepository
	mailer        Mailer

	// dispatch runs best-effort side work off the request path.
	dispatch func(func())
}

func NewRegistrationService(registrations *repositories.RegistrationRepository, activities *repositories.ActivityRepository, mailer Mailer) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		activities:    activities,
		mailer:        mailer,
		dispatch:      func(f func()) { go f() },
	}
}

func registrationNotFound() error {
	return utils.NotFound("Registration not found")
}

func alreadyRegistered() error {
	return utils.BadRequest("User already registered for this event")
}

// capacityLimit returns the positive seat count encoded in capacity, or 0
// when the activity is unlimited.
func capacityLimit(capacity string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(capacity), 10, 64)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Register records a signup for in.UserID.
func (s *RegistrationService) Register(ctx context.Context, in models.RegistrationInput) (*models.EventRegistration, error) {
	activity, err := s.activities.FindByID(ctx, in.ActivityID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, activityNotFound()
		}
		return nil, utils.Wrap(err, "Error registering for event")
	}

	exists, err := s.registrations.ExistsForUser(ctx, in.ActivityID, in.UserID)
	if err != nil {
		return nil, utils.Wrap(err, "Error registering for event")
	}
	if exists {
		return nil, alreadyRegistered()
	}

	if limit := capacityLimit(activity.Capacity); limit > 0 {
		total, _, err := s.registrations.Counts(ctx, in.ActivityID)
		if err != nil {
			return nil, utils.Wrap(err, "Error registering for event")
		}
		if total >= limit {
			return nil, utils.BadRequest("Event is at full capacity")
		}
	}

	registration := &models.EventRegistration{
		ID:          uuid.New().String(),
		ActivityID:  in.ActivityID,
		UserID:      in.UserID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		College:     in.College,
		YearOfStudy: in.YearOfStudy,
		IsAttended:  in.IsAttended,
	}
	if err := s.registrations.Create(ctx, registration); err != nil {
		if errors.Is(err, repositories.ErrDuplicateRegistration) {
			return nil, alreadyRegistered()
		}
		return nil, utils.Wrap(err, "Error registering for event")
	}

	if s.mailer != nil {
		email, name, title, start := registration.Email, registration.FirstName, activity.Title, activity.StartDate
		s.dispatch(func() {
			if err := s.mailer.SendRegistrationConfirmation(email, name, title, start); err != nil {
				log.Printf("Failed to send registration confirmation to %s: %v", email, err)
			}
		})
	}

	return registration, nil
}

func (s *RegistrationService) ListByActivity(ctx context.Context, activityID string) ([]models.EventRegistration, error) {
	registrations, err := s.registrations.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, utils.Wrap(err, "Error fetching registrations")
	}
	return registrations, nil
}

// ListByUser returns the user's registrations, dropping (and deleting) any
// whose activity no longer exists.
func (s *RegistrationService) ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error) {
	events, err := s.ListUserEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	registrations := make([]models.EventRegistration, 0, len(events))
	for _, event := range events {
		registrations = append(registrations, event.Registration)
	}
	return registrations, nil
}

// ListUserEvents resolves each of the user's registrations to its activity.
// Registrations whose activity no longer exists are deleted and skipped.
func (s *RegistrationService) ListUserEvents(ctx context.Context, userID string) ([]models.RegisteredEvent, error) {
	registrations, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.Wrap(err, "Error fetching user events")
	}

	events := make([]models.RegisteredEvent, 0, len(registrations))
	for _, registration := range registrations {
		activity, err := s.activities.FindByID(ctx, registration.ActivityID)
		if err != nil {
			if !repositories.IsNotFound(err) {
				return nil, utils.Wrap(err, "Error fetching user events")
			}
			if err := s.registrations.DeleteByID(ctx, registration.ID); err != nil && !repositories.IsNotFound(err) {
				log.Printf("Failed to remove orphaned registration %s: %v", registration.ID, err)
			}
			continue
		}
		events = append(events, models.RegisteredEvent{Registration: registration, Activity: *activity})
	}
	return events, nil
}

// ownsActivity reports whether caller created the activity. A missing
// activity has no owner.
func (s *RegistrationService) ownsActivity(ctx context.Context, caller Caller, activityID string) (bool, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return activity.CreatedByUserID != nil && *activity.CreatedByUserID == caller.ID, nil
}

func (s *RegistrationService) getByID(ctx context.Context, id, failure string) (*models.EventRegistration, error) {
	registration, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, registrationNotFound()
		}
		return nil, utils.Wrap(err, failure)
	}
	return registration, nil
}

// MarkAttendance is allowed for admins and the activity's owner.
func (s *RegistrationService) MarkAttendance(ctx context.Context, id string, attended bool, caller Caller) (*models.EventRegistration, error) {
	registration, err := s.getByID(ctx, id, "Error updating attendance")
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() {
		owner, err := s.ownsActivity(ctx, caller, registration.ActivityID)
		if err != nil {
			return nil, utils.Wrap(err, "Error updating attendance")
		}
		if !owner {
			return nil, utils.Forbidden("You are not allowed to update attendance for this event")
		}
	}

	if err := s.registrations.SetAttendance(ctx, id, attended); err != nil {
		return nil, utils.Wrap(err, "Error updating attendance")
	}
	registration.IsAttended = attended
	return registration, nil
}

func (s *RegistrationService) AttendeesOf(ctx context.Context, activityID string) ([]models.EventRegistration, error) {
	registrations, err := s.registrations.ListAttended(ctx, activityID)
	if err != nil {
		return nil, utils.Wrap(err, "Error fetching attendees")
	}
	return registrations, nil
}

func (s *RegistrationService) Stats(ctx context.Context, activityID string) (*models.RegistrationStats, error) {
	total, attended, err := s.registrations.Counts(ctx, activityID)
	if err != nil {
		return nil, utils.Wrap(err, "Error fetching registration stats")
	}
	return &models.RegistrationStats{
		TotalRegistrations: total,
		TotalAttendees:     attended,
		AttendanceRate:     attendanceRate(total, attended),
	}, nil
}

// attendanceRate is a percentage rounded to two decimals.
func attendanceRate(total, attended int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(attended)/float64(total)*100*100) / 100
}

// DeleteByID is allowed for the registrant, admins and the activity's owner.
func (s *RegistrationService) DeleteByID(ctx context.Context, id string, caller Caller) error {
	registration, err := s.getByID(ctx, id, "Error deleting registration")
	if err != nil {
		return err
	}

	if !caller.IsAdmin() && registration.UserID != caller.ID {
		owner, err := s.ownsActivity(ctx, caller, registration.ActivityID)
		if err != nil {
			return utils.Wrap(err, "Error deleting registration")
		}
		if !owner {
			return utils.Forbidden("You are not allowed to delete this registration")
		}
	}

	if err := s.registrations.DeleteByID(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return registrationNotFound()
		}
		return utils.Wrap(err, "Error deleting registration")
	}
	return nil
}

func (s *RegistrationService) DeleteByUserAndActivity(ctx context.Context, userID, activityID string) error {
	if err := s.registrations.DeleteByUserAndActivity(ctx, userID, activityID); err != nil {
		if repositories.IsNotFound(err) {
			return registrationNotFound()
		}
		return utils.Wrap(err, "Error deleting registration")
	}
	return nil
}
