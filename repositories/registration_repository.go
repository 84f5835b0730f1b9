package repositories

import (
	"context"

	"campus-events-api/models"

	"gorm.io/gorm"
)

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a registration. A unique-index violation on
// (activity_id, user_id) is reported as ErrDuplicateRegistration.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.EventRegistration) error {
	err := r.db.WithContext(ctx).Create(registration).Error
	if isDuplicateKey(err) {
		return ErrDuplicateRegistration
	}
	return err
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.EventRegistration, error) {
	var registration models.EventRegistration
	if err := r.db.WithContext(ctx).First(&registration, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &registration, nil
}

func (r *RegistrationRepository) ExistsForUser(ctx context.Context, activityID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *RegistrationRepository) ListByActivity(ctx context.Context, activityID string) ([]models.EventRegistration, error) {
	var registrations []models.EventRegistration
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at ASC").Order("id ASC").
		Find(&registrations).Error
	return registrations, err
}

func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error) {
	var registrations []models.EventRegistration
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&registrations).Error
	return registrations, err
}

func (r *RegistrationRepository) ListAttended(ctx context.Context, activityID string) ([]models.EventRegistration, error) {
	var registrations []models.EventRegistration
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND is_attended = ?", activityID, true).
		Order("created_at ASC").Order("id ASC").
		Find(&registrations).Error
	return registrations, err
}

// Counts returns the total and attended registrations for an activity.
func (r *RegistrationRepository) Counts(ctx context.Context, activityID string) (total int64, attended int64, err error) {
	err = r.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("activity_id = ?", activityID).
		Count(&total).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("activity_id = ? AND is_attended = ?", activityID, true).
		Count(&attended).Error
	if err != nil {
		return 0, 0, err
	}
	return total, attended, nil
}

func (r *RegistrationRepository) SetAttendance(ctx context.Context, id string, attended bool) error {
	return r.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("id = ?", id).
		Update("is_attended", attended).Error
}

// DeleteByID returns gorm.ErrRecordNotFound when nothing was removed.
func (r *RegistrationRepository) DeleteByID(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.EventRegistration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByUserAndActivity returns gorm.ErrRecordNotFound when nothing matched.
func (r *RegistrationRepository) DeleteByUserAndActivity(ctx context.Context, userID, activityID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		Delete(&models.EventRegistration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
