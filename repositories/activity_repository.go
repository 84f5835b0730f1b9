package repositories

import (
	"context"
	"slices"
	"strings"

	"campus-events-api/models"
	"campus-events-api/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func orderedAttendees(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// NormalizeTags lower-cases, trims and de-duplicates tags for the filter index.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func tagRows(activityID string, tags []string) []models.ActivityTag {
	normalized := NormalizeTags(tags)
	rows := make([]models.ActivityTag, 0, len(normalized))
	for _, tag := range normalized {
		rows = append(rows, models.ActivityTag{ActivityID: activityID, Tag: tag})
	}
	return rows
}

// Create inserts the activity together with its tag index rows.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(activity).Error; err != nil {
			return err
		}
		if rows := tagRows(activity.ID, activity.Tags); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID loads an activity with its attendee roster in insertion order.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	var activity models.Activity
	err := r.db.WithContext(ctx).
		Preload("Attendees", orderedAttendees).
		First(&activity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// Exists reports whether an activity row with id is present.
func (r *ActivityRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns one page of visible activities matching filters, plus the
// total number of matches.
func (r *ActivityRepository) List(ctx context.Context, filters models.ActivityFilters) ([]models.Activity, int64, error) {
	tags := NormalizeTags(filters.Tags)

	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Activity{}).
			Where("is_hidden = ?", false).
			Where("is_archived = ?", filters.IsArchived)
		if len(tags) > 0 {
			sub := r.db.WithContext(ctx).Model(&models.ActivityTag{}).
				Select("activity_id").
				Where("tag IN ?", tags)
			query = query.Where("id IN (?)", sub)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []models.Activity
	offset := (filters.Page - 1) * filters.PageSize
	err := base().
		Preload("Attendees", orderedAttendees).
		Order("start_date ASC").Order("id ASC").
		Offset(offset).
		Limit(filters.PageSize).
		Find(&activities).Error
	if err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

// FindByOwner returns the owner's visible, non-archived activities.
func (r *ActivityRepository) FindByOwner(ctx context.Context, userID string) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Preload("Attendees", orderedAttendees).
		Where("created_by_user_id = ?", userID).
		Where("is_hidden = ? AND is_archived = ?", false, false).
		Order("start_date ASC").Order("id ASC").
		Find(&activities).Error
	return activities, err
}

// Search matches term as a case-insensitive substring of title,
// description or location.
func (r *ActivityRepository) Search(ctx context.Context, term string) ([]models.Activity, error) {
	pattern := utils.ContainsPattern(term)
	esc := utils.LikeEscapeChar

	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Preload("Attendees", orderedAttendees).
		Where("is_hidden = ? AND is_archived = ?", false, false).
		Where("(LOWER(title) LIKE ? ESCAPE '"+esc+"' OR LOWER(description) LIKE ? ESCAPE '"+esc+"' OR LOWER(location) LIKE ? ESCAPE '"+esc+"')",
			pattern, pattern, pattern).
		Order("start_date ASC").Order("id ASC").
		Find(&activities).Error
	return activities, err
}

// UpdateFields writes only the named columns of activity, so counters and
// flags changed by other requests in the meantime are preserved. When
// columns includes "tags" the tag index is rebuilt from activity.Tags.
func (r *ActivityRepository) UpdateFields(ctx context.Context, activity *models.Activity, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Activity{ID: activity.ID}).
			Select(columns).
			Omit(clause.Associations).
			Updates(activity).Error
		if err != nil {
			return err
		}
		if !slices.Contains(columns, "tags") {
			return nil
		}
		if err := tx.Where("activity_id = ?", activity.ID).Delete(&models.ActivityTag{}).Error; err != nil {
			return err
		}
		if rows := tagRows(activity.ID, activity.Tags); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an activity and its owned rows. Registrations are left
// alone and reconciled on read.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_id = ?", id).Delete(&models.ActivityTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("activity_id = ?", id).Delete(&models.ActivityAttendee{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Activity{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *ActivityRepository) setFlag(ctx context.Context, id, column string, value bool) error {
	result := r.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// SetHidden does not check ownership.
func (r *ActivityRepository) SetHidden(ctx context.Context, id string, hidden bool) error {
	return r.setFlag(ctx, id, "is_hidden", hidden)
}

// SetArchived does not check ownership.
func (r *ActivityRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	return r.setFlag(ctx, id, "is_archived", archived)
}

func (r *ActivityRepository) UpdateCoverURL(ctx context.Context, id, url string) error {
	return r.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", id).Update("cover_photo_url", url).Error
}

func refreshAttendanceCount(tx *gorm.DB, activityID string) error {
	var count int64
	if err := tx.Model(&models.ActivityAttendee{}).Where("activity_id = ?", activityID).Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&models.Activity{}).Where("id = ?", activityID).Update("attendance_count", count).Error
}

// AddAttendee appends a (firstName, lastName) entry to the roster and
// refreshes the denormalized count.
func (r *ActivityRepository) AddAttendee(ctx context.Context, activityID string, attendee models.AttendeeInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&models.ActivityAttendee{}).
			Where("activity_id = ? AND first_name = ? AND last_name = ?", activityID, attendee.FirstName, attendee.LastName).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateAttendee
		}

		row := models.ActivityAttendee{
			ActivityID: activityID,
			FirstName:  attendee.FirstName,
			LastName:   attendee.LastName,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateAttendee
			}
			return err
		}

		return refreshAttendanceCount(tx, activityID)
	})
}

// RemoveAttendee deletes the roster entry at index (insertion order).
func (r *ActivityRepository) RemoveAttendee(ctx context.Context, activityID string, index int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attendees []models.ActivityAttendee
		if err := tx.Where("activity_id = ?", activityID).Order("id ASC").Find(&attendees).Error; err != nil {
			return err
		}
		if len(attendees) == 0 {
			return ErrNoAttendees
		}
		if index < 0 || index >= len(attendees) {
			return ErrAttendeeOutOfRange
		}

		if err := tx.Delete(&models.ActivityAttendee{}, attendees[index].ID).Error; err != nil {
			return err
		}

		return refreshAttendanceCount(tx, activityID)
	})
}
