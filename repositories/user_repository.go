package repositories

import (
	"context"

	"campus-events-api/models"
	"campus-events-api/utils"

	"gorm.io/gorm"
)

// summaryColumns never includes the password or OAuth bundle.
var summaryColumns = []string{"id", "first_name", "last_name", "pronouns", "email", "role"}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail is an exact match.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) ListSummaries(ctx context.Context) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select(summaryColumns).
		Order("last_name ASC").Order("first_name ASC").
		Find(&users).Error
	return users, err
}

// Search applies every non-empty filter with AND semantics.
func (r *UserRepository) Search(ctx context.Context, filters models.UserSearchFilters) ([]models.UserSummary, int64, error) {
	esc := "ESCAPE '" + utils.LikeEscapeChar + "'"

	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.User{})
		if filters.Search != "" {
			p := utils.ContainsPattern(filters.Search)
			query = query.Where("(LOWER(first_name) LIKE ? "+esc+" OR LOWER(last_name) LIKE ? "+esc+" OR LOWER(email) LIKE ? "+esc+")", p, p, p)
		}
		if filters.FirstName != "" {
			query = query.Where("LOWER(first_name) LIKE ? "+esc, utils.ContainsPattern(filters.FirstName))
		}
		if filters.LastName != "" {
			query = query.Where("LOWER(last_name) LIKE ? "+esc, utils.ContainsPattern(filters.LastName))
		}
		if filters.Email != "" {
			query = query.Where("LOWER(email) LIKE ? "+esc, utils.ContainsPattern(filters.Email))
		}
		if filters.Role != "" {
			query = query.Where("LOWER(role) LIKE ? "+esc, utils.ContainsPattern(filters.Role))
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.UserSummary
	err := base().
		Select(summaryColumns).
		Order("last_name ASC").Order("first_name ASC").
		Offset((filters.Page - 1) * filters.PageSize).
		Limit(filters.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Updates writes the given columns; gorm.ErrRecordNotFound if no row matched.
func (r *UserRepository) Updates(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
