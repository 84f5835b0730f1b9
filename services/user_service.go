package services

import (
	"context"
	"strings"

	"campus-events-api/models"
	"campus-events-api/repositories"
	"campus-events-api/utils"
)

const (
	defaultUserPageSize = 10
	maxUserPageSize     = 100
)

// UserService is the user directory.
type UserService struct {
	users *repositories.UserRepository
}

func NewUserService(users *repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetAll(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.users.ListSummaries(ctx)
	if err != nil {
		return nil, utils.Wrap(err, "Error fetching users")
	}
	return users, nil
}

// Search pages through users matching every provided filter, sorted by last
// name. The returned filters carry the page and size actually applied.
func (s *UserService) Search(ctx context.Context, filters models.UserSearchFilters) ([]models.UserSummary, int64, models.UserSearchFilters, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = defaultUserPageSize
	}
	if filters.PageSize > maxUserPageSize {
		filters.PageSize = maxUserPageSize
	}
	filters.Search = strings.TrimSpace(filters.Search)

	users, total, err := s.users.Search(ctx, filters)
	if err != nil {
		return nil, 0, filters, utils.Wrap(err, "Error searching users")
	}
	return users, total, filters, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, utils.NotFound("User not found")
		}
		return nil, utils.Wrap(err, "Error fetching user")
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, utils.NotFound("User not found")
		}
		return nil, utils.Wrap(err, "Error fetching user")
	}
	return user, nil
}

func authorizeSelfOrAdmin(caller Caller, userID string) error {
	if caller.IsAdmin() || caller.ID == userID {
		return nil
	}
	return utils.Forbidden("You are not allowed to modify this user")
}

// UpdateProfile applies the non-nil fields of patch.
func (s *UserService) UpdateProfile(ctx context.Context, id string, patch models.UserProfilePatch, caller Caller) (*models.User, error) {
	if err := authorizeSelfOrAdmin(caller, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.FirstName != nil {
		updates["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		updates["last_name"] = *patch.LastName
	}
	if patch.Pronouns != nil {
		updates["pronouns"] = *patch.Pronouns
	}
	if patch.Email != nil {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if *patch.Email != current.Email {
			taken, err := s.users.EmailTaken(ctx, *patch.Email)
			if err != nil {
				return nil, utils.Wrap(err, "Error updating user")
			}
			if taken {
				return nil, utils.Conflict("Email already registered")
			}
		}
		updates["email"] = *patch.Email
	}

	if len(updates) > 0 {
		if err := s.users.Updates(ctx, id, updates); err != nil {
			if repositories.IsNotFound(err) {
				return nil, utils.NotFound("User not found")
			}
			return nil, utils.Wrap(err, "Error updating user")
		}
	}

	return s.GetByID(ctx, id)
}

// UpdateRole is reserved for admins.
func (s *UserService) UpdateRole(ctx context.Context, id string, role models.Role, caller Caller) (*models.User, error) {
	if !caller.IsAdmin() {
		return nil, utils.Forbidden("Only admins can change roles")
	}
	if !role.Valid() {
		return nil, utils.BadRequest("Invalid role")
	}
	if err := s.users.Updates(ctx, id, map[string]interface{}{"role": role}); err != nil {
		if repositories.IsNotFound(err) {
			return nil, utils.NotFound("User not found")
		}
		return nil, utils.Wrap(err, "Error updating user role")
	}
	return s.GetByID(ctx, id)
}

// UpdateOAuthCredentials replaces the stored provider token bundle.
func (s *UserService) UpdateOAuthCredentials(ctx context.Context, id string, creds models.OAuthCredentials) error {
	err := s.users.Updates(ctx, id, map[string]interface{}{
		"oauth_provider":      creds.Provider,
		"oauth_access_token":  creds.AccessToken,
		"oauth_refresh_token": creds.RefreshToken,
		"oauth_id_token":      creds.IDToken,
		"oauth_expires_at":    creds.ExpiresAt,
	})
	if err != nil {
		if repositories.IsNotFound(err) {
			return utils.NotFound("User not found")
		}
		return utils.Wrap(err, "Error updating OAuth credentials")
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, id string, caller Caller) error {
	if err := authorizeSelfOrAdmin(caller, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return utils.NotFound("User not found")
		}
		return utils.Wrap(err, "Error deleting user")
	}
	return nil
}
