package services

import (
	"campus-events-api/models"
	"campus-events-api/utils"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   string
	Role models.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// CanCreateActivity reports whether the caller's role may create listings.
func CanCreateActivity(caller Caller) bool {
	return caller.Role == models.RoleAdmin || caller.Role == models.RoleCreator
}

// CanModifyActivity applies the ownership rule for update, delete,
// archive, hide and cover uploads.
func CanModifyActivity(caller Caller, activity *models.Activity) bool {
	switch caller.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCreator:
		return activity.CreatedByUserID != nil && *activity.CreatedByUserID == caller.ID
	default:
		return false
	}
}

func authorizeActivityMutation(caller Caller, activity *models.Activity) error {
	if !CanModifyActivity(caller, activity) {
		return utils.Forbidden("You are not allowed to modify this activity")
	}
	return nil
}
