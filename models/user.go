package models

import (
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
	RoleUser    Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCreator, RoleUser:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	FirstName string    `json:"firstName" gorm:"not null;size:255"`
	LastName  string    `json:"lastName" gorm:"not null;size:255;index"`
	Pronouns  string    `json:"pronouns" gorm:"size:50"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string    `json:"-" gorm:"not null;size:255"`
	Role      Role      `json:"role" gorm:"not null;size:20;default:user;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// OAuth credential bundle, never serialized
	OAuthProvider     string     `json:"-" gorm:"column:oauth_provider;size:50"`
	OAuthAccessToken  string     `json:"-" gorm:"column:oauth_access_token;type:text"`
	OAuthRefreshToken string     `json:"-" gorm:"column:oauth_refresh_token;type:text"`
	OAuthIDToken      string     `json:"-" gorm:"column:oauth_id_token;type:text"`
	OAuthExpiresAt    *time.Time `json:"-" gorm:"column:oauth_expires_at"`
}

// OAuthCredentials is the token bundle handed back by an OAuth provider.
type OAuthCredentials struct {
	Provider     string
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    *time.Time
}

// UserSummary is the non-sensitive projection returned by directory reads.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Pronouns  string `json:"pronouns"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Pronouns:  u.Pronouns,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// UserProfilePatch carries optional profile fields; nil fields are left alone.
type UserProfilePatch struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Pronouns  *string `json:"pronouns"`
	Email     *string `json:"email" binding:"omitempty,email"`
}

type UserSearchFilters struct {
	Search    string `form:"search"`
	FirstName string `form:"firstName"`
	LastName  string `form:"lastName"`
	Email     string `form:"email"`
	Role      string `form:"role"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}
