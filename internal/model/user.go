package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the directory entry for an authenticated identity.
// Accounts are owned by the external identity provider; this table only mirrors
// what notifications need.
type User struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email       string    `json:"email" gorm:"uniqueIndex;not null"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

// Label returns the name shown to other people: display name, then email, then "Someone".
func (u *User) Label() string {
	if u == nil {
		return "Someone"
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return "Someone"
}
