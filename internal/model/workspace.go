package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a workspace member's role.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Roles returns every role, lowest privilege first.
func Roles() []Role {
	return []Role{RoleViewer, RoleEditor, RoleAdmin, RoleOwner}
}

// IsValid checks if the role is valid.
func (r Role) IsValid() bool {
	switch r {
	case RoleViewer, RoleEditor, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// Rank orders roles by privilege. Unknown roles rank below viewer.
func (r Role) Rank() int {
	for i, known := range Roles() {
		if r == known {
			return i
		}
	}
	return -1
}

// ParseRole parses a role name, ignoring case and surrounding space.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Workspace groups members, requests and invitations.
type Workspace struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedBy uuid.UUID `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []Member `json:"members,omitempty" gorm:"foreignKey:WorkspaceID"`
}

// TableName returns the database table name.
func (Workspace) TableName() string {
	return "workspaces"
}

// Member is a user's role within a workspace.
type Member struct {
	WorkspaceID uuid.UUID `json:"workspace_id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Role        Role      `json:"role" gorm:"not null;default:viewer;index"`
	JoinedAt    time.Time `json:"joined_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Member) TableName() string {
	return "workspace_members"
}

// MemberWithUser represents a member with user details.
type MemberWithUser struct {
	Member
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
