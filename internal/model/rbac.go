package model

import (
	"time"

	"github.com/google/uuid"
)

// Scope is the tier at which a role or permission applies.
type Scope string

const (
	ScopeOrganization Scope = "organization"
	ScopeTeam         Scope = "team"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	return s == ScopeOrganization || s == ScopeTeam
}

// Role groups permissions at exactly one scope. Inherits optionally names a
// parent role whose permissions are merged in at resolution time.
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Slug        string       `gorm:"type:varchar(60);uniqueIndex;not null" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	Scope       Scope        `gorm:"type:varchar(20);not null;index" json:"scope"`
	Inherits    string       `gorm:"type:varchar(50)" json:"inherits,omitempty"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is a single grantable capability. Name follows the
// "resource:action:method[,method...]" convention consumed by the permission
// cache, except for the reserved wildcard name "super_admin".
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Scope       Scope     `gorm:"type:varchar(20);not null;index" json:"scope"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RolePermission is the role⋈permission join row, unique on the pair.
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey" json:"role_id"`
	PermissionID uint `gorm:"primaryKey" json:"permission_id"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// UserRole is a global role grant, independent of org/team membership.
type UserRole struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_role_lookup" json:"user_id"`
	RoleID uint      `gorm:"not null;uniqueIndex:idx_user_role_lookup" json:"role_id"`
	Role   Role      `gorm:"foreignKey:RoleID" json:"role"`
}
