package model

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the top-level tenant scope.
type Organization struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	CreationDate time.Time `gorm:"autoCreateTime" json:"creation_date"`
}

// OrganizationUser binds a user to an organization with exactly one role.
type OrganizationUser struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OrganizationID uint         `gorm:"not null;uniqueIndex:idx_org_user" json:"organization_id"`
	UserID         uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_org_user" json:"user_id"`
	RoleID         uint         `gorm:"not null" json:"role_id"`
	Organization   Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	User           User         `gorm:"foreignKey:UserID" json:"-"`
	Role           Role         `gorm:"foreignKey:RoleID" json:"-"`
}

// Team is the second-level scope, owned by exactly one organization.
type Team struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OrganizationID uint         `gorm:"not null;index" json:"organization_id"`
	Name           string       `gorm:"type:varchar(255);not null" json:"name"`
	Description    string       `gorm:"type:text" json:"description"`
	Organization   Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

// TeamMember binds a user to a team with exactly one role.
type TeamMember struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	TeamID uint      `gorm:"not null;uniqueIndex:idx_team_user" json:"team_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_user" json:"user_id"`
	RoleID uint      `gorm:"not null" json:"role_id"`
	Team   Team      `gorm:"foreignKey:TeamID" json:"-"`
	User   User      `gorm:"foreignKey:UserID" json:"-"`
	Role   Role      `gorm:"foreignKey:RoleID" json:"-"`
}
