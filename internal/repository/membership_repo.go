package repository

import (
	"context"

	"authservice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipRepository covers organization/team membership rows and the
// lookups token enrichment and the authorization middleware depend on.
type MembershipRepository interface {
	CreateOrganization(ctx context.Context, org *model.Organization) error
	GetOrganizationByID(ctx context.Context, id uint) (*model.Organization, error)
	CreateTeam(ctx context.Context, team *model.Team) error
	GetTeamByID(ctx context.Context, id uint) (*model.Team, error)

	AddOrganizationUser(ctx context.Context, ou *model.OrganizationUser) error
	RemoveOrganizationUser(ctx context.Context, orgID uint, userID uuid.UUID) (bool, error)
	AddTeamMember(ctx context.Context, tm *model.TeamMember) error
	RemoveTeamMember(ctx context.Context, teamID uint, userID uuid.UUID) (bool, error)

	GetOrganizationUser(ctx context.Context, userID uuid.UUID, orgID uint) (*model.OrganizationUser, error)
	GetTeamMember(ctx context.Context, userID uuid.UUID, teamID uint) (*model.TeamMember, error)
	GetRoleOfUserInOrganization(ctx context.Context, userID uuid.UUID, orgID uint) (*model.Role, error)
	GetRoleOfUserInTeam(ctx context.Context, userID uuid.UUID, teamID uint) (*model.Role, error)

	ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]model.OrganizationUser, error)
	ListUserTeams(ctx context.Context, userID uuid.UUID, orgID uint) ([]model.TeamMember, error)
	ListOrganizationTeams(ctx context.Context, orgID uint) ([]model.Team, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) CreateOrganization(ctx context.Context, org *model.Organization) error {
	return GetDB(ctx, r.db).Create(org).Error
}

func (r *membershipRepository) GetOrganizationByID(ctx context.Context, id uint) (*model.Organization, error) {
	var org model.Organization
	if err := GetDB(ctx, r.db).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *membershipRepository) CreateTeam(ctx context.Context, team *model.Team) error {
	return GetDB(ctx, r.db).Create(team).Error
}

func (r *membershipRepository) GetTeamByID(ctx context.Context, id uint) (*model.Team, error) {
	var team model.Team
	if err := GetDB(ctx, r.db).First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *membershipRepository) AddOrganizationUser(ctx context.Context, ou *model.OrganizationUser) error {
	return GetDB(ctx, r.db).Create(ou).Error
}

func (r *membershipRepository) RemoveOrganizationUser(ctx context.Context, orgID uint, userID uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&model.OrganizationUser{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *membershipRepository) AddTeamMember(ctx context.Context, tm *model.TeamMember) error {
	return GetDB(ctx, r.db).Create(tm).Error
}

func (r *membershipRepository) RemoveTeamMember(ctx context.Context, teamID uint, userID uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&model.TeamMember{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *membershipRepository) GetOrganizationUser(ctx context.Context, userID uuid.UUID, orgID uint) (*model.OrganizationUser, error) {
	var ou model.OrganizationUser
	err := GetDB(ctx, r.db).Preload("Organization").Preload("Role").
		Where("user_id = ? AND organization_id = ?", userID, orgID).First(&ou).Error
	if err != nil {
		return nil, err
	}
	return &ou, nil
}

func (r *membershipRepository) GetTeamMember(ctx context.Context, userID uuid.UUID, teamID uint) (*model.TeamMember, error) {
	var tm model.TeamMember
	err := GetDB(ctx, r.db).Preload("Team").Preload("Role").
		Where("user_id = ? AND team_id = ?", userID, teamID).First(&tm).Error
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func (r *membershipRepository) GetRoleOfUserInOrganization(ctx context.Context, userID uuid.UUID, orgID uint) (*model.Role, error) {
	ou, err := r.GetOrganizationUser(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	return &ou.Role, nil
}

func (r *membershipRepository) GetRoleOfUserInTeam(ctx context.Context, userID uuid.UUID, teamID uint) (*model.Role, error) {
	tm, err := r.GetTeamMember(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	return &tm.Role, nil
}

func (r *membershipRepository) ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]model.OrganizationUser, error) {
	var rows []model.OrganizationUser
	err := GetDB(ctx, r.db).Preload("Organization").
		Where("user_id = ?", userID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *membershipRepository) ListOrganizationTeams(ctx context.Context, orgID uint) ([]model.Team, error) {
	var teams []model.Team
	err := GetDB(ctx, r.db).Where("organization_id = ?", orgID).Order("name ASC").Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// ListUserTeams returns the user's team memberships, optionally filtered to
// teams belonging to orgID (0 means all organizations).
func (r *membershipRepository) ListUserTeams(ctx context.Context, userID uuid.UUID, orgID uint) ([]model.TeamMember, error) {
	db := GetDB(ctx, r.db).Preload("Team").Where("team_members.user_id = ?", userID)
	if orgID != 0 {
		db = db.Joins("INNER JOIN teams ON teams.id = team_members.team_id").
			Where("teams.organization_id = ?", orgID)
	}
	var rows []model.TeamMember
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
