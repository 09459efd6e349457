package service

import (
	"context"
	"errors"

	"authservice/internal/apperror"
	"authservice/internal/model"
	"authservice/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	RoleID uint   `json:"role_id" binding:"required"`
}

// --- Interface ---

// MembershipService manages organization/team membership rows. A membership
// role's scope must match the membership kind.
type MembershipService interface {
	CreateOrganization(ctx context.Context, req CreateOrganizationRequest, creatorID uuid.UUID) (*model.Organization, error)
	GetOrganization(ctx context.Context, id uint) (*model.Organization, error)
	CreateTeam(ctx context.Context, orgID uint, req CreateTeamRequest) (*model.Team, error)
	GetTeam(ctx context.Context, id uint) (*model.Team, error)
	ListOrganizationTeams(ctx context.Context, orgID uint) ([]model.Team, error)
	AddUserToOrganization(ctx context.Context, orgID uint, req AddMemberRequest) error
	RemoveUserFromOrganization(ctx context.Context, orgID uint, userID uuid.UUID) error
	AddUserToTeam(ctx context.Context, teamID uint, req AddMemberRequest) error
	RemoveUserFromTeam(ctx context.Context, teamID uint, userID uuid.UUID) error
}

type membershipService struct {
	memberships repository.MembershipRepository
	rbacRepo    repository.RBACRepository
	txm         repository.TransactionManager
}

func NewMembershipService(
	memberships repository.MembershipRepository,
	rbacRepo repository.RBACRepository,
	txm repository.TransactionManager,
) MembershipService {
	return &membershipService{memberships: memberships, rbacRepo: rbacRepo, txm: txm}
}

// CreateOrganization creates the organization and, when an organization-scope
// Admin role exists, makes the creator its first admin.
func (s *membershipService) CreateOrganization(ctx context.Context, req CreateOrganizationRequest, creatorID uuid.UUID) (*model.Organization, error) {
	org := model.Organization{Name: req.Name}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.memberships.CreateOrganization(txCtx, &org); err != nil {
			return err
		}
		adminRole, err := s.rbacRepo.GetRoleByName(txCtx, "Admin")
		if err != nil || adminRole.Scope != model.ScopeOrganization {
			// No bootstrap admin role configured yet; the organization is
			// created without members.
			return nil
		}
		return s.memberships.AddOrganizationUser(txCtx, &model.OrganizationUser{
			OrganizationID: org.ID,
			UserID:         creatorID,
			RoleID:         adminRole.ID,
		})
	})
	if err != nil {
		return nil, apperror.Database("ORGANIZATION_CREATION_ERROR", "failed to create organization", err)
	}
	return &org, nil
}

func (s *membershipService) GetOrganization(ctx context.Context, id uint) (*model.Organization, error) {
	org, err := s.memberships.GetOrganizationByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("ORGANIZATION_NOT_FOUND", "organization not found")
		}
		return nil, apperror.Database("ORGANIZATION_RETRIEVAL_ERROR", "failed to fetch organization", err)
	}
	return org, nil
}

func (s *membershipService) GetTeam(ctx context.Context, id uint) (*model.Team, error) {
	team, err := s.memberships.GetTeamByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("TEAM_NOT_FOUND", "team not found")
		}
		return nil, apperror.Database("TEAM_RETRIEVAL_ERROR", "failed to fetch team", err)
	}
	return team, nil
}

func (s *membershipService) ListOrganizationTeams(ctx context.Context, orgID uint) ([]model.Team, error) {
	if _, err := s.GetOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	teams, err := s.memberships.ListOrganizationTeams(ctx, orgID)
	if err != nil {
		return nil, apperror.Database("TEAMS_RETRIEVAL_ERROR", "failed to list teams", err)
	}
	return teams, nil
}

func (s *membershipService) CreateTeam(ctx context.Context, orgID uint, req CreateTeamRequest) (*model.Team, error) {
	if _, err := s.memberships.GetOrganizationByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("ORGANIZATION_NOT_FOUND", "organization not found")
		}
		return nil, apperror.Database("ORGANIZATION_RETRIEVAL_ERROR", "failed to fetch organization", err)
	}

	team := model.Team{OrganizationID: orgID, Name: req.Name, Description: req.Description}
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.memberships.CreateTeam(txCtx, &team)
	})
	if err != nil {
		return nil, apperror.Database("TEAM_CREATION_ERROR", "failed to create team", err)
	}
	return &team, nil
}

func (s *membershipService) AddUserToOrganization(ctx context.Context, orgID uint, req AddMemberRequest) error {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperror.Validation("INVALID_USER_ID", "user_id must be a valid UUID")
	}

	role, err := s.roleForMembership(ctx, req.RoleID, model.ScopeOrganization)
	if err != nil {
		return err
	}

	if _, err := s.memberships.GetOrganizationUser(ctx, userID, orgID); err == nil {
		return apperror.Conflict("ALREADY_ORGANIZATION_MEMBER", "user is already a member of this organization")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.memberships.AddOrganizationUser(txCtx, &model.OrganizationUser{
			OrganizationID: orgID,
			UserID:         userID,
			RoleID:         role.ID,
		})
	})
	if err != nil {
		return apperror.Database("MEMBERSHIP_CREATION_ERROR", "failed to add user to organization", err)
	}
	return nil
}

func (s *membershipService) RemoveUserFromOrganization(ctx context.Context, orgID uint, userID uuid.UUID) error {
	var removed bool
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		removed, txErr = s.memberships.RemoveOrganizationUser(txCtx, orgID, userID)
		return txErr
	})
	if err != nil {
		return apperror.Database("MEMBERSHIP_REMOVAL_ERROR", "failed to remove user from organization", err)
	}
	if !removed {
		return apperror.NotFound("MEMBERSHIP_NOT_FOUND", "user is not a member of this organization")
	}
	return nil
}

func (s *membershipService) AddUserToTeam(ctx context.Context, teamID uint, req AddMemberRequest) error {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperror.Validation("INVALID_USER_ID", "user_id must be a valid UUID")
	}

	if _, err := s.memberships.GetTeamByID(ctx, teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("TEAM_NOT_FOUND", "team not found")
		}
		return apperror.Database("TEAM_RETRIEVAL_ERROR", "failed to fetch team", err)
	}

	role, err := s.roleForMembership(ctx, req.RoleID, model.ScopeTeam)
	if err != nil {
		return err
	}

	if _, err := s.memberships.GetTeamMember(ctx, userID, teamID); err == nil {
		return apperror.Conflict("ALREADY_TEAM_MEMBER", "user is already a member of this team")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.memberships.AddTeamMember(txCtx, &model.TeamMember{
			TeamID: teamID,
			UserID: userID,
			RoleID: role.ID,
		})
	})
	if err != nil {
		return apperror.Database("MEMBERSHIP_CREATION_ERROR", "failed to add user to team", err)
	}
	return nil
}

func (s *membershipService) RemoveUserFromTeam(ctx context.Context, teamID uint, userID uuid.UUID) error {
	var removed bool
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		removed, txErr = s.memberships.RemoveTeamMember(txCtx, teamID, userID)
		return txErr
	})
	if err != nil {
		return apperror.Database("MEMBERSHIP_REMOVAL_ERROR", "failed to remove user from team", err)
	}
	if !removed {
		return apperror.NotFound("MEMBERSHIP_NOT_FOUND", "user is not a member of this team")
	}
	return nil
}

// roleForMembership fetches the role and enforces that its scope matches the
// membership kind being created.
func (s *membershipService) roleForMembership(ctx context.Context, roleID uint, want model.Scope) (*model.Role, error) {
	role, err := s.rbacRepo.GetRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("ROLE_NOT_FOUND", "role not found")
		}
		return nil, apperror.Database("ROLE_RETRIEVAL_ERROR", "failed to fetch role", err)
	}
	if role.Scope != want {
		return nil, apperror.Validation("ROLE_SCOPE_MISMATCH",
			"role scope does not match the membership scope")
	}
	return role, nil
}
