package service

import (
	"context"
	"errors"
	"time"

	"authservice/internal/apperror"
	"authservice/internal/repository"
	"authservice/internal/token"

	"gorm.io/gorm"
)

// --- DTOs ---

type SwitchOrganizationRequest struct {
	OrganizationID uint `json:"organization_id" binding:"required"`
}

type SwitchTeamRequest struct {
	TeamID uint `json:"team_id" binding:"required"`
}

type SwitchContextRequest struct {
	OrganizationID *uint `json:"organization_id"`
	TeamID         *uint `json:"team_id"`
}

type ContextTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type CurrentContextResponse struct {
	ActiveOrganization any `json:"active_organization,omitempty"`
	ActiveTeam         any `json:"active_team,omitempty"`
	Permissions        any `json:"permissions,omitempty"`
}

type AvailableContextsResponse struct {
	Organizations []ContextSummary `json:"organizations"`
	Teams         []ContextSummary `json:"teams"`
}

type ContextSummary struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	OrganizationID uint   `json:"organization_id,omitempty"`
}

// --- Interface ---

// ContextService validates a principal's membership in a target scope and
// mints a new context-enriched token for it.
type ContextService interface {
	SwitchOrganization(ctx context.Context, userEmail string, orgID uint) (*ContextTokenResponse, error)
	SwitchTeam(ctx context.Context, userEmail string, teamID uint) (*ContextTokenResponse, error)
	SwitchContext(ctx context.Context, userEmail string, orgID, teamID *uint) (*ContextTokenResponse, error)
	CurrentContext(claims token.Claims) CurrentContextResponse
	AvailableContexts(ctx context.Context, userEmail string) (*AvailableContextsResponse, error)
}

type contextService struct {
	users       repository.UserRepository
	memberships repository.MembershipRepository
	tokens      *token.Service
	accessTTL   time.Duration
}

func NewContextService(
	users repository.UserRepository,
	memberships repository.MembershipRepository,
	tokens *token.Service,
	accessTTL time.Duration,
) ContextService {
	return &contextService{users: users, memberships: memberships, tokens: tokens, accessTTL: accessTTL}
}

// SwitchOrganization activates an organization context. Switching the
// organization alone resets the active team.
func (s *contextService) SwitchOrganization(ctx context.Context, userEmail string, orgID uint) (*ContextTokenResponse, error) {
	return s.SwitchContext(ctx, userEmail, &orgID, nil)
}

// SwitchTeam activates a team context; the team's owning organization is
// implied.
func (s *contextService) SwitchTeam(ctx context.Context, userEmail string, teamID uint) (*ContextTokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, userEmail)
	if err != nil {
		return nil, apperror.Unauthorized("INVALID_CREDENTIALS", "could not validate credentials")
	}

	tm, err := s.memberships.GetTeamMember(ctx, user.ID, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Forbidden("NOT_TEAM_MEMBER", "user is not a member of this team")
		}
		return nil, apperror.Database("MEMBERSHIP_RETRIEVAL_ERROR", "failed to fetch team membership", err)
	}

	orgID := tm.Team.OrganizationID
	return s.mint(ctx, userEmail, &orgID, &teamID)
}

// SwitchContext validates the requested organization/team pair and mints a
// token for it. Checks run in order; the first failure wins.
func (s *contextService) SwitchContext(ctx context.Context, userEmail string, orgID, teamID *uint) (*ContextTokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, userEmail)
	if err != nil {
		return nil, apperror.Unauthorized("INVALID_CREDENTIALS", "could not validate credentials")
	}

	if orgID != nil {
		if _, err := s.memberships.GetOrganizationUser(ctx, user.ID, *orgID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Forbidden("NOT_ORGANIZATION_MEMBER", "user is not a member of this organization")
			}
			return nil, apperror.Database("MEMBERSHIP_RETRIEVAL_ERROR", "failed to fetch organization membership", err)
		}
	}

	if teamID != nil {
		tm, err := s.memberships.GetTeamMember(ctx, user.ID, *teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Forbidden("NOT_TEAM_MEMBER", "user is not a member of this team")
			}
			return nil, apperror.Database("MEMBERSHIP_RETRIEVAL_ERROR", "failed to fetch team membership", err)
		}
		if orgID != nil && tm.Team.OrganizationID != *orgID {
			return nil, apperror.Validation("TEAM_NOT_IN_ORGANIZATION", "team does not belong to the organization")
		}
	}

	return s.mint(ctx, userEmail, orgID, teamID)
}

// CurrentContext extracts the active context embedded in token claims.
func (s *contextService) CurrentContext(claims token.Claims) CurrentContextResponse {
	return CurrentContextResponse{
		ActiveOrganization: claims["active_organization"],
		ActiveTeam:         claims["active_team"],
		Permissions:        claims["permissions"],
	}
}

// AvailableContexts lists the organizations and teams the user belongs to
// (id and name only).
func (s *contextService) AvailableContexts(ctx context.Context, userEmail string) (*AvailableContextsResponse, error) {
	user, err := s.users.GetByEmail(ctx, userEmail)
	if err != nil {
		return nil, apperror.Unauthorized("INVALID_CREDENTIALS", "could not validate credentials")
	}

	orgs, err := s.memberships.ListUserOrganizations(ctx, user.ID)
	if err != nil {
		return nil, apperror.Database("CONTEXT_RETRIEVAL_ERROR", "failed to list organizations", err)
	}
	teams, err := s.memberships.ListUserTeams(ctx, user.ID, 0)
	if err != nil {
		return nil, apperror.Database("CONTEXT_RETRIEVAL_ERROR", "failed to list teams", err)
	}

	resp := &AvailableContextsResponse{
		Organizations: make([]ContextSummary, 0, len(orgs)),
		Teams:         make([]ContextSummary, 0, len(teams)),
	}
	for _, ou := range orgs {
		resp.Organizations = append(resp.Organizations, ContextSummary{
			ID:   ou.Organization.ID,
			Name: ou.Organization.Name,
		})
	}
	for _, tm := range teams {
		resp.Teams = append(resp.Teams, ContextSummary{
			ID:             tm.Team.ID,
			Name:           tm.Team.Name,
			OrganizationID: tm.Team.OrganizationID,
		})
	}
	return resp, nil
}

func (s *contextService) mint(ctx context.Context, userEmail string, orgID, teamID *uint) (*ContextTokenResponse, error) {
	accessToken, err := s.tokens.CreateContextEnrichedToken(ctx, userEmail, s.accessTTL, orgID, teamID, nil)
	if err != nil {
		return nil, apperror.Internal("TOKEN_CREATION_ERROR", "failed to create context token", err)
	}
	return &ContextTokenResponse{AccessToken: accessToken, TokenType: "Bearer"}, nil
}
