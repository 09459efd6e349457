package token

import (
	"context"
	"log"
	"time"

	"authservice/internal/model"
	"authservice/internal/rbac"
	"authservice/internal/repository"
)

// Service issues and verifies tokens. The signing strategy is injected at
// startup; claim assembly is shared between strategies.
type Service struct {
	signer      Signer
	tokens      repository.TokenRepository
	users       repository.UserRepository
	memberships repository.MembershipRepository
	cache       *rbac.Cache
}

func NewService(
	signer Signer,
	tokens repository.TokenRepository,
	users repository.UserRepository,
	memberships repository.MembershipRepository,
	cache *rbac.Cache,
) *Service {
	return &Service{
		signer:      signer,
		tokens:      tokens,
		users:       users,
		memberships: memberships,
		cache:       cache,
	}
}

// CreateAccessToken signs a short-lived token carrying the given claims.
func (s *Service) CreateAccessToken(claims Claims, ttl time.Duration) (string, error) {
	return s.signer.CreateToken(claims, ttl)
}

// CreateRefreshToken signs a refresh token and persists it so revocation and
// expiry can be enforced server-side.
func (s *Service) CreateRefreshToken(ctx context.Context, claims Claims, ttl time.Duration) (string, error) {
	tokenString, nonce, err := s.signer.CreateRefreshToken(claims, ttl)
	if err != nil {
		return "", err
	}

	subject, _ := claims["sub"].(string)
	row := &model.RefreshToken{
		UserEmail: subject,
		Token:     tokenString,
		TokenType: s.signer.Mode(),
		Nonce:     nonce,
		ExpiresAt: time.Now().UTC().Add(ttl),
		Revoked:   false,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return "", err
	}
	return tokenString, nil
}

// VerifyToken checks signature and expiry and returns the claims.
func (s *Service) VerifyToken(tokenString string) (Claims, error) {
	return s.signer.VerifyToken(tokenString)
}

// VerifyRefreshToken verifies the signature and then checks the persisted
// row: unknown, revoked and expired tokens are all rejected with the same
// generic outcome.
func (s *Service) VerifyRefreshToken(ctx context.Context, tokenString string) (Claims, error) {
	claims, err := s.signer.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	row, err := s.tokens.GetByToken(ctx, tokenString)
	if err != nil {
		return nil, errInvalidToken()
	}
	if row.Revoked {
		// A revoked token presented again means the rotation chain leaked;
		// every session of the user is revoked.
		if err := s.tokens.RevokeAllForUser(ctx, row.UserEmail); err != nil {
			log.Printf("refresh token reuse: revoking sessions for %s failed: %v", row.UserEmail, err)
		}
		return nil, errInvalidToken()
	}
	if row.ExpiresAt.Before(time.Now().UTC()) {
		return nil, errInvalidToken()
	}
	if row.Nonce != "" {
		nonce, _ := claims["nonce"].(string)
		if nonce != row.Nonce {
			return nil, errInvalidToken()
		}
	}
	return claims, nil
}

// RevokeRefreshToken marks the persisted row revoked.
func (s *Service) RevokeRefreshToken(ctx context.Context, tokenString string) error {
	if _, err := s.tokens.Revoke(ctx, tokenString); err != nil {
		return err
	}
	return nil
}

// CreateContextEnrichedToken mints an access token whose claims embed the
// user's active organization/team and derived permission set.
func (s *Service) CreateContextEnrichedToken(
	ctx context.Context,
	userEmail string,
	ttl time.Duration,
	activeOrganizationID, activeTeamID *uint,
	customClaims Claims,
) (string, error) {
	payload := s.buildContextPayload(ctx, userEmail, activeOrganizationID, activeTeamID, customClaims)
	return s.signer.CreateToken(payload, ttl)
}

// buildContextPayload assembles the enriched claim set. Enrichment is
// best-effort: any lookup failure degrades to a minimal subject-only payload
// so authentication still succeeds.
func (s *Service) buildContextPayload(
	ctx context.Context,
	userEmail string,
	activeOrganizationID, activeTeamID *uint,
	customClaims Claims,
) Claims {
	minimal := Claims{
		"sub":   userEmail,
		"email": userEmail,
		"iat":   time.Now().UTC().Unix(),
	}

	user, err := s.users.GetByEmail(ctx, userEmail)
	if err != nil {
		log.Printf("context enrichment: user lookup for %s failed: %v", userEmail, err)
		return minimal
	}

	payload := Claims{
		"sub":      userEmail,
		"email":    user.Email,
		"username": user.Username,
		"phone":    user.Phone,
		"verified": user.Verified,
		"iat":      time.Now().UTC().Unix(),
	}

	var orgRoleName, teamRoleName string

	if activeOrganizationID != nil {
		ou, err := s.memberships.GetOrganizationUser(ctx, user.ID, *activeOrganizationID)
		if err != nil {
			log.Printf("context enrichment: organization %d lookup failed: %v", *activeOrganizationID, err)
		} else {
			orgRoleName = ou.Role.Name
			payload["active_organization"] = map[string]any{
				"id":            ou.Organization.ID,
				"name":          ou.Organization.Name,
				"creation_date": ou.Organization.CreationDate.UTC().Format(time.RFC3339),
				"user_role": map[string]any{
					"id":   ou.Role.ID,
					"name": ou.Role.Name,
					"slug": ou.Role.Slug,
				},
			}
		}
	}

	if activeTeamID != nil {
		tm, err := s.memberships.GetTeamMember(ctx, user.ID, *activeTeamID)
		if err != nil {
			log.Printf("context enrichment: team %d lookup failed: %v", *activeTeamID, err)
		} else {
			teamRoleName = tm.Role.Name
			payload["active_team"] = map[string]any{
				"id":              tm.Team.ID,
				"name":            tm.Team.Name,
				"description":     tm.Team.Description,
				"organization_id": tm.Team.OrganizationID,
				"user_role": map[string]any{
					"id":   tm.Role.ID,
					"name": tm.Role.Name,
					"slug": tm.Role.Slug,
				},
			}
		}
	}

	if orgRoleName != "" || teamRoleName != "" {
		payload["permissions"] = s.contextPermissions(orgRoleName, teamRoleName)
	}

	orgs, err := s.memberships.ListUserOrganizations(ctx, user.ID)
	if err != nil {
		log.Printf("context enrichment: listing organizations failed: %v", err)
	} else {
		available := make([]map[string]any, 0, len(orgs))
		for _, ou := range orgs {
			available = append(available, map[string]any{
				"id":   ou.Organization.ID,
				"name": ou.Organization.Name,
			})
		}
		payload["available_organizations"] = available
	}

	var orgFilter uint
	if activeOrganizationID != nil {
		orgFilter = *activeOrganizationID
	}
	teams, err := s.memberships.ListUserTeams(ctx, user.ID, orgFilter)
	if err != nil {
		log.Printf("context enrichment: listing teams failed: %v", err)
	} else {
		available := make([]map[string]any, 0, len(teams))
		for _, tm := range teams {
			available = append(available, map[string]any{
				"id":              tm.Team.ID,
				"name":            tm.Team.Name,
				"organization_id": tm.Team.OrganizationID,
			})
		}
		payload["available_teams"] = available
	}

	for k, v := range customClaims {
		payload[k] = v
	}

	return payload
}

// contextPermissions merges organization and team effective permissions into
// one route→methods map. The team role is resolved second and its entries
// replace organization entries for the same route.
func (s *Service) contextPermissions(orgRoleName, teamRoleName string) map[string][]string {
	merged := make(map[string][]string)

	if orgRoleName != "" {
		perms, err := s.cache.Resolve(orgRoleName, string(model.ScopeOrganization))
		if err != nil {
			log.Printf("context enrichment: resolving organization role %s failed: %v", orgRoleName, err)
		} else {
			for route, methods := range perms {
				merged[route] = methods
			}
		}
	}

	if teamRoleName != "" {
		perms, err := s.cache.Resolve(teamRoleName, string(model.ScopeTeam))
		if err != nil {
			log.Printf("context enrichment: resolving team role %s failed: %v", teamRoleName, err)
		} else {
			for route, methods := range perms {
				merged[route] = methods
			}
		}
	}

	return merged
}
