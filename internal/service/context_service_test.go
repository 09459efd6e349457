package service

import (
	"context"
	"testing"

	"authservice/internal/apperror"
	"authservice/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contextFixture builds org 5 with the user as Admin and team 9 owned by it,
// initially without a team membership.
type contextFixture struct {
	env      *testEnv
	user     *model.User
	org      *model.Organization
	team     *model.Team
	leadRole *model.Role
}

func newContextFixture(t *testing.T) *contextFixture {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "u@example.com")

	adminRole := &model.Role{Name: "Admin", Slug: "admin", Scope: model.ScopeOrganization}
	leadRole := &model.Role{Name: "Lead", Slug: "lead", Scope: model.ScopeTeam}
	require.NoError(t, env.db.Create(adminRole).Error)
	require.NoError(t, env.db.Create(leadRole).Error)

	org := &model.Organization{ID: 5, Name: "Acme"}
	require.NoError(t, env.members.CreateOrganization(ctx, org))
	team := &model.Team{ID: 9, OrganizationID: org.ID, Name: "Platform"}
	require.NoError(t, env.members.CreateTeam(ctx, team))

	require.NoError(t, env.members.AddOrganizationUser(ctx, &model.OrganizationUser{
		OrganizationID: org.ID, UserID: user.ID, RoleID: adminRole.ID,
	}))

	return &contextFixture{env: env, user: user, org: org, team: team, leadRole: leadRole}
}

func (f *contextFixture) joinTeam(t *testing.T) {
	t.Helper()
	require.NoError(t, f.env.members.AddTeamMember(context.Background(), &model.TeamMember{
		TeamID: f.team.ID, UserID: f.user.ID, RoleID: f.leadRole.ID,
	}))
}

func TestSwitchTeamForbiddenWithoutMembership(t *testing.T) {
	f := newContextFixture(t)
	svc := f.env.contextService()

	_, err := svc.SwitchTeam(context.Background(), "u@example.com", 9)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestSwitchContextMintsTokenWithActivePair(t *testing.T) {
	f := newContextFixture(t)
	f.joinTeam(t)
	svc := f.env.contextService()
	orgID, teamID := uint(5), uint(9)

	res, err := svc.SwitchContext(context.Background(), "u@example.com", &orgID, &teamID)
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)

	claims, err := f.env.tokens.VerifyToken(res.AccessToken)
	require.NoError(t, err)

	activeTeam, ok := claims["active_team"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(9), activeTeam["id"])

	activeOrg, ok := claims["active_organization"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), activeOrg["id"])
}

func TestSwitchOrganizationForbiddenForNonMember(t *testing.T) {
	f := newContextFixture(t)
	svc := f.env.contextService()

	_, err := svc.SwitchOrganization(context.Background(), "u@example.com", 77)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestSwitchContextRejectsTeamOutsideOrganization(t *testing.T) {
	f := newContextFixture(t)
	f.joinTeam(t)
	ctx := context.Background()

	// A second organization the user also belongs to; team 9 stays in org 5.
	other := &model.Organization{ID: 6, Name: "Globex"}
	require.NoError(t, f.env.members.CreateOrganization(ctx, other))
	var adminRole model.Role
	require.NoError(t, f.env.db.Where("name = ?", "Admin").First(&adminRole).Error)
	require.NoError(t, f.env.members.AddOrganizationUser(ctx, &model.OrganizationUser{
		OrganizationID: other.ID, UserID: f.user.ID, RoleID: adminRole.ID,
	}))

	svc := f.env.contextService()
	orgID, teamID := uint(6), uint(9)
	_, err := svc.SwitchContext(ctx, "u@example.com", &orgID, &teamID)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "TEAM_NOT_IN_ORGANIZATION", appErr.Code)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
}

func TestSwitchTeamImpliesOwningOrganization(t *testing.T) {
	f := newContextFixture(t)
	f.joinTeam(t)
	svc := f.env.contextService()

	res, err := svc.SwitchTeam(context.Background(), "u@example.com", 9)
	require.NoError(t, err)

	claims, err := f.env.tokens.VerifyToken(res.AccessToken)
	require.NoError(t, err)
	activeOrg, ok := claims["active_organization"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), activeOrg["id"])
}

func TestAvailableContexts(t *testing.T) {
	f := newContextFixture(t)
	f.joinTeam(t)
	svc := f.env.contextService()

	res, err := svc.AvailableContexts(context.Background(), "u@example.com")
	require.NoError(t, err)
	require.Len(t, res.Organizations, 1)
	assert.Equal(t, uint(5), res.Organizations[0].ID)
	require.Len(t, res.Teams, 1)
	assert.Equal(t, uint(9), res.Teams[0].ID)
	assert.Equal(t, uint(5), res.Teams[0].OrganizationID)
}
