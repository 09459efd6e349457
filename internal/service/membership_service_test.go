package service

import (
	"context"
	"testing"

	"authservice/internal/apperror"
	"authservice/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUserToOrganizationEnforcesRoleScope(t *testing.T) {
	env := newTestEnv(t)
	svc := env.membershipService()
	ctx := context.Background()
	user := env.createUser(t, "u@example.com")

	teamRole := &model.Role{Name: "Lead", Slug: "lead", Scope: model.ScopeTeam}
	require.NoError(t, env.db.Create(teamRole).Error)
	org := &model.Organization{Name: "Acme"}
	require.NoError(t, env.members.CreateOrganization(ctx, org))

	err := svc.AddUserToOrganization(ctx, org.ID, AddMemberRequest{
		UserID: user.ID.String(), RoleID: teamRole.ID,
	})
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "ROLE_SCOPE_MISMATCH", appErr.Code)
}

func TestAddUserToOrganizationDetectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	svc := env.membershipService()
	ctx := context.Background()
	user := env.createUser(t, "u@example.com")

	orgRole := &model.Role{Name: "Member", Slug: "member", Scope: model.ScopeOrganization}
	require.NoError(t, env.db.Create(orgRole).Error)
	org := &model.Organization{Name: "Acme"}
	require.NoError(t, env.members.CreateOrganization(ctx, org))

	req := AddMemberRequest{UserID: user.ID.String(), RoleID: orgRole.ID}
	require.NoError(t, svc.AddUserToOrganization(ctx, org.ID, req))

	err := svc.AddUserToOrganization(ctx, org.ID, req)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestCreateOrganizationMakesCreatorAdmin(t *testing.T) {
	env := newTestEnv(t)
	svc := env.membershipService()
	ctx := context.Background()
	user := env.createUser(t, "u@example.com")

	adminRole := &model.Role{Name: "Admin", Slug: "admin", Scope: model.ScopeOrganization}
	require.NoError(t, env.db.Create(adminRole).Error)

	org, err := svc.CreateOrganization(ctx, CreateOrganizationRequest{Name: "Acme"}, user.ID)
	require.NoError(t, err)

	ou, err := env.members.GetOrganizationUser(ctx, user.ID, org.ID)
	require.NoError(t, err)
	assert.Equal(t, adminRole.ID, ou.RoleID)
}

func TestRemoveUserFromTeamNotFound(t *testing.T) {
	env := newTestEnv(t)
	svc := env.membershipService()
	user := env.createUser(t, "u@example.com")

	err := svc.RemoveUserFromTeam(context.Background(), 42, user.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
