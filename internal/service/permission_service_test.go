package service

import (
	"context"
	"testing"

	"authservice/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePermissionValidatesNameGrammar(t *testing.T) {
	env := newTestEnv(t)
	svc := env.permissionService()
	ctx := context.Background()

	perm, err := svc.CreatePermission(ctx, CreatePermissionRequest{
		Name: "teams:create:POST", Description: "create teams", Scope: "organization",
	})
	require.NoError(t, err)
	assert.Equal(t, "teamscreatepost", perm.Slug)

	_, err = svc.CreatePermission(ctx, CreatePermissionRequest{
		Name: "not a valid name", Description: "x", Scope: "organization",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.CreatePermission(ctx, CreatePermissionRequest{
		Name: "teams:create:POST", Description: "duplicate", Scope: "organization",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestDeletePermissionInUseIsConflict(t *testing.T) {
	env := newTestEnv(t)
	roles := env.roleService()
	perms := env.permissionService()
	ctx := context.Background()

	role, err := roles.CreateRole(ctx, CreateRoleRequest{Name: "Editor", Scope: "team"})
	require.NoError(t, err)
	perm, err := perms.CreatePermission(ctx, CreatePermissionRequest{
		Name: "teams:edit:POST", Description: "edit teams", Scope: "team",
	})
	require.NoError(t, err)
	_, err = roles.AssignPermission(ctx, role.ID, perm.ID)
	require.NoError(t, err)

	err = perms.DeletePermission(ctx, perm.ID)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "PERMISSION_IN_USE", appErr.Code)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)

	// Still present.
	_, err = perms.GetPermission(ctx, perm.ID)
	require.NoError(t, err)

	// Deletable once unassigned.
	require.NoError(t, roles.RemovePermission(ctx, role.ID, perm.ID))
	require.NoError(t, perms.DeletePermission(ctx, perm.ID))
}
