package service

import (
	"context"
	"testing"

	"authservice/internal/apperror"
	"authservice/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoleGeneratesSlugAndRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	svc := env.roleService()
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Team Lead", Scope: "team"})
	require.NoError(t, err)
	assert.Equal(t, "team-lead", role.Slug)

	_, err = svc.CreateRole(ctx, CreateRoleRequest{Name: "Team Lead", Scope: "team"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	_, err = svc.CreateRole(ctx, CreateRoleRequest{Name: "Nobody", Scope: "galaxy"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestAssignPermissionIsIdempotentDetect(t *testing.T) {
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

	assigned, err := roles.AssignPermission(ctx, role.ID, perm.ID)
	require.NoError(t, err)
	assert.True(t, assigned)

	assigned, err = roles.AssignPermission(ctx, role.ID, perm.ID)
	require.NoError(t, err)
	assert.False(t, assigned)

	var count int64
	require.NoError(t, env.db.Model(&model.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", role.ID, perm.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAssignPermissionRefreshesCacheBeforeReturning(t *testing.T) {
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

	resolved, err := env.cache.Resolve("Editor", "team")
	require.NoError(t, err)
	assert.Equal(t, []string{"POST"}, resolved["/rbac/teams/edit"])
}

func TestRemovePermissionNotAssigned(t *testing.T) {
	env := newTestEnv(t)
	roles := env.roleService()
	ctx := context.Background()

	role, err := roles.CreateRole(ctx, CreateRoleRequest{Name: "Editor", Scope: "team"})
	require.NoError(t, err)

	err = roles.RemovePermission(ctx, role.ID, 12345)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetRoleNotFound(t *testing.T) {
	env := newTestEnv(t)
	svc := env.roleService()

	_, err := svc.GetRole(context.Background(), 999)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "ROLE_NOT_FOUND", appErr.Code)
}

func TestDeleteRoleRemovesAssignments(t *testing.T) {
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

	require.NoError(t, roles.DeleteRole(ctx, role.ID))

	var count int64
	require.NoError(t, env.db.Model(&model.RolePermission{}).
		Where("role_id = ?", role.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
