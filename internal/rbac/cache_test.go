package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource serves canned grant rows, or an error.
type stubSource struct {
	grants []Grant
	err    error
}

func (s *stubSource) LoadGrants(ctx context.Context) ([]Grant, error) {
	return s.grants, s.err
}

func builtCache(t *testing.T, grants []Grant) *Cache {
	t.Helper()
	c := NewCache(&stubSource{grants: grants})
	require.NoError(t, c.Build(context.Background()))
	return c
}

func TestBuildEmptyGrantsInstallsFallbackTable(t *testing.T) {
	c := builtCache(t, nil)

	perms, err := c.Resolve("Admin", "organization")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"/rbac/teams/create":      {"POST"},
		"/rbac/teams/assign-user": {"POST"},
		"/rbac/teams/remove-user": {"DELETE"},
		"/rbac/teams":             {"GET"},
	}, perms)

	member, err := c.Resolve("Member", "organization")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"/rbac/teams": {"GET"}}, member)

	lead, err := c.Resolve("Lead", "team")
	require.NoError(t, err)
	assert.Len(t, lead, 3)

	super, err := c.Resolve(SuperAdminName, SuperAdminName)
	require.NoError(t, err)
	assert.ElementsMatch(t, AllMethods, super[WildcardRoute])
}

func TestBuildKeepsGlobalSuperAdminWithStoredGrants(t *testing.T) {
	// Stored roles carry organization/team scopes only; the global entry must
	// survive the switch away from the fallback table.
	c := builtCache(t, []Grant{
		{RoleName: SuperAdminName, RoleScope: "organization", PermissionName: SuperAdminName},
		{RoleName: "Admin", RoleScope: "organization", PermissionName: "teams:create:POST"},
	})

	super, err := c.Resolve(SuperAdminName, SuperAdminName)
	require.NoError(t, err)
	assert.ElementsMatch(t, AllMethods, super[WildcardRoute])
	assert.True(t, Allowed(super, "/rbac/organizations", "GET"))

	// Present even when no super_admin rows are stored at all.
	c = builtCache(t, []Grant{
		{RoleName: "Admin", RoleScope: "organization", PermissionName: "teams:create:POST"},
	})
	super, err = c.Resolve(SuperAdminName, SuperAdminName)
	require.NoError(t, err)
	assert.ElementsMatch(t, AllMethods, super[WildcardRoute])
}

func TestResolveInheritanceUnionsMethods(t *testing.T) {
	c := builtCache(t, []Grant{
		{RoleName: "Viewer", RoleScope: "team", PermissionName: "teams::GET"},
		{RoleName: "Editor", RoleScope: "team", Inherits: "Viewer", PermissionName: "teams::POST"},
		{RoleName: "Editor", RoleScope: "team", Inherits: "Viewer", PermissionName: "teams:archive:POST"},
	})

	perms, err := c.Resolve("Editor", "team")
	require.NoError(t, err)
	// Inherited GET is unioned into the route the child already grants POST on.
	assert.Equal(t, []string{"GET", "POST"}, perms["/rbac/teams"])
	assert.Equal(t, []string{"POST"}, perms["/rbac/teams/archive"])

	// A role without inheritance resolves to its own routes verbatim.
	viewer, err := c.Resolve("Viewer", "team")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"/rbac/teams": {"GET"}}, viewer)
}

func TestResolveIsIdempotent(t *testing.T) {
	c := builtCache(t, []Grant{
		{RoleName: "Viewer", RoleScope: "team", PermissionName: "teams::GET"},
		{RoleName: "Editor", RoleScope: "team", Inherits: "Viewer", PermissionName: "teams::POST"},
	})

	first, err := c.Resolve("Editor", "team")
	require.NoError(t, err)
	second, err := c.Resolve("Editor", "team")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveWildcardMergedSeparately(t *testing.T) {
	c := builtCache(t, []Grant{
		{RoleName: "Owner", RoleScope: "organization", Inherits: "Admin", PermissionName: SuperAdminName},
		{RoleName: "Admin", RoleScope: "organization", PermissionName: "teams:create:POST"},
	})

	perms, err := c.Resolve("Owner", "organization")
	require.NoError(t, err)
	assert.ElementsMatch(t, AllMethods, perms[WildcardRoute])
	assert.Equal(t, []string{"POST"}, perms["/rbac/teams/create"])
}

func TestResolveUnknownRoleIsEmpty(t *testing.T) {
	c := builtCache(t, []Grant{
		{RoleName: "Viewer", RoleScope: "team", PermissionName: "teams::GET"},
	})

	perms, err := c.Resolve("Ghost", "team")
	require.NoError(t, err)
	assert.Empty(t, perms)

	perms, err = c.Resolve("Viewer", "organization")
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestResolveCyclicInheritanceFailsClosed(t *testing.T) {
	c := builtCache(t, []Grant{
		{RoleName: "A", RoleScope: "team", Inherits: "B", PermissionName: "teams::GET"},
		{RoleName: "B", RoleScope: "team", Inherits: "A", PermissionName: "teams::POST"},
	})

	_, err := c.Resolve("A", "team")
	require.Error(t, err)
}

func TestRefreshMakesNewGrantsVisible(t *testing.T) {
	src := &stubSource{grants: []Grant{
		{RoleName: "Viewer", RoleScope: "team", PermissionName: "teams::GET"},
	}}
	c := NewCache(src)
	require.NoError(t, c.Build(context.Background()))

	perms, err := c.Resolve("Viewer", "team")
	require.NoError(t, err)
	assert.NotContains(t, perms["/rbac/teams"], "POST")

	src.grants = append(src.grants, Grant{RoleName: "Viewer", RoleScope: "team", PermissionName: "teams::POST"})
	require.NoError(t, c.Refresh(context.Background()))

	perms, err = c.Resolve("Viewer", "team")
	require.NoError(t, err)
	assert.Equal(t, []string{"GET", "POST"}, perms["/rbac/teams"])
}

func TestFailedRebuildKeepsPreviousSnapshot(t *testing.T) {
	src := &stubSource{grants: []Grant{
		{RoleName: "Viewer", RoleScope: "team", PermissionName: "teams::GET"},
	}}
	c := NewCache(src)
	require.NoError(t, c.Build(context.Background()))

	src.err = errors.New("db down")
	require.Error(t, c.Refresh(context.Background()))

	perms, err := c.Resolve("Viewer", "team")
	require.NoError(t, err)
	assert.Equal(t, []string{"GET"}, perms["/rbac/teams"])
}

func TestClearEmptiesCache(t *testing.T) {
	c := builtCache(t, []Grant{
		{RoleName: "Viewer", RoleScope: "team", PermissionName: "teams::GET"},
	})
	c.Clear()

	entry := c.Get("team", "Viewer")
	assert.Empty(t, entry.Routes)
}

func TestAllowed(t *testing.T) {
	perms := map[string][]string{
		"/rbac/teams": {"GET"},
	}
	assert.True(t, Allowed(perms, "/rbac/teams", "GET"))
	assert.False(t, Allowed(perms, "/rbac/teams", "POST"))
	assert.False(t, Allowed(perms, "/rbac/roles", "GET"))

	withWildcard := map[string][]string{
		WildcardRoute: {"GET", "POST", "PUT", "DELETE", "PATCH"},
	}
	assert.True(t, Allowed(withWildcard, "/anything/at/all", "DELETE"))
}
