package rbac

import (
	"context"
	"sort"
	"sync/atomic"
)

// RoleEntry is the cached permission set of one role within one scope.
type RoleEntry struct {
	Routes   map[string][]string
	Inherits string
}

// Grant is one row of the Role⋈RolePermission⋈Permission join used to build
// the cache.
type Grant struct {
	RoleName       string
	RoleScope      string
	Inherits       string
	PermissionName string
}

// GrantSource loads all grant rows from durable storage.
type GrantSource interface {
	LoadGrants(ctx context.Context) ([]Grant, error)
}

// snapshot maps scope -> role name -> entry. Snapshots are immutable once
// published; readers must never mutate what Get returns.
type snapshot map[string]map[string]RoleEntry

// Cache is the single process-wide permission cache. It is rebuilt wholesale
// on every RBAC mutation and published with an atomic pointer swap, so
// concurrent readers never observe a partially built snapshot.
type Cache struct {
	source GrantSource
	snap   atomic.Pointer[snapshot]
}

// NewCache returns an empty cache backed by source. Call Build before serving.
func NewCache(source GrantSource) *Cache {
	c := &Cache{source: source}
	empty := make(snapshot)
	c.snap.Store(&empty)
	return c
}

// Build queries all grants, materializes a fresh snapshot and atomically
// publishes it. If the database yields zero rows, the built-in fallback table
// is installed instead so the bootstrap admin role always has a working
// permission set. On error the previous snapshot stays active.
func (c *Cache) Build(ctx context.Context) error {
	grants, err := c.source.LoadGrants(ctx)
	if err != nil {
		return err
	}

	if len(grants) == 0 {
		fb := fallbackTable()
		c.snap.Store(&fb)
		return nil
	}

	next := make(snapshot)
	for _, g := range grants {
		roles, ok := next[g.RoleScope]
		if !ok {
			roles = make(map[string]RoleEntry)
			next[g.RoleScope] = roles
		}
		entry, ok := roles[g.RoleName]
		if !ok {
			entry = RoleEntry{Routes: make(map[string][]string), Inherits: g.Inherits}
		}

		if g.RoleName == SuperAdminName || g.PermissionName == SuperAdminName {
			entry.Routes[WildcardRoute] = append([]string(nil), AllMethods...)
			roles[g.RoleName] = entry
			continue
		}

		route, methods, err := ParsePermissionName(g.PermissionName)
		if err != nil {
			return err
		}
		entry.Routes[route] = unionMethods(entry.Routes[route], methods)
		roles[g.RoleName] = entry
	}

	seedSuperAdmin(next)
	c.snap.Store(&next)
	return nil
}

// seedSuperAdmin installs the global super_admin wildcard entry. Stored grants
// file roles under organization/team scope keys only, so every snapshot gets
// this entry explicitly; without it the global bypass would work only against
// the fallback table.
func seedSuperAdmin(s snapshot) {
	roles, ok := s[SuperAdminName]
	if !ok {
		roles = make(map[string]RoleEntry)
		s[SuperAdminName] = roles
	}
	if _, ok := roles[SuperAdminName]; !ok {
		roles[SuperAdminName] = RoleEntry{Routes: map[string][]string{
			WildcardRoute: append([]string(nil), AllMethods...),
		}}
	}
}

// Refresh re-runs Build. Best-effort: a failed rebuild leaves the previous
// snapshot in place.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.Build(ctx)
}

// Clear resets the cache to empty. Test and bootstrap use only.
func (c *Cache) Clear() {
	empty := make(snapshot)
	c.snap.Store(&empty)
}

// Get returns the cached entry for (scope, role), or an empty entry when
// absent. The returned maps belong to the active snapshot and must be treated
// as read-only.
func (c *Cache) Get(scope, role string) RoleEntry {
	snap := *c.snap.Load()
	if roles, ok := snap[scope]; ok {
		if entry, ok := roles[role]; ok {
			return entry
		}
	}
	return RoleEntry{Routes: map[string][]string{}}
}

// unionMethods merges two method lists, deduplicated and sorted.
func unionMethods(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, m := range a {
		set[m] = struct{}{}
	}
	for _, m := range b {
		set[m] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// fallbackTable is the built-in permission set used when no RBAC rows exist
// yet, e.g. on a freshly migrated database.
func fallbackTable() snapshot {
	return snapshot{
		"organization": {
			"Admin": {
				Routes: map[string][]string{
					"/rbac/teams/create":      {"POST"},
					"/rbac/teams/assign-user": {"POST"},
					"/rbac/teams/remove-user": {"DELETE"},
					"/rbac/teams":             {"GET"},
				},
			},
			"Member": {
				Routes: map[string][]string{
					"/rbac/teams": {"GET"},
				},
			},
		},
		"team": {
			"Lead": {
				Routes: map[string][]string{
					"/rbac/teams/assign-user": {"POST"},
					"/rbac/teams/remove-user": {"DELETE"},
					"/rbac/teams":             {"GET"},
				},
			},
			"Team_Member": {
				Routes: map[string][]string{
					"/rbac/teams": {"GET"},
				},
			},
		},
		SuperAdminName: {
			SuperAdminName: {
				Routes: map[string][]string{
					WildcardRoute: append([]string(nil), AllMethods...),
				},
			},
		},
	}
}
