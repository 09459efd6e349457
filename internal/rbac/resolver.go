package rbac

import (
	"authservice/internal/apperror"
)

// maxInheritanceDepth bounds the inheritance walk. Chains are expected to be
// acyclic; a configuration that exceeds this depth fails closed instead of
// looping forever.
const maxInheritanceDepth = 16

// Resolve walks the inheritance chain of roleName within scope and returns
// the merged route→methods map. Methods of inherited roles are unioned into
// existing routes, never replaced. A wildcard entry, if present anywhere in
// the chain, appears under WildcardRoute; callers check the concrete route
// first and fall back to the wildcard key.
func (c *Cache) Resolve(roleName, scope string) (map[string][]string, error) {
	merged := make(map[string][]string)
	wildcard := []string(nil)

	// Pin one snapshot for the whole walk so a concurrent refresh cannot mix
	// old and new role entries.
	snap := *c.snap.Load()

	current := roleName
	for depth := 0; current != ""; depth++ {
		if depth >= maxInheritanceDepth {
			return nil, apperror.Internal("ROLE_INHERITANCE_TOO_DEEP",
				"role inheritance chain exceeds maximum depth", nil)
		}

		roles, ok := snap[scope]
		if !ok {
			break
		}
		entry, ok := roles[current]
		if !ok {
			break
		}

		for route, methods := range entry.Routes {
			if route == WildcardRoute {
				wildcard = unionMethods(wildcard, methods)
				continue
			}
			merged[route] = unionMethods(merged[route], methods)
		}

		current = entry.Inherits
	}

	if len(wildcard) > 0 {
		merged[WildcardRoute] = wildcard
	}
	return merged, nil
}

// Allowed reports whether the resolved permission map grants method on route,
// honoring the wildcard entry.
func Allowed(perms map[string][]string, route, method string) bool {
	if methods, ok := perms[route]; ok {
		for _, m := range methods {
			if m == method {
				return true
			}
		}
	}
	if methods, ok := perms[WildcardRoute]; ok {
		for _, m := range methods {
			if m == method {
				return true
			}
		}
	}
	return false
}
