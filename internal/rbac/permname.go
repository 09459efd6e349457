// Package rbac implements the in-process permission cache and the
// effective-permission resolver that the authorization middleware trusts at
// decision time.
package rbac

import (
	"regexp"
	"strings"

	"authservice/internal/apperror"
)

// WildcardRoute matches any route; granted only to super-admin style roles.
const WildcardRoute = "*"

// SuperAdminName is the reserved role/permission name that expands to the
// wildcard route with every HTTP method.
const SuperAdminName = "super_admin"

// AllMethods is the method set granted to wildcard entries.
var AllMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

var (
	segmentRe = regexp.MustCompile(`^[a-z0-9_-]+$`)
	methodSet = map[string]struct{}{
		"GET": {}, "POST": {}, "PUT": {}, "DELETE": {}, "PATCH": {},
	}
)

// ParsePermissionName parses the "resource:action:method[,method...]" naming
// convention into a route and an HTTP method list. The action segment may be
// empty, in which case the route is /rbac/{resource}; otherwise it is
// /rbac/{resource}/{action}. Permission names are validated against this
// grammar at creation time, so the cache builder never sees a malformed name.
func ParsePermissionName(name string) (route string, methods []string, err error) {
	if name == SuperAdminName {
		return WildcardRoute, append([]string(nil), AllMethods...), nil
	}

	parts := strings.Split(name, ":")
	if len(parts) != 3 {
		return "", nil, apperror.Validation("INVALID_PERMISSION_NAME",
			"permission name must follow resource:action:method[,method...]")
	}

	resource, action, methodList := parts[0], parts[1], parts[2]
	if !segmentRe.MatchString(resource) {
		return "", nil, apperror.Validation("INVALID_PERMISSION_NAME", "invalid resource segment")
	}
	if action != "" && !segmentRe.MatchString(action) {
		return "", nil, apperror.Validation("INVALID_PERMISSION_NAME", "invalid action segment")
	}

	for _, m := range strings.Split(methodList, ",") {
		m = strings.ToUpper(strings.TrimSpace(m))
		if _, ok := methodSet[m]; !ok {
			return "", nil, apperror.Validation("INVALID_PERMISSION_NAME", "unknown HTTP method "+m)
		}
		methods = append(methods, m)
	}
	if len(methods) == 0 {
		return "", nil, apperror.Validation("INVALID_PERMISSION_NAME", "at least one HTTP method is required")
	}

	route = "/rbac/" + resource
	if action != "" {
		route += "/" + action
	}
	return route, methods, nil
}
