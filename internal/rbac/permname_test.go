package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePermissionName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantRoute   string
		wantMethods []string
		wantErr     bool
	}{
		{
			name:        "resource with action",
			input:       "teams:create:POST",
			wantRoute:   "/rbac/teams/create",
			wantMethods: []string{"POST"},
		},
		{
			name:        "empty action collapses route",
			input:       "teams::GET",
			wantRoute:   "/rbac/teams",
			wantMethods: []string{"GET"},
		},
		{
			name:        "multiple methods",
			input:       "organizations:users:POST,DELETE",
			wantRoute:   "/rbac/organizations/users",
			wantMethods: []string{"POST", "DELETE"},
		},
		{
			name:        "methods are case and space tolerant",
			input:       "teams:assign-user:post, delete",
			wantRoute:   "/rbac/teams/assign-user",
			wantMethods: []string{"POST", "DELETE"},
		},
		{
			name:        "super_admin expands to wildcard",
			input:       "super_admin",
			wantRoute:   WildcardRoute,
			wantMethods: AllMethods,
		},
		{name: "too few segments", input: "teams:GET", wantErr: true},
		{name: "too many segments", input: "a:b:c:GET", wantErr: true},
		{name: "bad resource", input: "Te ams:create:POST", wantErr: true},
		{name: "bad action", input: "teams:Cre ate:POST", wantErr: true},
		{name: "unknown method", input: "teams:create:FETCH", wantErr: true},
		{name: "empty method list", input: "teams:create:", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, methods, err := ParsePermissionName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoute, route)
			assert.Equal(t, tt.wantMethods, methods)
		})
	}
}
