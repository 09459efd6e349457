package middleware

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"authservice/internal/apperror"
	"authservice/internal/model"
	"authservice/internal/rbac"
	"authservice/internal/repository"
	"authservice/internal/token"
	"authservice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	CtxUserKey      = "user"
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
	CtxClaimsKey    = "claims"
)

// Paths that skip the authorization pipeline entirely. Matching is by exact
// prefix, never substring.
var bypassPrefixes = []string{"/auth", "/swagger", "/docs", "/health"}

var (
	teamIDPattern = regexp.MustCompile(`/rbac/teams/(\d+)`)
	orgIDPattern  = regexp.MustCompile(`/rbac/organizations/(\d+)`)
	numericSeg    = regexp.MustCompile(`^\d+$`)
)

// RequireAuth validates the access token and loads the authenticated user
// into the request context. The token is read from the access_token cookie
// first, then the Authorization header.
func RequireAuth(tokens *token.Service, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					response.Error(http.StatusUnauthorized, "could not validate credentials"))
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					response.Error(http.StatusUnauthorized, "could not validate credentials"))
				return
			}
			tokenString = parts[1]
		}

		claims, err := tokens.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Error(http.StatusUnauthorized, "could not validate credentials"))
			return
		}

		subject, _ := claims["sub"].(string)
		user, err := users.GetByEmail(c.Request.Context(), subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Error(http.StatusUnauthorized, "could not validate credentials"))
			return
		}

		c.Set(CtxUserKey, user)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserEmailKey, user.Email)
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// Authorizer is the request-time permission gate: classify the scope from the
// path, resolve the principal's role in that scope, resolve effective
// permissions and match the normalized route + method.
type Authorizer struct {
	cache       *rbac.Cache
	memberships repository.MembershipRepository
	rbacRepo    repository.RBACRepository
}

func NewAuthorizer(cache *rbac.Cache, memberships repository.MembershipRepository, rbacRepo repository.RBACRepository) *Authorizer {
	return &Authorizer{cache: cache, memberships: memberships, rbacRepo: rbacRepo}
}

// Authorize runs after RequireAuth. Membership and permission failures are
// always 403, never 500; anything unexpected is a generic 500.
func (a *Authorizer) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range bypassPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		userID, ok := userIDFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Error(http.StatusUnauthorized, "could not validate credentials"))
			return
		}

		// Global super_admin grants bypass scoped membership entirely.
		names, err := a.rbacRepo.GetUserRoleNames(c.Request.Context(), userID)
		if err != nil {
			log.Printf("authorize: user role lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Error(http.StatusInternalServerError, "internal server error"))
			return
		}
		for _, name := range names {
			if name == rbac.SuperAdminName {
				perms, err := a.cache.Resolve(rbac.SuperAdminName, rbac.SuperAdminName)
				if err == nil && rbac.Allowed(perms, normalizeRoute(c.Request.Method, path), c.Request.Method) {
					c.Next()
					return
				}
				break
			}
		}

		scope, contextID, err := classifyScope(path)
		if err != nil {
			status, body := response.FromError(err)
			c.AbortWithStatusJSON(status, body)
			return
		}

		roleName, err := a.resolveRole(c, userID, scope, contextID)
		if err != nil {
			status, body := response.FromError(err)
			c.AbortWithStatusJSON(status, body)
			return
		}

		perms, err := a.cache.Resolve(roleName, string(scope))
		if err != nil {
			log.Printf("authorize: resolving role %s failed: %v", roleName, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Error(http.StatusInternalServerError, "internal server error"))
			return
		}

		if !rbac.Allowed(perms, normalizeRoute(c.Request.Method, path), c.Request.Method) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				response.Error(http.StatusForbidden, "Permission denied"))
			return
		}

		c.Next()
	}
}

// classifyScope derives the scope and numeric context id from the path. Team
// paths win over organization paths since organization paths can nest team
// segments.
func classifyScope(path string) (model.Scope, uint, error) {
	if strings.Contains(path, "/rbac/teams") {
		if m := teamIDPattern.FindStringSubmatch(path); m != nil {
			id, _ := strconv.ParseUint(m[1], 10, 32)
			return model.ScopeTeam, uint(id), nil
		}
		return "", 0, apperror.Validation("MISSING_CONTEXT_ID", "team id not found in the endpoint")
	}
	if strings.Contains(path, "/rbac/organizations") {
		if m := orgIDPattern.FindStringSubmatch(path); m != nil {
			id, _ := strconv.ParseUint(m[1], 10, 32)
			return model.ScopeOrganization, uint(id), nil
		}
		return "", 0, apperror.Validation("MISSING_CONTEXT_ID", "organization id not found in the endpoint")
	}
	return "", 0, apperror.Forbidden("INSUFFICIENT_SCOPE", "invalid endpoint or insufficient scope")
}

func (a *Authorizer) resolveRole(c *gin.Context, userID uuid.UUID, scope model.Scope, contextID uint) (string, error) {
	switch scope {
	case model.ScopeOrganization:
		role, err := a.memberships.GetRoleOfUserInOrganization(c.Request.Context(), userID, contextID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperror.Forbidden("NOT_ORGANIZATION_MEMBER", "User not part of the organization")
			}
			return "", apperror.Database("MEMBERSHIP_RETRIEVAL_ERROR", "failed to fetch membership", err)
		}
		return role.Name, nil
	case model.ScopeTeam:
		role, err := a.memberships.GetRoleOfUserInTeam(c.Request.Context(), userID, contextID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperror.Forbidden("NOT_TEAM_MEMBER", "User not part of the team")
			}
			return "", apperror.Database("MEMBERSHIP_RETRIEVAL_ERROR", "failed to fetch membership", err)
		}
		return role.Name, nil
	}
	return "", apperror.Validation("INVALID_SCOPE", "invalid scope")
}

// normalizeRoute reduces a concrete request path to the route key used by the
// permission table: identifier segments (numeric ids, UUIDs, emails) are
// dropped, and organization-nested team endpoints map onto the /rbac/teams
// route family they guard.
func normalizeRoute(method, path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	kept := segments[:0]
	for _, seg := range segments {
		if seg == "" || numericSeg.MatchString(seg) || strings.Contains(seg, "@") {
			continue
		}
		if _, err := uuid.Parse(seg); err == nil {
			continue
		}
		kept = append(kept, seg)
	}
	route := "/" + strings.Join(kept, "/")

	if route == "/rbac/organizations/teams" {
		if method == http.MethodPost {
			return "/rbac/teams/create"
		}
		return "/rbac/teams"
	}
	return route
}

func userIDFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
