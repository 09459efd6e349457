package token

import (
	"context"
	"testing"
	"time"

	"authservice/internal/database"
	"authservice/internal/model"
	"authservice/internal/rbac"
	"authservice/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type serviceEnv struct {
	db      *gorm.DB
	svc     *Service
	users   repository.UserRepository
	members repository.MembershipRepository
	cache   *rbac.Cache
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	db := testDB(t)
	users := repository.NewUserRepository(db)
	members := repository.NewMembershipRepository(db)
	tokens := repository.NewTokenRepository(db)
	rbacRepo := repository.NewRBACRepository(db)

	cache := rbac.NewCache(rbacRepo)
	require.NoError(t, cache.Build(context.Background()))

	svc := NewService(NewHMACSigner([]byte("test-secret")), tokens, users, members, cache)
	return &serviceEnv{db: db, svc: svc, users: users, members: members, cache: cache}
}

func (e *serviceEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Username: email, Email: email, Password: "x"}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func TestVerifyRefreshTokenLifecycle(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	env.createUser(t, "u@example.com")

	tok, err := env.svc.CreateRefreshToken(ctx, Claims{"sub": "u@example.com"}, time.Hour)
	require.NoError(t, err)

	claims, err := env.svc.VerifyRefreshToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", claims["sub"])

	require.NoError(t, env.svc.RevokeRefreshToken(ctx, tok))
	_, err = env.svc.VerifyRefreshToken(ctx, tok)
	require.Error(t, err)
}

func TestVerifyRefreshTokenRejectsExpiredRow(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	tok, err := env.svc.CreateRefreshToken(ctx, Claims{"sub": "u@example.com"}, time.Hour)
	require.NoError(t, err)

	// Expire the persisted row without touching the signed expiry; the row
	// check alone must reject it.
	require.NoError(t, env.db.Model(&model.RefreshToken{}).
		Where("token = ?", tok).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

	_, err = env.svc.VerifyRefreshToken(ctx, tok)
	require.Error(t, err)
}

func TestRevokedTokenReuseRevokesAllSessions(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	env.createUser(t, "u@example.com")

	first, err := env.svc.CreateRefreshToken(ctx, Claims{"sub": "u@example.com", "jti": "a"}, time.Hour)
	require.NoError(t, err)
	second, err := env.svc.CreateRefreshToken(ctx, Claims{"sub": "u@example.com", "jti": "b"}, time.Hour)
	require.NoError(t, err)

	require.NoError(t, env.svc.RevokeRefreshToken(ctx, first))

	// Presenting the revoked token again kills the user's other sessions too.
	_, err = env.svc.VerifyRefreshToken(ctx, first)
	require.Error(t, err)
	_, err = env.svc.VerifyRefreshToken(ctx, second)
	require.Error(t, err)
}

func TestVerifyRefreshTokenRejectsUnknownToken(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	// Validly signed, never persisted.
	signer := NewHMACSigner([]byte("test-secret"))
	tok, _, err := signer.CreateRefreshToken(Claims{"sub": "u@example.com"}, time.Hour)
	require.NoError(t, err)

	_, err = env.svc.VerifyRefreshToken(ctx, tok)
	require.Error(t, err)
}

func TestContextEnrichedTokenCarriesActiveContext(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "u@example.com")

	adminRole := &model.Role{Name: "Admin", Slug: "admin", Scope: model.ScopeOrganization}
	leadRole := &model.Role{Name: "Lead", Slug: "lead", Scope: model.ScopeTeam}
	require.NoError(t, env.db.Create(adminRole).Error)
	require.NoError(t, env.db.Create(leadRole).Error)

	org := &model.Organization{Name: "Acme"}
	require.NoError(t, env.members.CreateOrganization(ctx, org))
	team := &model.Team{OrganizationID: org.ID, Name: "Platform"}
	require.NoError(t, env.members.CreateTeam(ctx, team))

	require.NoError(t, env.members.AddOrganizationUser(ctx, &model.OrganizationUser{
		OrganizationID: org.ID, UserID: user.ID, RoleID: adminRole.ID,
	}))
	require.NoError(t, env.members.AddTeamMember(ctx, &model.TeamMember{
		TeamID: team.ID, UserID: user.ID, RoleID: leadRole.ID,
	}))

	tok, err := env.svc.CreateContextEnrichedToken(ctx, "u@example.com", 15*time.Minute, &org.ID, &team.ID, nil)
	require.NoError(t, err)

	claims, err := env.svc.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", claims["sub"])

	activeOrg, ok := claims["active_organization"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(org.ID), activeOrg["id"])
	assert.Equal(t, "Acme", activeOrg["name"])

	activeTeam, ok := claims["active_team"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(team.ID), activeTeam["id"])
	assert.Equal(t, float64(org.ID), activeTeam["organization_id"])

	// Admin's effective permissions come from the fallback table (no RBAC
	// rows exist), with the team role's entries overlaid.
	perms, ok := claims["permissions"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, perms, "/rbac/teams/create")
	assert.Contains(t, perms, "/rbac/teams/assign-user")

	available, ok := claims["available_organizations"].([]any)
	require.True(t, ok)
	require.Len(t, available, 1)
}

func TestContextEnrichmentFallsBackToMinimalPayload(t *testing.T) {
	env := newServiceEnv(t)

	tok, err := env.svc.CreateContextEnrichedToken(context.Background(), "ghost@example.com", 15*time.Minute, nil, nil, nil)
	require.NoError(t, err)

	claims, err := env.svc.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ghost@example.com", claims["sub"])
	assert.Equal(t, "ghost@example.com", claims["email"])
	assert.NotNil(t, claims["iat"])
	assert.NotContains(t, claims, "active_organization")
	assert.NotContains(t, claims, "available_organizations")
}
