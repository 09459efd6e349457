package service

import (
	"context"
	"testing"
	"time"

	"authservice/internal/database"
	"authservice/internal/model"
	"authservice/internal/rbac"
	"authservice/internal/repository"
	"authservice/internal/token"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires real repositories over an in-memory database.
type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	rbacRepo repository.RBACRepository
	members  repository.MembershipRepository
	txm      repository.TransactionManager
	cache    *rbac.Cache
	tokens   *token.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		rbacRepo: repository.NewRBACRepository(db),
		members:  repository.NewMembershipRepository(db),
		txm:      repository.NewTransactionManager(db),
	}
	env.cache = rbac.NewCache(env.rbacRepo)
	require.NoError(t, env.cache.Build(context.Background()))
	env.tokens = token.NewService(
		token.NewHMACSigner([]byte("test-secret")),
		repository.NewTokenRepository(db),
		env.users,
		env.members,
		env.cache,
	)
	return env
}

func (e *testEnv) roleService() RoleService {
	return NewRoleService(e.rbacRepo, e.txm, e.cache)
}

func (e *testEnv) permissionService() PermissionService {
	return NewPermissionService(e.rbacRepo, e.txm, e.cache)
}

func (e *testEnv) membershipService() MembershipService {
	return NewMembershipService(e.members, e.rbacRepo, e.txm)
}

func (e *testEnv) contextService() ContextService {
	return NewContextService(e.users, e.members, e.tokens, 15*time.Minute)
}

func (e *testEnv) authService() AuthService {
	return NewAuthService(e.users, e.txm, e.tokens, 15*time.Minute, 7*24*time.Hour)
}

func (e *testEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Username: email, Email: email, Password: "x"}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}
