package repository

import (
	"context"
	"errors"

	"authservice/internal/model"
	"authservice/internal/rbac"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RBACRepository is the durable permission store: roles, permissions and the
// role⋈permission join. It also feeds the permission cache via LoadGrants.
type RBACRepository interface {
	CreateRole(ctx context.Context, role *model.Role) error
	UpdateRole(ctx context.Context, role *model.Role) error
	DeleteRole(ctx context.Context, id uint) error
	GetRoleByID(ctx context.Context, id uint) (*model.Role, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	GetRoleBySlug(ctx context.Context, slug string) (*model.Role, error)
	ListRoles(ctx context.Context, offset, limit int) ([]model.Role, int64, error)

	CreatePermission(ctx context.Context, perm *model.Permission) error
	UpdatePermission(ctx context.Context, perm *model.Permission) error
	DeletePermission(ctx context.Context, id uint) error
	GetPermissionByID(ctx context.Context, id uint) (*model.Permission, error)
	GetPermissionByName(ctx context.Context, name string) (*model.Permission, error)
	ListPermissions(ctx context.Context, offset, limit int) ([]model.Permission, int64, error)

	// AssignPermissionToRole reports false when the pair already exists
	// (idempotent-detect, not idempotent-mutate).
	AssignPermissionToRole(ctx context.Context, roleID, permissionID uint) (bool, error)
	RemovePermissionFromRole(ctx context.Context, roleID, permissionID uint) (bool, error)
	IsPermissionInUse(ctx context.Context, permissionID uint) (bool, error)

	// GetUserRoleNames returns the names of roles assigned directly to the
	// user (outside any organization or team), e.g. super_admin.
	GetUserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)

	LoadGrants(ctx context.Context) ([]rbac.Grant, error)
}

type rbacRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) RBACRepository {
	return &rbacRepository{db: db}
}

func (r *rbacRepository) CreateRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *rbacRepository) UpdateRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *rbacRepository) DeleteRole(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *rbacRepository) GetRoleByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rbacRepository) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rbacRepository) GetRoleBySlug(ctx context.Context, slug string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Where("slug = ?", slug).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rbacRepository) ListRoles(ctx context.Context, offset, limit int) ([]model.Role, int64, error) {
	db := GetDB(ctx, r.db)
	var total int64
	if err := db.Model(&model.Role{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var roles []model.Role
	if err := db.Preload("Permissions").Order("name ASC").Offset(offset).Limit(limit).Find(&roles).Error; err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (r *rbacRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *rbacRepository) UpdatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Save(perm).Error
}

func (r *rbacRepository) DeletePermission(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Permission{}).Error
}

func (r *rbacRepository) GetPermissionByID(ctx context.Context, id uint) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *rbacRepository) GetPermissionByName(ctx context.Context, name string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *rbacRepository) ListPermissions(ctx context.Context, offset, limit int) ([]model.Permission, int64, error) {
	db := GetDB(ctx, r.db)
	var total int64
	if err := db.Model(&model.Permission{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var perms []model.Permission
	if err := db.Order("scope ASC, name ASC").Offset(offset).Limit(limit).Find(&perms).Error; err != nil {
		return nil, 0, err
	}
	return perms, total, nil
}

func (r *rbacRepository) AssignPermissionToRole(ctx context.Context, roleID, permissionID uint) (bool, error) {
	db := GetDB(ctx, r.db)

	var existing model.RolePermission
	err := db.Where("role_id = ? AND permission_id = ?", roleID, permissionID).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := db.Create(&model.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *rbacRepository) RemovePermissionFromRole(ctx context.Context, roleID, permissionID uint) (bool, error) {
	res := GetDB(ctx, r.db).Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&model.RolePermission{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *rbacRepository) IsPermissionInUse(ctx context.Context, permissionID uint) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.RolePermission{}).
		Where("permission_id = ?", permissionID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *rbacRepository) GetUserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := GetDB(ctx, r.db).
		Table("user_roles").
		Joins("INNER JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// LoadGrants returns every (role, permission) pair joined with role metadata,
// the raw material of a permission cache snapshot.
func (r *rbacRepository) LoadGrants(ctx context.Context) ([]rbac.Grant, error) {
	var grants []rbac.Grant
	err := GetDB(ctx, r.db).
		Table("roles").
		Select("roles.name AS role_name, roles.scope AS role_scope, roles.inherits AS inherits, permissions.name AS permission_name").
		Joins("INNER JOIN role_permissions ON role_permissions.role_id = roles.id").
		Joins("INNER JOIN permissions ON permissions.id = role_permissions.permission_id").
		Scan(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}
