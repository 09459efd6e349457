package service

import (
	"context"
	"errors"
	"time"

	"authservice/internal/apperror"
	"authservice/internal/model"
	"authservice/internal/rbac"
	"authservice/internal/repository"

	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Scope       string `json:"scope" binding:"required"`
	Inherits    string `json:"inherits"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Inherits    string `json:"inherits"`
}

type RoleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description string               `json:"description"`
	Scope       string               `json:"scope"`
	Inherits    string               `json:"inherits,omitempty"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context, page, limit int) ([]RoleResponse, int64, error)
	GetRole(ctx context.Context, id uint) (*RoleResponse, error)
	GetRoleBySlug(ctx context.Context, slug string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id uint) error
	AssignPermission(ctx context.Context, roleID, permissionID uint) (bool, error)
	RemovePermission(ctx context.Context, roleID, permissionID uint) error
}

type roleService struct {
	repo  repository.RBACRepository
	txm   repository.TransactionManager
	cache *rbac.Cache
}

func NewRoleService(repo repository.RBACRepository, txm repository.TransactionManager, cache *rbac.Cache) RoleService {
	return &roleService{repo: repo, txm: txm, cache: cache}
}

// refreshCache rebuilds the permission cache after an RBAC mutation. It is
// awaited before the mutation response returns so a client never observes
// its own write as stale.
func (s *roleService) refreshCache(ctx context.Context) error {
	if err := s.cache.Refresh(ctx); err != nil {
		return apperror.Internal("CACHE_REFRESH_FAILED", "failed to refresh permission cache", err)
	}
	return nil
}

func (s *roleService) ListRoles(ctx context.Context, page, limit int) ([]RoleResponse, int64, error) {
	offset := (page - 1) * limit
	roles, total, err := s.repo.ListRoles(ctx, offset, limit)
	if err != nil {
		return nil, 0, apperror.Database("ROLES_RETRIEVAL_ERROR", "failed to fetch roles", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, total, nil
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*RoleResponse, error) {
	role, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("ROLE_NOT_FOUND", "role not found")
		}
		return nil, apperror.Database("ROLE_RETRIEVAL_ERROR", "failed to fetch role", err)
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) GetRoleBySlug(ctx context.Context, slug string) (*RoleResponse, error) {
	role, err := s.repo.GetRoleBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("ROLE_NOT_FOUND", "role not found")
		}
		return nil, apperror.Database("ROLE_RETRIEVAL_ERROR", "failed to fetch role", err)
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	scope := model.Scope(req.Scope)
	if !scope.Valid() {
		return nil, apperror.Validation("INVALID_SCOPE", "scope must be organization or team")
	}

	slug := req.Slug
	if slug == "" {
		var err error
		if slug, err = generateSlug(req.Name); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.GetRoleByName(ctx, req.Name); err == nil {
		return nil, apperror.Conflict("ROLE_EXISTS", "a role with this name already exists")
	}
	if _, err := s.repo.GetRoleBySlug(ctx, slug); err == nil {
		return nil, apperror.Conflict("ROLE_SLUG_EXISTS", "a role with this slug already exists")
	}

	role := model.Role{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Scope:       scope,
		Inherits:    req.Inherits,
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateRole(txCtx, &role)
	})
	if err != nil {
		return nil, apperror.Database("ROLE_CREATION_ERROR", "failed to create role", err)
	}

	if err := s.refreshCache(ctx); err != nil {
		return nil, err
	}
	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("ROLE_NOT_FOUND", "role not found")
		}
		return nil, apperror.Database("ROLE_RETRIEVAL_ERROR", "failed to fetch role", err)
	}

	if req.Name != role.Name {
		if _, err := s.repo.GetRoleByName(ctx, req.Name); err == nil {
			return nil, apperror.Conflict("ROLE_EXISTS", "a role with this name already exists")
		}
	}

	role.Name = req.Name
	role.Description = req.Description
	role.Inherits = req.Inherits

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpdateRole(txCtx, role)
	})
	if err != nil {
		return nil, apperror.Database("ROLE_UPDATE_ERROR", "failed to update role", err)
	}

	if err := s.refreshCache(ctx); err != nil {
		return nil, err
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) DeleteRole(ctx context.Context, id uint) error {
	if _, err := s.repo.GetRoleByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("ROLE_NOT_FOUND", "role not found")
		}
		return apperror.Database("ROLE_RETRIEVAL_ERROR", "failed to fetch role", err)
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteRole(txCtx, id)
	})
	if err != nil {
		return apperror.Database("ROLE_DELETE_ERROR", "failed to delete role", err)
	}

	return s.refreshCache(ctx)
}

// AssignPermission links a permission to a role. Returns false without error
// when the pair is already assigned.
func (s *roleService) AssignPermission(ctx context.Context, roleID, permissionID uint) (bool, error) {
	if _, err := s.repo.GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperror.NotFound("ROLE_NOT_FOUND", "role not found")
		}
		return false, apperror.Database("ROLE_RETRIEVAL_ERROR", "failed to fetch role", err)
	}
	if _, err := s.repo.GetPermissionByID(ctx, permissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperror.NotFound("PERMISSION_NOT_FOUND", "permission not found")
		}
		return false, apperror.Database("PERMISSION_RETRIEVAL_ERROR", "failed to fetch permission", err)
	}

	var assigned bool
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		assigned, txErr = s.repo.AssignPermissionToRole(txCtx, roleID, permissionID)
		return txErr
	})
	if err != nil {
		return false, apperror.Database("PERMISSION_ASSIGNMENT_ERROR", "failed to assign permission to role", err)
	}

	if assigned {
		if err := s.refreshCache(ctx); err != nil {
			return false, err
		}
	}
	return assigned, nil
}

func (s *roleService) RemovePermission(ctx context.Context, roleID, permissionID uint) error {
	var removed bool
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		removed, txErr = s.repo.RemovePermissionFromRole(txCtx, roleID, permissionID)
		return txErr
	})
	if err != nil {
		return apperror.Database("PERMISSION_REMOVAL_ERROR", "failed to remove permission from role", err)
	}
	if !removed {
		return apperror.NotFound("PERMISSION_NOT_ASSIGNED", "permission is not assigned to this role")
	}

	return s.refreshCache(ctx)
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Scope:       string(r.Scope),
		Inherits:    r.Inherits,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}
