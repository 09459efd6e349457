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

type CreatePermissionRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description" binding:"required"`
	Scope       string `json:"scope" binding:"required"`
}

type UpdatePermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Scope       string `json:"scope"`
}

type PermissionResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Scope       string `json:"scope"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// --- Interface ---

type PermissionService interface {
	ListPermissions(ctx context.Context, page, limit int) ([]PermissionResponse, int64, error)
	GetPermission(ctx context.Context, id uint) (*PermissionResponse, error)
	GetPermissionByName(ctx context.Context, name string) (*PermissionResponse, error)
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	UpdatePermission(ctx context.Context, id uint, req UpdatePermissionRequest) (*PermissionResponse, error)
	DeletePermission(ctx context.Context, id uint) error
}

type permissionService struct {
	repo  repository.RBACRepository
	txm   repository.TransactionManager
	cache *rbac.Cache
}

func NewPermissionService(repo repository.RBACRepository, txm repository.TransactionManager, cache *rbac.Cache) PermissionService {
	return &permissionService{repo: repo, txm: txm, cache: cache}
}

func (s *permissionService) refreshCache(ctx context.Context) error {
	if err := s.cache.Refresh(ctx); err != nil {
		return apperror.Internal("CACHE_REFRESH_FAILED", "failed to refresh permission cache", err)
	}
	return nil
}

func (s *permissionService) ListPermissions(ctx context.Context, page, limit int) ([]PermissionResponse, int64, error) {
	offset := (page - 1) * limit
	perms, total, err := s.repo.ListPermissions(ctx, offset, limit)
	if err != nil {
		return nil, 0, apperror.Database("PERMISSIONS_RETRIEVAL_ERROR", "failed to fetch permissions", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, total, nil
}

func (s *permissionService) GetPermission(ctx context.Context, id uint) (*PermissionResponse, error) {
	perm, err := s.repo.GetPermissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("PERMISSION_NOT_FOUND", "permission not found")
		}
		return nil, apperror.Database("PERMISSION_RETRIEVAL_ERROR", "failed to fetch permission", err)
	}
	resp := toPermissionResponse(*perm)
	return &resp, nil
}

func (s *permissionService) GetPermissionByName(ctx context.Context, name string) (*PermissionResponse, error) {
	perm, err := s.repo.GetPermissionByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("PERMISSION_NOT_FOUND", "permission not found")
		}
		return nil, apperror.Database("PERMISSION_RETRIEVAL_ERROR", "failed to fetch permission", err)
	}
	resp := toPermissionResponse(*perm)
	return &resp, nil
}

func (s *permissionService) CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error) {
	scope := model.Scope(req.Scope)
	if !scope.Valid() {
		return nil, apperror.Validation("INVALID_SCOPE", "scope must be organization or team")
	}

	// Validate the name against the route grammar here so the cache builder
	// can never encounter an unparseable name at read time.
	if _, _, err := rbac.ParsePermissionName(req.Name); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		var err error
		if slug, err = generateSlug(req.Name); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.GetPermissionByName(ctx, req.Name); err == nil {
		return nil, apperror.Conflict("PERMISSION_EXISTS", "a permission with this name already exists")
	}

	perm := model.Permission{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Scope:       scope,
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreatePermission(txCtx, &perm)
	})
	if err != nil {
		return nil, apperror.Database("PERMISSION_CREATION_ERROR", "failed to create permission", err)
	}

	if err := s.refreshCache(ctx); err != nil {
		return nil, err
	}
	resp := toPermissionResponse(perm)
	return &resp, nil
}

func (s *permissionService) UpdatePermission(ctx context.Context, id uint, req UpdatePermissionRequest) (*PermissionResponse, error) {
	perm, err := s.repo.GetPermissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("PERMISSION_NOT_FOUND", "permission not found")
		}
		return nil, apperror.Database("PERMISSION_RETRIEVAL_ERROR", "failed to fetch permission", err)
	}

	if req.Name != "" && req.Name != perm.Name {
		if _, _, err := rbac.ParsePermissionName(req.Name); err != nil {
			return nil, err
		}
		if _, err := s.repo.GetPermissionByName(ctx, req.Name); err == nil {
			return nil, apperror.Conflict("PERMISSION_NAME_EXISTS", "a permission with this name already exists")
		}
		perm.Name = req.Name
		if perm.Slug, err = generateSlug(req.Name); err != nil {
			return nil, err
		}
	}
	if req.Description != "" {
		perm.Description = req.Description
	}
	if req.Scope != "" {
		scope := model.Scope(req.Scope)
		if !scope.Valid() {
			return nil, apperror.Validation("INVALID_SCOPE", "scope must be organization or team")
		}
		perm.Scope = scope
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpdatePermission(txCtx, perm)
	})
	if err != nil {
		return nil, apperror.Database("PERMISSION_UPDATE_ERROR", "failed to update permission", err)
	}

	if err := s.refreshCache(ctx); err != nil {
		return nil, err
	}
	resp := toPermissionResponse(*perm)
	return &resp, nil
}

// DeletePermission refuses to delete a permission still referenced by any
// role; callers must un-assign it first.
func (s *permissionService) DeletePermission(ctx context.Context, id uint) error {
	if _, err := s.repo.GetPermissionByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("PERMISSION_NOT_FOUND", "permission not found")
		}
		return apperror.Database("PERMISSION_RETRIEVAL_ERROR", "failed to fetch permission", err)
	}

	inUse, err := s.repo.IsPermissionInUse(ctx, id)
	if err != nil {
		return apperror.Database("PERMISSION_USAGE_CHECK_ERROR", "failed to check permission usage", err)
	}
	if inUse {
		return apperror.Conflict("PERMISSION_IN_USE", "cannot delete permission while it is assigned to roles")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeletePermission(txCtx, id)
	})
	if err != nil {
		return apperror.Database("PERMISSION_DELETE_ERROR", "failed to delete permission", err)
	}

	return s.refreshCache(ctx)
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Scope:       string(p.Scope),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}
