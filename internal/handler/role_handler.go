package handler

import (
	"net/http"
	"strconv"

	"authservice/internal/service"
	"authservice/pkg/pagination"
	"authservice/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// RegisterRoutes binds role administration endpoints. The caller attaches
// authentication middleware to the parent group.
func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	{
		roles.GET("", h.ListRoles)
		roles.GET("/:id", h.GetRole)
		roles.GET("/slug/:slug", h.GetRoleBySlug)
		roles.POST("", h.CreateRole)
		roles.PUT("/:id", h.UpdateRole)
		roles.DELETE("/:id", h.DeleteRole)
		roles.POST("/:id/permissions/:permission_id", h.AssignPermission)
		roles.DELETE("/:id/permissions/:permission_id", h.RemovePermission)
	}
}

// ListRoles returns roles with their permissions, paginated
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Limit"
// @Success      200    {object}  response.Response{data=pagination.Paginated}
// @Router       /rbac/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	p := pagination.Parse(c)
	roles, total, err := h.roleService.ListRoles(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPaginated(roles, total, p)))
}

// GetRole returns a single role by ID
// @Summary      Get role
// @Tags         roles
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /rbac/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// GetRoleBySlug returns a single role by slug
// @Summary      Get role by slug
// @Tags         roles
// @Produce      json
// @Param        slug  path      string  true  "Role slug"
// @Success      200   {object}  response.Response{data=service.RoleResponse}
// @Failure      404   {object}  response.Response
// @Router       /rbac/roles/slug/{slug} [get]
func (h *RoleHandler) GetRoleBySlug(c *gin.Context) {
	role, err := h.roleService.GetRoleBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole creates a new role
// @Summary      Create role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRoleRequest  true  "Create Role Payload"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /rbac/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole updates a role's name, description and inheritance
// @Summary      Update role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Update Role Payload"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      404      {object}  response.Response
// @Router       /rbac/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole deletes a role and its permission assignments
// @Summary      Delete role
// @Tags         roles
// @Produce      json
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /rbac/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.roleService.DeleteRole(c.Request.Context(), id); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role deleted successfully"}))
}

// AssignPermission links a permission to a role
// @Summary      Assign permission to role
// @Tags         roles
// @Produce      json
// @Param        id             path      int  true  "Role ID"
// @Param        permission_id  path      int  true  "Permission ID"
// @Success      200            {object}  response.Response
// @Failure      404            {object}  response.Response
// @Router       /rbac/roles/{id}/permissions/{permission_id} [post]
func (h *RoleHandler) AssignPermission(c *gin.Context) {
	roleID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	permID, ok := parseUintParam(c, "permission_id")
	if !ok {
		return
	}

	assigned, err := h.roleService.AssignPermission(c.Request.Context(), roleID, permID)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"assigned": assigned}))
}

// RemovePermission unlinks a permission from a role
// @Summary      Remove permission from role
// @Tags         roles
// @Produce      json
// @Param        id             path      int  true  "Role ID"
// @Param        permission_id  path      int  true  "Permission ID"
// @Success      200            {object}  response.Response
// @Failure      404            {object}  response.Response
// @Router       /rbac/roles/{id}/permissions/{permission_id} [delete]
func (h *RoleHandler) RemovePermission(c *gin.Context) {
	roleID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	permID, ok := parseUintParam(c, "permission_id")
	if !ok {
		return
	}

	if err := h.roleService.RemovePermission(c.Request.Context(), roleID, permID); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permission removed from role"}))
}

// parseUintParam parses a numeric path parameter, writing a 400 on failure.
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+" parameter"))
		return 0, false
	}
	return uint(v), true
}
