package handler

import (
	"net/http"

	"authservice/internal/service"
	"authservice/pkg/pagination"
	"authservice/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	permissionService service.PermissionService
}

func NewPermissionHandler(permissionService service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	perms := router.Group("/permissions")
	{
		perms.GET("", h.ListPermissions)
		perms.GET("/:id", h.GetPermission)
		perms.POST("", h.CreatePermission)
		perms.PUT("/:id", h.UpdatePermission)
		perms.DELETE("/:id", h.DeletePermission)
	}
}

// ListPermissions returns permissions, paginated
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Limit"
// @Success      200    {object}  response.Response{data=pagination.Paginated}
// @Router       /rbac/permissions [get]
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	p := pagination.Parse(c)
	perms, total, err := h.permissionService.ListPermissions(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPaginated(perms, total, p)))
}

// GetPermission returns a single permission by ID
// @Summary      Get permission
// @Tags         permissions
// @Produce      json
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  response.Response{data=service.PermissionResponse}
// @Failure      404  {object}  response.Response
// @Router       /rbac/permissions/{id} [get]
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	perm, err := h.permissionService.GetPermission(c.Request.Context(), id)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perm))
}

// CreatePermission creates a permission; the name must follow the
// resource:action:method[,method...] convention
// @Summary      Create permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePermissionRequest  true  "Create Permission Payload"
// @Success      201      {object}  response.Response{data=service.PermissionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /rbac/permissions [post]
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	perm, err := h.permissionService.CreatePermission(c.Request.Context(), req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, perm))
}

// UpdatePermission updates a permission's fields
// @Summary      Update permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        id       path      int                              true  "Permission ID"
// @Param        payload  body      service.UpdatePermissionRequest  true  "Update Permission Payload"
// @Success      200      {object}  response.Response{data=service.PermissionResponse}
// @Failure      404      {object}  response.Response
// @Router       /rbac/permissions/{id} [put]
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	perm, err := h.permissionService.UpdatePermission(c.Request.Context(), id, req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perm))
}

// DeletePermission deletes an unused permission
// @Summary      Delete permission
// @Description  Fails with 409 while the permission is still assigned to any role.
// @Tags         permissions
// @Produce      json
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /rbac/permissions/{id} [delete]
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.permissionService.DeletePermission(c.Request.Context(), id); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permission deleted successfully"}))
}
