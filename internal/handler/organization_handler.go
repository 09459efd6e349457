package handler

import (
	"net/http"

	"authservice/internal/middleware"
	"authservice/internal/service"
	"authservice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrganizationHandler struct {
	membershipService service.MembershipService
}

func NewOrganizationHandler(membershipService service.MembershipService) *OrganizationHandler {
	return &OrganizationHandler{membershipService: membershipService}
}

// RegisterRoutes binds organization endpoints. Creation only needs
// authentication; everything addressing an existing organization goes through
// the permission gate.
func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup, authorize gin.HandlerFunc) {
	router.POST("/organizations", h.CreateOrganization)

	orgs := router.Group("/organizations", authorize)
	{
		orgs.GET("/:id", h.GetOrganization)
		orgs.GET("/:id/teams", h.ListTeams)
		orgs.POST("/:id/teams", h.CreateTeam)
		orgs.POST("/:id/users", h.AddUser)
		orgs.DELETE("/:id/users/:user_id", h.RemoveUser)
	}
}

// CreateOrganization creates an organization; the creator becomes its first
// admin when a bootstrap Admin role exists
// @Summary      Create organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrganizationRequest  true  "Create Organization Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /rbac/organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	org, err := h.membershipService.CreateOrganization(c.Request.Context(), req, userID)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, org))
}

// GetOrganization returns an organization by ID
// @Summary      Get organization
// @Tags         organizations
// @Produce      json
// @Param        id   path      int  true  "Organization ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /rbac/organizations/{id} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	org, err := h.membershipService.GetOrganization(c.Request.Context(), id)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// ListTeams returns all teams of the organization
// @Summary      List organization teams
// @Tags         organizations
// @Produce      json
// @Param        id   path      int  true  "Organization ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /rbac/organizations/{id}/teams [get]
func (h *OrganizationHandler) ListTeams(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	teams, err := h.membershipService.ListOrganizationTeams(c.Request.Context(), id)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, teams))
}

// CreateTeam creates a team within the organization
// @Summary      Create team
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Organization ID"
// @Param        payload  body      service.CreateTeamRequest  true  "Create Team Payload"
// @Success      201      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /rbac/organizations/{id}/teams [post]
func (h *OrganizationHandler) CreateTeam(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req service.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	team, err := h.membershipService.CreateTeam(c.Request.Context(), id, req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, team))
}

// AddUser adds a user to the organization with an organization-scope role
// @Summary      Add organization member
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "Organization ID"
// @Param        payload  body      service.AddMemberRequest  true  "Add Member Payload"
// @Success      201      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /rbac/organizations/{id}/users [post]
func (h *OrganizationHandler) AddUser(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req service.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.membershipService.AddUserToOrganization(c.Request.Context(), id, req); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"message": "User added to organization"}))
}

// RemoveUser removes a user from the organization
// @Summary      Remove organization member
// @Tags         organizations
// @Produce      json
// @Param        id       path      int     true  "Organization ID"
// @Param        user_id  path      string  true  "User ID"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /rbac/organizations/{id}/users/{user_id} [delete]
func (h *OrganizationHandler) RemoveUser(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid user_id parameter"))
		return
	}

	if err := h.membershipService.RemoveUserFromOrganization(c.Request.Context(), id, userID); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User removed from organization"}))
}

// userIDParam reads the authenticated user's ID set by RequireAuth.
func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "could not validate credentials"))
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "could not validate credentials"))
		return uuid.Nil, false
	}
	return id, true
}
