package handler

import (
	"net/http"

	"authservice/internal/service"
	"authservice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TeamHandler struct {
	membershipService service.MembershipService
}

func NewTeamHandler(membershipService service.MembershipService) *TeamHandler {
	return &TeamHandler{membershipService: membershipService}
}

// RegisterRoutes binds team endpoints behind the permission gate.
func (h *TeamHandler) RegisterRoutes(router *gin.RouterGroup, authorize gin.HandlerFunc) {
	teams := router.Group("/teams", authorize)
	{
		teams.GET("/:id", h.GetTeam)
		teams.POST("/:id/assign-user", h.AssignUser)
		teams.DELETE("/:id/remove-user/:user_id", h.RemoveUser)
	}
}

// GetTeam returns a team by ID
// @Summary      Get team
// @Tags         teams
// @Produce      json
// @Param        id   path      int  true  "Team ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /rbac/teams/{id} [get]
func (h *TeamHandler) GetTeam(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	team, err := h.membershipService.GetTeam(c.Request.Context(), id)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, team))
}

// AssignUser adds a user to the team with a team-scope role
// @Summary      Assign team member
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "Team ID"
// @Param        payload  body      service.AddMemberRequest  true  "Assign Member Payload"
// @Success      201      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /rbac/teams/{id}/assign-user [post]
func (h *TeamHandler) AssignUser(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req service.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.membershipService.AddUserToTeam(c.Request.Context(), id, req); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"message": "User assigned to team"}))
}

// RemoveUser removes a user from the team
// @Summary      Remove team member
// @Tags         teams
// @Produce      json
// @Param        id       path      int     true  "Team ID"
// @Param        user_id  path      string  true  "User ID"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /rbac/teams/{id}/remove-user/{user_id} [delete]
func (h *TeamHandler) RemoveUser(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid user_id parameter"))
		return
	}

	if err := h.membershipService.RemoveUserFromTeam(c.Request.Context(), id, userID); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User removed from team"}))
}
