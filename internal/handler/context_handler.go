package handler

import (
	"net/http"

	"authservice/internal/middleware"
	"authservice/internal/service"
	"authservice/internal/token"
	"authservice/pkg/response"

	"github.com/gin-gonic/gin"
)

type ContextHandler struct {
	contextService service.ContextService
}

func NewContextHandler(contextService service.ContextService) *ContextHandler {
	return &ContextHandler{contextService: contextService}
}

func (h *ContextHandler) RegisterRoutes(router *gin.RouterGroup) {
	ctx := router.Group("/context")
	{
		ctx.POST("/switch-organization", h.SwitchOrganization)
		ctx.POST("/switch-team", h.SwitchTeam)
		ctx.POST("/switch-context", h.SwitchContext)
		ctx.GET("/current", h.CurrentContext)
		ctx.GET("/available", h.AvailableContexts)
	}
}

// SwitchOrganization mints a token with the organization context active
// @Summary      Switch organization
// @Tags         context
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SwitchOrganizationRequest  true  "Switch Payload"
// @Success      200      {object}  response.Response{data=service.ContextTokenResponse}
// @Failure      403      {object}  response.Response
// @Router       /rbac/context/switch-organization [post]
func (h *ContextHandler) SwitchOrganization(c *gin.Context) {
	email, ok := h.userEmail(c)
	if !ok {
		return
	}
	var req service.SwitchOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.contextService.SwitchOrganization(c.Request.Context(), email, req.OrganizationID)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// SwitchTeam mints a token with the team context active; the owning
// organization is implied
// @Summary      Switch team
// @Tags         context
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SwitchTeamRequest  true  "Switch Payload"
// @Success      200      {object}  response.Response{data=service.ContextTokenResponse}
// @Failure      403      {object}  response.Response
// @Router       /rbac/context/switch-team [post]
func (h *ContextHandler) SwitchTeam(c *gin.Context) {
	email, ok := h.userEmail(c)
	if !ok {
		return
	}
	var req service.SwitchTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.contextService.SwitchTeam(c.Request.Context(), email, req.TeamID)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// SwitchContext mints a token for an explicit organization/team pair
// @Summary      Switch context
// @Tags         context
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SwitchContextRequest  true  "Switch Payload"
// @Success      200      {object}  response.Response{data=service.ContextTokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /rbac/context/switch-context [post]
func (h *ContextHandler) SwitchContext(c *gin.Context) {
	email, ok := h.userEmail(c)
	if !ok {
		return
	}
	var req service.SwitchContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.contextService.SwitchContext(c.Request.Context(), email, req.OrganizationID, req.TeamID)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CurrentContext returns the active context embedded in the presented token
// @Summary      Current context
// @Tags         context
// @Produce      json
// @Success      200  {object}  response.Response{data=service.CurrentContextResponse}
// @Router       /rbac/context/current [get]
func (h *ContextHandler) CurrentContext(c *gin.Context) {
	v, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "could not validate credentials"))
		return
	}
	claims, ok := v.(token.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "could not validate credentials"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.contextService.CurrentContext(claims)))
}

// AvailableContexts lists the organizations and teams available to the user
// @Summary      Available contexts
// @Tags         context
// @Produce      json
// @Success      200  {object}  response.Response{data=service.AvailableContextsResponse}
// @Router       /rbac/context/available [get]
func (h *ContextHandler) AvailableContexts(c *gin.Context) {
	email, ok := h.userEmail(c)
	if !ok {
		return
	}
	res, err := h.contextService.AvailableContexts(c.Request.Context(), email)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

func (h *ContextHandler) userEmail(c *gin.Context) (string, bool) {
	email := c.GetString(middleware.CtxUserEmailKey)
	if email == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "could not validate credentials"))
		return "", false
	}
	return email, true
}
