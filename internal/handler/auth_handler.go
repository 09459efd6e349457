package handler

import (
	"net/http"

	"authservice/internal/middleware"
	"authservice/internal/service"
	"authservice/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
	}
}

// Register creates a new user account
// @Summary      Register
// @Description  Creates a user account with a bcrypt-hashed password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Register Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login authenticates a user and returns a token pair
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Payload"
// @Success      200      {object}  response.Response{data=service.TokenPairResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	middleware.SetTokenCookies(c, pair.AccessToken, pair.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pair))
}

// Refresh rotates the refresh token and issues a fresh token pair
// @Summary      Refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshRequest  false  "Refresh Payload"
// @Success      200      {object}  response.Response{data=service.TokenPairResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "could not validate credentials"))
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	middleware.SetTokenCookies(c, pair.AccessToken, pair.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pair))
}

// Logout revokes the refresh token and clears auth cookies
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if refreshToken := h.refreshTokenFrom(c); refreshToken != "" {
		if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
			status, body := response.FromError(err)
			c.JSON(status, body)
			return
		}
	}

	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out successfully"}))
}

// refreshTokenFrom reads the refresh token from the cookie first, then the
// request body.
func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie("refresh_token"); err == nil && cookie != "" {
		return cookie
	}
	var req service.RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}
