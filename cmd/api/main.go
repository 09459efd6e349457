package main

import (
	"context"
	"log"

	_ "authservice/api/swagger" // swagger docs

	"authservice/internal/config"
	"authservice/internal/database"
	"authservice/internal/handler"
	"authservice/internal/middleware"
	"authservice/internal/rbac"
	"authservice/internal/repository"
	"authservice/internal/service"
	"authservice/internal/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Multi-Tenant Auth & RBAC API
// @version         1.0
// @description     Authentication, role-based access control and context switching for organizations and teams.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	rbacRepo := repository.NewRBACRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	txm := repository.NewTransactionManager(db)

	// Permission cache: built once before serving; every RBAC mutation
	// rebuilds it.
	cache := rbac.NewCache(rbacRepo)
	if err := cache.Build(context.Background()); err != nil {
		log.Fatalf("Permission cache build failed: %v", err)
	}

	// Signing strategy selected by configuration.
	var signer token.Signer
	switch cfg.AuthMode {
	case config.AuthModeEd25519:
		signer, err = token.NewEd25519SignerFromPEM(cfg.Ed25519PrivateKeyPEM, cfg.Ed25519PublicKeyPEM)
		if err != nil {
			log.Fatalf("Loading Ed25519 keys failed: %v", err)
		}
	default:
		signer = token.NewHMACSigner([]byte(cfg.JWTSecret))
	}
	tokenService := token.NewService(signer, tokenRepo, userRepo, membershipRepo, cache)

	// Services
	authService := service.NewAuthService(userRepo, txm, tokenService, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	roleService := service.NewRoleService(rbacRepo, txm, cache)
	permissionService := service.NewPermissionService(rbacRepo, txm, cache)
	membershipService := service.NewMembershipService(membershipRepo, rbacRepo, txm)
	contextService := service.NewContextService(userRepo, membershipRepo, tokenService, cfg.AccessTokenTTL)

	// Middleware
	requireAuth := middleware.RequireAuth(tokenService, userRepo)
	authorize := middleware.NewAuthorizer(cache, membershipRepo, rbacRepo).Authorize()

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	roleHandler := handler.NewRoleHandler(roleService)
	permissionHandler := handler.NewPermissionHandler(permissionService)
	contextHandler := handler.NewContextHandler(contextService)
	organizationHandler := handler.NewOrganizationHandler(membershipService)
	teamHandler := handler.NewTeamHandler(membershipService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Public auth routes
	authHandler.RegisterRoutes(router.Group(""))

	// RBAC administration and tenant routes, all authenticated; organization
	// and team routes additionally pass the permission gate.
	rbacGroup := router.Group("/rbac", requireAuth)
	roleHandler.RegisterRoutes(rbacGroup)
	permissionHandler.RegisterRoutes(rbacGroup)
	contextHandler.RegisterRoutes(rbacGroup)
	organizationHandler.RegisterRoutes(rbacGroup, authorize)
	teamHandler.RegisterRoutes(rbacGroup, authorize)

	log.Printf("Starting server on port %s (auth mode %s)", cfg.Port, cfg.AuthMode)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
