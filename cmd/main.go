package main

import (
	"permission-service/internal/handler"
	"permission-service/internal/middleware"
	"permission-service/internal/permission"
	"permission-service/internal/store"
	"permission-service/internal/tenant"
	"permission-service/pkg/config"
	"permission-service/pkg/database"
	"permission-service/pkg/jwtutil"
	"permission-service/pkg/logger"
	"permission-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting permission service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.Initialize(database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	}); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Wire the store, the resolvers and the grant manager
	st := store.New(database.GetDB())
	tenantResolver := tenant.NewResolver(st, log)
	permResolver := permission.NewResolver(st, log)
	grantManager := permission.NewManager(st, log)
	handler.Initialize(permResolver, grantManager, st)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())
	e.Use(middleware.TenantMiddleware(tenantResolver))

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.GET("/me", handler.Me, middleware.AuthMiddleware)

	// Platform routes - cross-tenant, platform admins only
	platform := e.Group("/api/platform")
	platform.Use(middleware.AuthMiddleware)
	platform.POST("/tenants", handler.CreateTenant)
	platform.GET("/tenants/:id", handler.GetTenant)

	// Tenant-scoped API - requires authentication and a resolved tenant
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.Use(middleware.RequireTenantContext(st))

	api.GET("/tenants/current", handler.GetCurrentTenant)

	// Member management
	api.POST("/members", handler.AddTenantMember)
	api.PATCH("/members/:user_id", handler.UpdateTenantMember)
	api.DELETE("/members/:user_id", handler.RemoveTenantMember)

	// Permission grants and checks
	api.POST("/permissions", handler.GrantPermission)
	api.DELETE("/permissions", handler.RevokePermission)
	api.GET("/permissions", handler.ListResourcePermissions)
	api.GET("/permissions/effective", handler.GetEffectivePermission)
	api.POST("/permissions/check", handler.CheckPermission)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
