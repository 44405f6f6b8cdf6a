package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/fenceadmin/internal/app"
	"github.com/charlesng35/fenceadmin/internal/auth"
	"github.com/charlesng35/fenceadmin/internal/handlers"
	"github.com/charlesng35/fenceadmin/internal/middleware"
	"github.com/charlesng35/fenceadmin/internal/realtime"
	"github.com/charlesng35/fenceadmin/internal/security"
	"github.com/charlesng35/fenceadmin/internal/services"
)

// Dependencies carries everything the console router wires together.
type Dependencies struct {
	Config    *app.Config
	DB        *gorm.DB
	Sessions  *auth.SessionContext
	Console   *services.Console
	Hub       *realtime.Hub
	RateStore middleware.RateStore
	Audit     *security.AuditService
}

// NewRouter builds the Gin engine, wires middleware and registers the console routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session context must be provided")
	}
	if deps.Console == nil {
		return nil, fmt.Errorf("console must be provided")
	}

	cfg := deps.Config
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, deps)
	registerMetricsRoutes(r, deps)

	api := r.Group("/api")
	api.Use(middleware.AccessToken(cfg.Server.AccessToken))

	// Public auth routes
	authHandler := handlers.NewAuthHandler(deps.Sessions, deps.Console)
	loginLimit := middleware.RateLimit(deps.RateStore, cfg.Server.LoginLimit.Requests, cfg.Server.LoginLimit.Window)
	api.POST("/auth/login", loginLimit, authHandler.Login)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.RequireSession(deps.Sessions))
	protected.Use(middleware.Confirmation())

	registerAuthRoutes(protected, authHandler)
	registerSessionRoutes(protected, handlers.NewSessionHandler(deps.Console.Sessions))
	registerUserRoutes(protected, handlers.NewUserHandler(deps.Console.Users, deps.Console.Companies))
	registerCatalogRoutes(protected,
		handlers.NewDeviceHandler(deps.Console.Devices, deps.Console.Companies),
		handlers.NewLocationHandler(deps.Console.Locations, deps.Console.Companies),
		handlers.NewCompanyHandler(deps.Console.Companies),
	)
	if deps.Console.Journal != nil {
		registerJournalRoutes(protected, handlers.NewJournalHandler(deps.Console.Journal))
	}
	if deps.Hub != nil {
		registerRealtimeRoutes(protected, handlers.NewRealtimeHandler(deps.Hub))
	}
	if deps.Audit != nil {
		registerSecurityRoutes(protected, handlers.NewSecurityHandler(deps.Audit))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
