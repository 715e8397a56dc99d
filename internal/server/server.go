package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"salonbooking/internal/config"
	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/domain/booking"
	"salonbooking/internal/domain/catalog"
	"salonbooking/internal/domain/consultant"
	"salonbooking/internal/domain/events"
	"salonbooking/internal/domain/realtime"
	"salonbooking/internal/domain/roster"
	"salonbooking/internal/domain/user"
	"salonbooking/internal/middleware"
	"salonbooking/internal/pkg/jwt"
	"salonbooking/internal/pkg/validator"
)

// Options carries the infrastructure chosen at start-up.
type Options struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	// Store defaults to a GormStore on DB.
	Store     appointment.Store
	Publisher events.Publisher
	// Model may be nil; the consultant then serves its fallbacks.
	Model consultant.Model
	// Redis is optional and only used by the health check here.
	Redis *redis.Client
}

// App is the wired service.
type App struct {
	Router       *gin.Engine
	Tokens       *jwt.Service
	Users        *user.Service
	Store        appointment.Store
	Appointments *appointment.Service
	Cache        *realtime.Cache
	Hub          *realtime.Hub

	unsubscribe func()
}

// Build wires every domain service and mounts the HTTP surface.
func Build(ctx context.Context, opts Options) (*App, error) {
	cfg, log := opts.Config, opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DB == nil {
		return nil, fmt.Errorf("server: a database is required for users")
	}

	store := opts.Store
	if store == nil {
		store = appointment.NewGormStore(opts.DB, log)
	}

	validator.RegisterBindingTags()

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	users := user.NewService(user.NewRepository(opts.DB), tokens, log)

	guard := appointment.GuardTransactional
	if cfg.SlotGuard == config.SlotGuardOptimistic {
		guard = appointment.GuardOptimistic
	}
	appts := appointment.NewService(store, user.NewDirectory(users), opts.Publisher, guard, cfg.StoreTimeout, log)

	cache := realtime.NewCache()
	hub := realtime.NewHub(cache, log)
	unsubscribe, err := store.Subscribe(ctx, cache.Apply)
	if err != nil {
		return nil, fmt.Errorf("subscribe to appointments: %w", err)
	}

	app := &App{
		Tokens:       tokens,
		Users:        users,
		Store:        store,
		Appointments: appts,
		Cache:        cache,
		Hub:          hub,
		unsubscribe:  unsubscribe,
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.ErrorLogger(log),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	health := newHealthHandler(opts.DB, opts.Redis)
	r.GET("/healthz", health.Health)
	r.GET("/readyz", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/appointments", realtime.NewWSHandler(hub, tokens, cfg.CORSAllowedOrigins, log).HandleWebSocket)

	userHandler := user.NewHandler(users)
	catalogHandler := catalog.NewHandler()
	appointmentHandler := appointment.NewHandler(appts)
	bookingHandler := booking.NewHandler(booking.NewService(appts, users, cache, log))
	rosterHandler := roster.NewHandler(roster.NewView(cache))
	consultantHandler := consultant.NewHandler(consultant.NewService(opts.Model, log))

	v1 := r.Group("/api/v1")
	{
		userHandler.RegisterPublicRoutes(v1)
		catalogHandler.RegisterPublicRoutes(v1)
		bookingHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("", middleware.JWTAuth(tokens))
		{
			userHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterProtectedRoutes(protected)
			appointmentHandler.RegisterProtectedRoutes(protected)
			consultantHandler.RegisterProtectedRoutes(protected)

			manage := protected.Group("/manage", middleware.StaffOrAdmin())
			{
				appointmentHandler.RegisterManageRoutes(manage)
				rosterHandler.RegisterManageRoutes(manage)
			}

			admin := protected.Group("/admin", middleware.AdminOnly())
			{
				userHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	app.Router = r
	return app, nil
}

// Close detaches the snapshot cache from the store.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
