package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"salonbooking/internal/config"
	"salonbooking/internal/database"
	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/domain/consultant"
	"salonbooking/internal/domain/events"
	"salonbooking/internal/domain/realtime"
	"salonbooking/internal/pkg/logger"
	"salonbooking/internal/pkg/otelx"
	"salonbooking/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otelx.Setup(ctx, otelx.Config{
		Enabled:      cfg.OTELEnabled,
		ServiceName:  "salonbooking-api",
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRatio:  1,
	})
	if err != nil {
		log.Fatal("tracing setup failed", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Users always live in a SQL database; in memory mode a private
	// in-memory SQLite stands in for it.
	dsn := cfg.DatabaseURL
	if cfg.UsesMemoryStore() {
		dsn = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	db, err := database.Connect(dsn, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	var store appointment.Store
	if cfg.UsesMemoryStore() {
		log.Warn("appointments are kept in memory and lost on restart")
		store = appointment.NewMemoryStore(log)
	} else {
		store = appointment.NewGormStore(db, log)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		rmq, err := events.NewRabbitMQPublisher(cfg.AMQPURL, cfg.AMQPQueue, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, appointment events are dropped", zap.Error(err))
		} else {
			defer func() { _ = rmq.Close() }()
			publisher = rmq
		}
	}

	var model consultant.Model
	if cfg.ConsultantURL != "" && cfg.ConsultantAPIKey != "" {
		client, err := consultant.NewClient(consultant.ClientConfig{
			BaseURL: cfg.ConsultantURL,
			APIKey:  cfg.ConsultantAPIKey,
			Model:   cfg.ConsultantModel,
			Timeout: cfg.ConsultantTimeout,
		}, config.NewCircuitBreaker("Consultant-Model", log))
		if err != nil {
			log.Warn("style consultant disabled", zap.Error(err))
		} else {
			model = client
		}
	} else {
		log.Info("style consultant not configured, serving static suggestions")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = realtime.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()

		bridge := realtime.NewBridge(rdb, cfg.RedisChannel, store, log)
		bridge.Attach()
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("redis bridge stopped", zap.Error(err))
			}
		}()
	}

	app, err := server.Build(ctx, server.Options{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Store:     store,
		Publisher: publisher,
		Model:     model,
		Redis:     rdb,
	})
	if err != nil {
		log.Fatal("server setup failed", zap.Error(err))
	}
	defer app.Close()

	if created, err := app.Users.SeedAdmin(ctx); err != nil {
		log.Fatal("admin seed failed", zap.Error(err))
	} else if created {
		log.Info("seeded admin account")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(app.Router, "salonbooking-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr), zap.String("slot_guard", cfg.SlotGuard))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
