// Package main runs the attendance HTTP server with the WebSocket relay and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jayGatsby988/Hive-Website-final-sub000/config"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/audit"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/auth"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/checkins"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/events"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/hours"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/middleware"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/obs"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/organizations"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/realtime"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/registrations"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/store/memory"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/worker"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/database"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/queue"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/redis"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

// stores groups the persistence implementations chosen by DB_DRIVER.
type stores struct {
	orgs          organizations.Store
	events        events.Store
	registrations registrations.Store
	checkins      checkins.Store
	hours         hours.Store
	audit         audit.Store
	close         func()
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage; state is lost on restart")
		m := memory.New()
		return &stores{orgs: m, events: m, registrations: m, checkins: m, hours: m, audit: m, close: func() {}}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &stores{
		orgs:          organizations.NewRepository(pool),
		events:        events.NewRepository(pool),
		registrations: registrations.NewRepository(pool),
		checkins:      checkins.NewRepository(pool),
		hours:         hours.NewRepository(pool),
		audit:         audit.NewRepository(pool),
		close:         pool.Close,
	}, nil
}

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	obs.Init()

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer st.close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Relay: Redis fans changes out across instances when configured.
	var (
		hub      *realtime.Hub
		jobQueue *queue.Queue
	)
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, redisPubSub, redisPubSub)
		jobQueue = queue.NewQueue(rdb.Client, logger)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	// Organizations
	orgService := organizations.NewService(st.orgs, logger)
	orgHandler := organizations.NewHandler(orgService)

	// Ledger and audit
	ledger := hours.NewLedger(st.hours, logger)
	hoursHandler := hours.NewHandler(ledger, st.events, orgService)
	auditWriter := audit.NewWriter(st.audit, logger)
	auditHandler := audit.NewHandler(auditWriter)

	// Events
	eventService := events.NewService(st.events, orgService, logger).
		WithOpenSessionCounter(st.checkins).
		WithPublisher(hub)
	eventHandler := events.NewHandler(eventService)
	requireEventAdmin := events.RequireEventAdmin(st.events, orgService)

	// Registrations
	registrationManager := registrations.NewManager(st.registrations, hub, logger)
	registrationHandler := registrations.NewHandler(registrationManager)

	// Check-ins
	tracker := checkins.NewTracker(st.checkins, st.events, orgService, ledger, auditWriter, logger).
		WithPublisher(hub)
	if jobQueue != nil {
		tracker.WithRetryQueue(jobQueue)
	}
	checkinHandler := checkins.NewHandler(tracker)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(obs.Handler()))

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtService.UserID, st.events, orgService))

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	api.Use(middleware.RateLimit(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst))
	{
		// Organizations
		api.GET("/organizations", orgHandler.ListMyOrganizations)
		api.POST("/organizations", orgHandler.CreateOrganization)
		api.POST("/organizations/:id/members", orgHandler.AddMember)
		api.GET("/organizations/:id/members", orgHandler.ListMembers)
		api.GET("/organizations/:id/events", eventHandler.ListByOrganization)

		// Event lifecycle (admin checks happen in the service)
		api.POST("/events", eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.POST("/events/:id/publish", eventHandler.Publish)
		api.POST("/events/:id/start", eventHandler.Start)
		api.POST("/events/:id/end", eventHandler.End)
		api.POST("/events/:id/cancel", eventHandler.Cancel)

		// Registration (self)
		api.POST("/events/:id/register", registrationHandler.Register)
		api.DELETE("/events/:id/register", registrationHandler.Unregister)
		api.GET("/me/registrations", registrationHandler.ListMine)

		// Check-in (self)
		api.POST("/events/:id/checkin", checkinHandler.CheckIn)
		api.POST("/events/:id/checkout", checkinHandler.CheckOut)
		api.GET("/events/:id/session", checkinHandler.ActiveSession)

		// Check-in on behalf of a member (authorization and audit happen in the tracker)
		api.POST("/events/:id/attendees/:userId/checkin", checkinHandler.AdminCheckIn)
		api.POST("/events/:id/attendees/:userId/checkout", checkinHandler.AdminCheckOut)
		api.POST("/events/:id/checkout-all", checkinHandler.CheckOutAll)

		// Organization dashboards
		api.GET("/events/:id/registrations", requireEventAdmin, registrationHandler.ListByEvent)
		api.GET("/events/:id/checkins", requireEventAdmin, checkinHandler.ListByEvent)
		api.GET("/events/:id/audit", requireEventAdmin, auditHandler.ListByEvent)

		// Volunteer hours
		api.GET("/users/:id/hours", hoursHandler.Total)
		api.GET("/users/:id/hours/entries", hoursHandler.Entries)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// In-process reconciler so the memory driver and single-instance deployments still heal the ledger.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	reconciler := hours.NewReconciler(ledger, st.hours, cfg.Worker.BatchSize, logger).
		WithGrace(cfg.Worker.ReconcileGrace)
	go worker.RunReconciler(workerCtx, reconciler, cfg.Worker.SweepInterval, logger)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
