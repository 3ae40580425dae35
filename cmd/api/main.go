package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "logistics/api/swagger" // swagger docs
	"logistics/internal/config"
	"logistics/internal/database"
	"logistics/internal/handler"
	"logistics/internal/lock"
	"logistics/internal/logger"
	"logistics/internal/middleware"
	"logistics/internal/repository"
	"logistics/internal/service"
	"logistics/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title           Facility Logistics Workflow API
// @version         1.0
// @description     Gating engine for facility ordering, vehicle requests and ODN delivery follow-up.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.Log)
	defer func() { _ = log.Sync() }()

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Warn("failed to auto-migrate models", zap.Error(err))
	}
	log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locker, closeLocker := newLocker(ctx, cfg.Redis, log)
	defer closeLocker()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log.Named("ws"))
	go wsHub.Run(ctx)

	middleware.SetJWTSecret(cfg.JWT.Secret)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	router := newRouter(cfg, db, locker, wsHub, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// newLocker returns a Redis-backed route lock when redis.addr is set and
// reachable, otherwise a no-op lock that leaves serialisation to Postgres.
func newLocker(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (lock.Locker, func()) {
	if cfg.Addr == "" {
		log.Info("redis not configured, using database locks only")
		return lock.NopLocker{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, using database locks only", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return lock.NopLocker{}, func() {}
	}

	log.Info("connected to Redis", zap.String("addr", cfg.Addr))
	return lock.NewRedisLocker(client, cfg.LockTTL), func() { _ = client.Close() }
}

func newRouter(cfg *config.Config, db *gorm.DB, locker lock.Locker, wsHub *websocket.Hub, log *zap.Logger) *gin.Engine {
	clock := time.Now

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	processRepo := repository.NewProcessRepository(db)
	odnRepo := repository.NewODNRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	requestRepo := repository.NewVehicleRequestRepository(db)
	assignmentRepo := repository.NewRouteAssignmentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	userService := service.NewUserService(userRepo, []byte(cfg.JWT.Secret), cfg.JWT.TokenExpire)
	auditService := service.NewAuditService(auditRepo)
	routeService := service.NewRouteService(routeRepo, facilityRepo)
	facilityService := service.NewFacilityService(facilityRepo, routeRepo, processRepo)
	vehicleService := service.NewVehicleService(vehicleRepo)
	processService := service.NewProcessService(processRepo, facilityRepo, odnRepo, auditRepo, txManager, wsHub, clock, log.Named("process"))
	requestService := service.NewVehicleRequestService(routeRepo, facilityRepo, processRepo, requestRepo, auditRepo, txManager, locker, wsHub, log.Named("vehicle_request"))
	assignmentService := service.NewRouteAssignmentService(assignmentRepo, routeRepo, vehicleRepo, userRepo, requestRepo, auditRepo, txManager, wsHub, log.Named("route_assignment"))
	odnService := service.NewODNService(odnRepo, assignmentRepo, txManager, wsHub, log.Named("odn"))
	reportService := service.NewReportService(reportRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log.Named("http")))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	root := router.Group("")
	handler.NewUserHandler(userService).RegisterRoutes(root)
	handler.NewAuditHandler(auditService).RegisterRoutes(root)
	handler.NewRouteHandler(routeService, clock).RegisterRoutes(root)
	handler.NewFacilityHandler(facilityService).RegisterRoutes(root)
	handler.NewVehicleHandler(vehicleService).RegisterRoutes(root)
	handler.NewProcessHandler(processService, clock).RegisterRoutes(root)
	handler.NewVehicleRequestHandler(requestService, clock).RegisterRoutes(root)
	handler.NewRouteAssignmentHandler(assignmentService, clock).RegisterRoutes(root)
	handler.NewODNHandler(odnService, clock).RegisterRoutes(root)
	handler.NewReportHandler(reportService, clock).RegisterRoutes(root)

	return router
}
