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

	"elapor/internal/boot"
	"elapor/pkg/banner"
	"elapor/pkg/logger"
	"elapor/pkg/version"

	"github.com/gin-gonic/gin"
)

// checkFatalErr aborts startup on err
func checkFatalErr(err error, message string) {
	if err != nil {
		logger.Fatal("%s: %v", message, err)
	}
}

func main() {
	if version.BuildTime == "unknown" {
		version.BuildTime = time.Now().Format(time.RFC3339)
	}

	configPath := os.Getenv("ELAPOR_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := boot.InitConfig(configPath)
	checkFatalErr(err, "Failed to load config")

	gin.SetMode(cfg.Server.Mode)

	db, err := boot.InitDB(&cfg.Database)
	checkFatalErr(err, "Failed to connect to database")
	sqlDB, err := db.DB()
	checkFatalErr(err, "Failed to get underlying *sql.DB")
	defer sqlDB.Close()

	mongodb, err := boot.InitMongo(&cfg.MongoDB, &cfg.Storage)
	checkFatalErr(err, "Failed to connect to MongoDB")
	defer mongodb.Close(context.Background())

	redisClient, err := boot.InitRedis(&cfg.Redis)
	checkFatalErr(err, "Failed to connect to Redis")
	defer redisClient.Close()

	repos := boot.InitRepositories(db, mongodb)

	services, err := boot.InitServices(cfg, repos, redisClient)
	checkFatalErr(err, "Failed to init services")
	defer services.Cooldowns.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrapped, err := services.BootstrapService.CheckAndInitSuperAdmin(ctx, cfg.Admin.BootstrapEmail, cfg.Admin.RecoveryRedirectURL)
	checkFatalErr(err, "Failed to init super admin")

	handlers := boot.InitHandlers(services, cfg)
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	_, err = boot.InitRouter(engine, handlers, services, repos, cfg)
	checkFatalErr(err, "Failed to init router")

	go services.Hub.Run(ctx)
	go handlers.RateLimiter.Run(ctx)

	adminCount, _ := repos.AdminRepo.Count(ctx)
	superAdmins, _ := repos.AdminRepo.CountSuperAdmins(ctx)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	status := banner.SystemStatus{
		Addr:           addr,
		RedisStatus:    redisClient != nil,
		MongoDBStatus:  mongodb != nil,
		PostgresStatus: db != nil,
		MailProvider:   services.Mailer.ProviderName(),
		AdminCount:     adminCount,
		SuperAdmins:    superAdmins,
		MaxSuperAdmins: cfg.Admin.MaxSuperAdmins,
		CooldownWindow: services.Cooldowns.Window().String(),
	}
	if bootstrapped {
		status.BootstrapEmail = cfg.Admin.BootstrapEmail
	}
	banner.Print(os.Stdout, status)

	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
