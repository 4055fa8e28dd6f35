package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kaykim0310/wmsd-report/internal/config"
	"github.com/kaykim0310/wmsd-report/internal/metrics"
	"github.com/kaykim0310/wmsd-report/internal/middleware"
	"github.com/kaykim0310/wmsd-report/internal/survey/blob"
	"github.com/kaykim0310/wmsd-report/internal/survey/handler"
	"github.com/kaykim0310/wmsd-report/internal/survey/repository"
	"github.com/kaykim0310/wmsd-report/internal/survey/service"
	"github.com/kaykim0310/wmsd-report/internal/survey/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting wmsd service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	snapshots := repository.NewSnapshotRepository(db)
	if err := snapshots.AutoMigrate(); err != nil {
		zapLogger.Error("AutoMigrate snapshot table failed", zap.Error(err))
		return err
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	m := metrics.New()

	var mirror session.Mirror
	if cfg.Redis.Host != "" {
		rdb := initRedis(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			zapLogger.Warn("Redis unavailable, sessions are kept in memory only", zap.Error(err))
			rdb.Close()
		} else {
			defer rdb.Close()
			mirror = session.NewRedisMirror(rdb)
			zapLogger.Info("Session mirror enabled", zap.String("redis", cfg.Redis.Addr()))
		}
	}

	blobs := initBlobStore(ctx, cfg.MinIO, zapLogger)

	sessions := session.NewManager(session.Options{
		TTL:           cfg.Session.TTL,
		CategoryCount: cfg.Export.CategoryCount,
		Mirror:        mirror,
		Logger:        zapLogger.Named("session"),
		OnCount:       m.SetActiveSessions,
	})
	if cfg.Session.SweepInterval > 0 {
		go sessions.Run(ctx, cfg.Session.SweepInterval)
	}

	svc := service.NewSurveyService(sessions, snapshots, blobs, m, zapLogger.Named("survey"), service.Options{
		FontPath:      cfg.Export.FontPath,
		MaxImageBytes: cfg.Server.MaxUploadBytes,
	})
	handlers := handler.NewHandlers(svc, cfg.Session.Secret, cfg.Session.TTL, cfg.Server.MaxUploadBytes)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(m.ObserveRequest))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	registerRoutes(router, handlers, db, m)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		zapLogger.Error("Failed to start server", zap.Error(err))
		return err
	}

	zapLogger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
	return nil
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// initBlobStore uses MinIO when configured and falls back to memory.
func initBlobStore(ctx context.Context, cfg config.MinIOConfig, zapLogger *zap.Logger) blob.Store {
	if cfg.Endpoint == "" {
		zapLogger.Info("MinIO not configured, images are kept in memory")
		return blob.NewMemoryStore()
	}
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, err := blob.NewMinIOStore(initCtx, blob.MinIOConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		zapLogger.Warn("MinIO unavailable, images are kept in memory", zap.Error(err))
		return blob.NewMemoryStore()
	}
	zapLogger.Info("MinIO image store ready", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket))
	return store
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, db *gorm.DB, m *metrics.Metrics) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "Not found"})
	})

	h.Register(r.Group("/api/v1"))
}
