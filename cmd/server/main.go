package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"petflip/internal/catalog"
	"petflip/internal/client/hypixel"
	"petflip/internal/config"
	cronrunner "petflip/internal/cron"
	"petflip/internal/db"
	"petflip/internal/handler"
	"petflip/internal/logger"
	gormrepository "petflip/internal/repository/gorm"
	"petflip/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("PF_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PF_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	cat, err := catalog.Load(cfg.Catalog.PetListPath, cfg.Catalog.ProgressionPath)
	if err != nil {
		logger.Fatal("catalog load failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	hypixelHTTP := &http.Client{Timeout: cfg.Hypixel.Timeout}
	hypixelClient := hypixel.NewClient(hypixelHTTP, cfg.Hypixel.BaseURL)

	fetcher := &service.AuctionFetcher{
		Client:       hypixelClient,
		Logger:       logger,
		Limiter:      rate.NewLimiter(rate.Limit(cfg.Hypixel.RateLimitRPS), 1),
		BatchSize:    cfg.Hypixel.PageBatchSize,
		MaxRetries:   cfg.Hypixel.MaxRetries,
		RetryBackoff: cfg.Hypixel.RetryBackoff,
	}
	refreshSvc := &service.RefreshService{
		Fetcher: fetcher,
		Store:   store,
		Catalog: cat,
		Logger:  logger,
	}
	analyzer := &service.Analyzer{
		Store:       store,
		Catalog:     cat,
		Logger:      logger,
		StaleMaxAge: cfg.Refresh.StaleMaxAge,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	analysisHandler := &handler.AnalysisHandler{
		Analyzer:     analyzer,
		DefaultSkill: cfg.Analysis.DefaultSkill,
	}
	analysisHandler.Register(engine)
	refreshHandler := &handler.RefreshHandler{
		Refresh: refreshSvc,
		Store:   store,
		Logger:  logger,
	}
	refreshHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Refresh.Enabled {
		_, err := cronRunner.Add(cfg.Refresh.Schedule, func(ctx context.Context) {
			if _, err := refreshSvc.Refresh(ctx); err != nil {
				logger.Warn("scheduled refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("cron register refresh failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	if cfg.Refresh.Enabled && cfg.Refresh.RunOnBoot {
		go func() {
			if _, err := refreshSvc.Refresh(ctx); err != nil {
				logger.Warn("boot refresh failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
