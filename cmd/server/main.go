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
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"cicerp/internal/approval"
	"cicerp/internal/auth"
	"cicerp/internal/cache"
	"cicerp/internal/config"
	cronrunner "cicerp/internal/cron"
	"cicerp/internal/db"
	"cicerp/internal/handler"
	"cicerp/internal/logger"
	gormrepository "cicerp/internal/repository/gorm"
	"cicerp/internal/service"
	"cicerp/internal/workflow"

	_ "cicerp/docs"
)

func main() {
	cfgPath := os.Getenv("CIC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CIC_ENV_ONLY"); envOnlyRaw != "" {
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

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	redisStore := cache.NewRedisStore(cfg.Redis)
	defer redisStore.Close()

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}

	vatRate := decimal.NewFromFloat(cfg.Finance.VATRate)
	contractSvc := &service.ContractService{
		Repo:    store,
		Logger:  logger,
		VATRate: vatRate,
	}
	paymentSvc := &service.PaymentService{Repo: store, Logger: logger}
	dashboardSvc := &service.DashboardService{
		Repo:     store,
		Cache:    redisStore,
		Logger:   logger,
		CacheTTL: cfg.Redis.CacheTTL,
	}
	draftSvc := &service.DraftCacheService{Cache: redisStore, TTL: cfg.Draft.TTL}

	policy := approval.New(approval.Config{
		AutoSkipEnabled: cfg.Approval.AutoSkipEnabled,
		AutoSkipMargin:  decimal.NewFromFloat(cfg.Approval.AutoSkipMarginThreshold),
	})
	flowEngine := workflow.NewEngine(store, store, store, policy, logger)
	flowEngine.VATRate = vatRate

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(auth.RequestIDMiddleware())

	jwt := auth.JWT{
		Secret:   []byte(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
	}
	engine.Use(auth.Middleware(jwt, cfg.Auth.Disabled))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Cache: redisStore}
	healthHandler.Register(engine)
	customerHandler := &handler.CustomerHandler{Repo: store}
	customerHandler.Register(engine)
	productHandler := &handler.ProductHandler{Repo: store}
	productHandler.Register(engine)
	contractHandler := &handler.ContractHandler{
		Repo:      store,
		Contracts: contractSvc,
		Drafts:    draftSvc,
		Settings:  settingsSvc,
	}
	contractHandler.Register(engine)
	planHandler := &handler.PlanHandler{Repo: store, Engine: flowEngine}
	planHandler.Register(engine)
	paymentHandler := &handler.PaymentHandler{Repo: store, Payments: paymentSvc}
	paymentHandler.Register(engine)
	dashboardHandler := &handler.DashboardHandler{Repo: store, Dashboard: dashboardSvc}
	dashboardHandler.Register(engine)
	settingsHandler := &handler.SystemSettingsHandler{Repo: store, Settings: settingsSvc}
	settingsHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(apiOverview))
	})

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add("overdue-scan", cfg.Cron.OverdueScan, func(ctx context.Context) {
			if !settingsSvc.IsEnabled(ctx, service.FeatureOverdueScan, true) {
				return
			}
			flipped, err := paymentSvc.ScanOverdue(ctx, time.Now().UTC())
			if err != nil {
				logger.Warn("cron overdue scan failed", zap.Error(err))
				return
			}
			if flipped > 0 {
				logger.Info("cron overdue scan ok", zap.Int64("flipped", flipped))
			}
		})
		if err != nil {
			logger.Warn("cron register overdue scan failed", zap.Error(err))
		}

		_, err = cronRunner.Add("kpi-snapshot", cfg.Cron.KPISnapshot, func(ctx context.Context) {
			if !settingsSvc.IsEnabled(ctx, service.FeatureKPISnapshot, true) {
				return
			}
			if err := dashboardSvc.SnapshotDaily(ctx, time.Now().UTC()); err != nil {
				logger.Warn("cron kpi snapshot failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register kpi snapshot failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

const apiOverview = `# CIC ERP API

Interactive documentation: /swagger/index.html

Main surfaces:
- /api/v1/customers, /api/v1/products — master data
- /api/v1/contracts — contracts, line items, execution costs, totals, drafts
- /api/v1/plans — business plan approval workflow (submit/approve/reject)
- /api/v1/payments — planned payments and mark-paid
- /api/v1/dashboard — KPI summary and daily snapshots
- /api/v1/system-settings — feature switches (admin)

All /api routes require a bearer token unless auth is disabled in config.
`

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Request-ID,X-Actor-ID,X-Actor-Role")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
