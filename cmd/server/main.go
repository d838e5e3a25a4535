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

	financeapp "github.com/poscore/backend/internal/application/finance"
	inventoryapp "github.com/poscore/backend/internal/application/inventory"
	salesapp "github.com/poscore/backend/internal/application/sales"
	"github.com/poscore/backend/internal/infrastructure/config"
	"github.com/poscore/backend/internal/infrastructure/event"
	"github.com/poscore/backend/internal/infrastructure/logger"
	"github.com/poscore/backend/internal/infrastructure/persistence"
	"github.com/poscore/backend/internal/interfaces/http/handler"
	"github.com/poscore/backend/internal/interfaces/http/middleware"
	"github.com/poscore/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting POS Core Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	batchRepo := persistence.NewGormStockBatchRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerAccountRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus with the audit trail handler
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	// Application services
	stockService := inventoryapp.NewStockService(batchRepo, cfg.Inventory.ExpiryTolerance)
	saleService := salesapp.NewSaleService(txScope, saleRepo)
	ledgerService := financeapp.NewLedgerService(ledgerRepo)

	stockService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)
	ledgerService.SetEventPublisher(eventBus)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(cfg.HTTP.CORSAllowOrigins))

	r := router.NewRouter(engine)
	r.Register(handler.NewSystemHandler(db, version))
	r.Register(handler.NewStockHandler(stockService))
	r.Register(handler.NewSalesHandler(saleService))
	r.Register(handler.NewLedgerHandler(ledgerService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
