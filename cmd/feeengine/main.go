package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/application"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
	eqcache "github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/infrastructure/cache"
	feemq "github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/infrastructure/mq"
	persistence "github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/infrastructure/persistence/mysql"
	httpiface "github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/interfaces/http"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/config"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/db"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/logger"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/metrics"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/middleware"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/feeengine.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Logger
	if err := logger.Init(cfg.Logger); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	slogger := logger.Get()

	// 3. Database
	database, err := db.Init(db.Config{
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if err := persistence.AutoMigrate(database); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// 4. Repositories
	var equations domain.EquationRepository = persistence.NewEquationRepository(database)
	schedules := persistence.NewScheduleRepository(database)
	ledger := persistence.NewLedgerRepository(database)
	transactions := persistence.NewTransactionRepository(database)

	if cfg.Redis.Enabled {
		cached, err := eqcache.New(eqcache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      time.Duration(cfg.Redis.EquationTTL) * time.Second,
		}, equations, slogger)
		if err != nil {
			log.Fatalf("failed to init equation cache: %v", err)
		}
		defer cached.Close()
		equations = cached
	}

	// 5. Event publisher
	var publisher domain.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.Config{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			log.Fatalf("failed to init kafka producer: %v", err)
		}
		defer producer.Close()
		publisher = feemq.NewFeeEventPublisher(producer, cfg.Kafka.FeeEventsTopic)
	}

	// 6. Engine
	mode, err := domain.ParseNetAfterPremiumMode(cfg.Engine.NetAfterPremiumMode)
	if err != nil {
		log.Fatalf("invalid engine config: %v", err)
	}
	calc := domain.NewCalculator(mode)
	m := metrics.New("feeengine")

	executor := application.NewDealEquationExecutor(equations, schedules, calc, m, slogger, cfg.Engine.DefaultTemplate)
	equationSvc := application.NewEquationService(equations, slogger, cfg.Engine.DefaultTemplate)
	transactionSvc := application.NewTransactionService(executor, transactions, ledger, publisher, m, slogger)
	importSvc := application.NewImportService(executor, ledger, m, slogger)

	// 7. HTTP server
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.GinRecoveryMiddleware())
	engine.Use(middleware.GinLoggingMiddleware())
	engine.Use(middleware.GinCORSMiddleware())
	if cfg.HTTP.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(float64(cfg.HTTP.RateLimit), float64(cfg.HTTP.RateLimit))
		engine.Use(middleware.GinRateLimitMiddleware(limiter))
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	handler := httpiface.NewHandler(executor, transactionSvc, equationSvc, importSvc)
	handler.RegisterRoutes(engine.Group("/api/v1"))

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		slogger.Info("server started", "addr", addr, "net_after_premium_mode", mode.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slogger.Error("server shutdown failed", "error", err)
	}
}
