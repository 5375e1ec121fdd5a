package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raffle-platform/config"
	"raffle-platform/internal/accrual"
	"raffle-platform/internal/auth"
	"raffle-platform/internal/cache"
	"raffle-platform/internal/database"
	"raffle-platform/internal/draw"
	"raffle-platform/internal/handler"
	"raffle-platform/internal/middleware"
	"raffle-platform/internal/queue"
	"raffle-platform/internal/repository"
	"raffle-platform/internal/service"
	"raffle-platform/internal/worker"
	"raffle-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()
	log := logger.WithComponent("main")

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	campaignRepository := repository.NewCampaignRepository(pool)
	ticketRepository := repository.NewTicketRepository(pool)
	purchaseRepository := repository.NewPurchaseRepository(pool)
	winnerRepository := repository.NewWinnerRepository(pool)
	rouletteRepository := repository.NewRouletteRepository(pool)

	// Services
	inventoryService := service.NewInventoryService(pool, campaignRepository, ticketRepository, purchaseRepository, cfg.Raffle.AdminReservationMinutes)
	drawService := service.NewDrawService(pool, campaignRepository, ticketRepository, winnerRepository, cfg.Raffle.DrawSalt)
	maintenanceService := service.NewMaintenanceService(inventoryService, drawService, cache.NewRedisSweepGate(rdb, cfg.Sweep.GateInterval))
	campaignService := service.NewCampaignService(pool, campaignRepository, ticketRepository, winnerRepository, maintenanceService)
	rouletteService := service.NewRouletteService(pool, purchaseRepository, rouletteRepository, accrual.Rule{
		Threshold:         cfg.Raffle.SpendThreshold,
		SpinsPerThreshold: cfg.Raffle.SpinsPerThreshold,
	}, draw.NewCryptoSource())
	purchaseService := service.NewPurchaseService(pool, campaignRepository, ticketRepository, purchaseRepository, inventoryService, rouletteService, cfg.Raffle.ReservationMinutes)

	// Settlement queue
	var settlementQueue queue.SettlementQueue
	switch cfg.Queue.Backend {
	case "sync":
	case "redis":
		hostname, _ := os.Hostname()
		settlementQueue, err = queue.NewRedisStreamSettlementQueue(ctx, rdb, hostname, &queue.RedisStreamSettlementQueueConfig{
			ClaimMinIdleTime:   cfg.Queue.ClaimMinIdleTime,
			MaxRetryCount:      cfg.Queue.MaxRetryCount,
			ReadGroupBlockTime: cfg.Queue.ReadGroupBlockTime,
		})
		if err != nil {
			log.Fatal("Failed to initialize settlement queue", zap.Error(err))
		}
	default:
		settlementQueue = queue.NewSettlementQueue(cfg.Queue.BufferSize, cfg.Queue.RetryDelay)
	}

	// Workers
	if settlementQueue != nil {
		if err := worker.NewSettlementWorker(purchaseService, settlementQueue).Start(ctx); err != nil {
			log.Fatal("Failed to start settlement worker", zap.Error(err))
		}
	}
	if err := worker.NewSweepWorker(maintenanceService, cfg.Sweep.BackgroundInterval).Start(ctx); err != nil {
		log.Fatal("Failed to start sweep worker", zap.Error(err))
	}

	// Router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	routes := handler.NewRoutes(router, middleware.RequireAuth(auth.NewJWTManager(cfg.Auth.JWTSecret, 0)))
	handler.NewCampaignHandler(campaignService, inventoryService).RegisterRoutes(routes)
	handler.NewPurchaseHandler(purchaseService).RegisterRoutes(routes)
	handler.NewWebhookHandler(purchaseService, settlementQueue, cfg.Auth.WebhookSecret).RegisterRoutes(routes)
	handler.NewDrawHandler(drawService, maintenanceService).RegisterRoutes(routes)
	handler.NewRouletteHandler(rouletteService).RegisterRoutes(routes)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", zap.String("addr", srv.Addr), zap.String("queue", cfg.Queue.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}
