package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"bicho-platform/internal/auth"
	"bicho-platform/internal/config"
	"bicho-platform/internal/database"
	"bicho-platform/internal/gateway"
	"bicho-platform/internal/handlers"
	"bicho-platform/internal/jobs"
	"bicho-platform/internal/odds"
	"bicho-platform/internal/repository"
	"bicho-platform/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database (schema is managed by cmd/migrate)
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := database.GetDB()

	// Payment gateway client
	pixGateway := gateway.NewPixClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey)

	// Initialize services
	accountRepo := repository.NewAccountRepository()
	bonusService := services.NewBonusService(db, cfg.Bonus)
	accountService := services.NewAccountService(db, bonusService)
	limits := odds.Limits{MinStake: cfg.Betting.MinStake, MaxPayout: cfg.Betting.MaxPayout}
	wagerService := services.NewWagerService(db, accountRepo, bonusService, limits, cfg.Betting.BonusAutoFallback)
	drawService := services.NewDrawService(db)
	settlementService := services.NewSettlementService(db, accountRepo)
	paymentService := services.NewPaymentService(db, accountRepo, bonusService, pixGateway, cfg.Gateway.MinDeposit)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService)
	accountHandler := handlers.NewAccountHandler(accountService)
	wagerHandler := handlers.NewWagerHandler(wagerService)
	drawHandler := handlers.NewDrawHandler(drawService, settlementService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg.Gateway.WebhookSecret)

	// Start payment reconciliation job
	poller := jobs.NewPaymentPoller(paymentService, settlementService, bonusService, cfg.Poller.Interval, cfg.Poller.StaleAfter)
	go poller.Start()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.Me)
	}

	// Public catalog and draw routes
	router.GET("/api/animals", wagerHandler.GetAnimals)
	router.GET("/api/bet-types", wagerHandler.GetBetTypes)
	router.GET("/api/draws", drawHandler.ListDraws)
	router.GET("/api/draws/:id", drawHandler.GetDraw)

	// Gateway webhook (authenticated by signature, not JWT)
	router.POST("/api/webhooks/gateway", paymentHandler.Webhook)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/balance", accountHandler.GetBalance)

		api.POST("/wagers", wagerHandler.PlaceWager)
		api.GET("/wagers", wagerHandler.GetMyWagers)
		api.GET("/wagers/:id", wagerHandler.GetWager)

		api.POST("/deposits", paymentHandler.CreateDeposit)
		api.POST("/withdrawals", paymentHandler.RequestWithdrawal)
		api.GET("/transactions", paymentHandler.GetMyTransactions)
		api.GET("/transactions/:id", paymentHandler.GetTransaction)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.AdminMiddleware())
	{
		admin.POST("/draws", drawHandler.ScheduleDraw)
		admin.POST("/draws/:id/results", drawHandler.SubmitResults)

		admin.GET("/withdrawals", paymentHandler.ListWithdrawals)
		admin.POST("/withdrawals/:id/approve", paymentHandler.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", paymentHandler.RejectWithdrawal)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	poller.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
