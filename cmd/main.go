package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/config"
	"referral-rewards/internal/database"
	"referral-rewards/internal/handlers"
	"referral-rewards/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	codeLength, err := strconv.Atoi(cfg.App.ReferralCodeLength)
	if err != nil || codeLength < 4 {
		log.Fatalf("Invalid REFERRAL_CODE_LENGTH: %s", cfg.App.ReferralCodeLength)
	}

	minCashout, err := decimal.NewFromString(cfg.App.MinCashoutAmount)
	if err != nil {
		log.Fatalf("Invalid MIN_CASHOUT_AMOUNT: %s", cfg.App.MinCashoutAmount)
	}

	// Initialize services
	db := database.GetDB()
	referralService := services.NewReferralService(db, codeLength)
	rewardService := services.NewRewardService(db)
	paymentService := services.NewPaymentService(db, rewardService)
	cashoutService := services.NewCashoutService(db, minCashout)
	userService := services.NewUserService(db)
	authService := services.NewAuthService(db, referralService, cfg.App.AdminEmail)
	adminService := services.NewAdminService(db)

	// Seed default reward amounts for unconfigured levels
	if err := rewardService.SeedDefaults(); err != nil {
		log.Fatalf("Failed to seed reward config: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService, referralService)
	referralHandler := handlers.NewReferralHandler(referralService, rewardService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, userService)
	cashoutHandler := handlers.NewCashoutHandler(cashoutService, userService)
	adminHandler := handlers.NewAdminHandler(db, adminService, paymentService, cashoutService, rewardService, referralService)

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
		authRoutes.POST("/signup", authHandler.SignUp)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// User endpoints
		userRoutes := api.Group("/user")
		{
			userRoutes.GET("/profile", userHandler.GetProfile)
		}

		// Referral endpoints
		api.GET("/referral/code", referralHandler.GetReferralCode)
		api.GET("/referral/counts", referralHandler.GetReferralCounts)
		api.GET("/referral/level/:level", referralHandler.GetReferralsByLevel)
		api.GET("/referral/earnings", referralHandler.GetEarnings)
		api.GET("/referral/audit", referralHandler.GetReferralAudit)

		// Payment endpoints
		api.POST("/payment/submit", paymentHandler.SubmitPayment)
		api.GET("/payment/status", paymentHandler.GetPaymentStatus)

		// Cashout endpoints
		api.POST("/cashout", cashoutHandler.RequestCashout)
		api.GET("/cashout", cashoutHandler.GetCashouts)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)
		admin.GET("/statistics", adminHandler.GetStatistics)

		// User management
		admin.GET("/users", adminHandler.GetUsers)
		admin.GET("/users/:id", adminHandler.GetUserDetail)
		admin.POST("/users/:id/restrict", adminHandler.RestrictUser)
		admin.POST("/users/:id/promote", adminHandler.PromoteToAdmin)

		// Payment verification
		admin.GET("/payments", adminHandler.GetPendingPayments)
		admin.POST("/payments/:id/verify", adminHandler.VerifyPayment)
		admin.POST("/payments/:id/reject", adminHandler.RejectPayment)

		// Cashout management
		admin.GET("/cashouts", adminHandler.GetCashouts)
		admin.POST("/cashouts/:id/approve", adminHandler.ApproveCashout)
		admin.POST("/cashouts/:id/reject", adminHandler.RejectCashout)
		admin.POST("/cashouts/:id/complete", adminHandler.CompleteCashout)

		// Reward configuration
		admin.GET("/rewards", adminHandler.GetRewardConfig)
		admin.PUT("/rewards", adminHandler.UpdateRewardConfig)
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

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
