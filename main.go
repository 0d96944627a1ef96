package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fintrack_backend/config"
	"fintrack_backend/models"
	"fintrack_backend/routes"
	"fintrack_backend/scheduler"
	"fintrack_backend/services"
	"fintrack_backend/services/cache"
	"fintrack_backend/services/notifier"
	"fintrack_backend/services/providers"
)

// dbInitialized tracks whether database has been successfully initialized.
// The /ready probe reads it from request goroutines while the background
// initializer writes it.
var dbInitialized bool
var dbInitMutex sync.RWMutex

func main() {
	log.Println("==============================================")
	log.Println("  Fintrack Backend API - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Setup health check endpoints FIRST so the platform can detect the
	// service is up; the database is initialized in the background.
	var db *gorm.DB
	setupHealthEndpoints(router, &db)

	// Create HTTP server with timeouts suited to container platforms
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start server immediately so the platform knows we're listening
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize database, services and routes in background
	var jobScheduler *scheduler.Scheduler
	var deliveryLog *services.NotificationLog
	go func() {
		conn, err := config.InitDB(cfg)
		if err != nil {
			log.Printf("ERROR: Database connection failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}
		db = conn

		// Run database migrations
		log.Println("Running database migrations...")
		if err := runMigrations(conn); err != nil {
			log.Printf("ERROR: Migration failed: %v", err)
		} else {
			log.Println("Database migrations completed successfully")
		}

		svc, sched, delivery := buildServices(cfg, conn)
		deliveryLog = delivery

		// Mark database as ready
		dbInitMutex.Lock()
		dbInitialized = true
		dbInitMutex.Unlock()

		// Setup all API routes
		routes.SetupRoutes(router, svc)

		// Start background scheduler
		jobScheduler = sched
		go jobScheduler.Start()

		log.Println("Application fully initialized with database")
	}()

	gracefulShutdown(server, &jobScheduler, &db, &deliveryLog)
}

// runMigrations runs all database migrations
func runMigrations(db *gorm.DB) error {
	if err := models.MigrateUserModels(db); err != nil {
		return err
	}
	if err := models.MigrateAlertModels(db); err != nil {
		return err
	}
	if err := models.MigrateMarketModels(db); err != nil {
		return err
	}
	return models.MigrateBudgetModels(db)
}

// buildServices wires the cache, provider chains, stores and services.
func buildServices(cfg *config.Config, db *gorm.DB) (*routes.Services, *scheduler.Scheduler, *services.NotificationLog) {
	// Redis cache when configured, in-process cache otherwise
	var dataCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("Redis unavailable, using in-memory cache: %v", err)
			dataCache = cache.NewMemoryCache(time.Minute)
		} else {
			dataCache = redisCache
		}
	} else {
		dataCache = cache.NewMemoryCache(time.Minute)
	}

	// Provider chains: primary first, failover second
	rateChain := providers.NewRateChain(
		providers.NewExchangeRateAPI(cfg.ExchangeRateAPIKey),
		providers.NewFixerAPI(cfg.FixerAPIKey),
	)
	alphaVantage := providers.NewAlphaVantage(cfg.AlphaVantageAPIKey)
	quoteChain := providers.NewQuoteChain(
		alphaVantage,
		providers.NewFinnhub(cfg.FinnhubAPIKey),
	)

	rateStore := services.NewRateStore(db)
	priceStore := services.NewStockPriceStore(db)
	alertStore := services.NewAlertStore(db)
	budgetStore := services.NewBudgetStore(db)
	userStore := services.NewUserStore(db)

	sender := notifier.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	delivery := services.NewNotificationLog(cfg.MongoURI)

	currencyService := services.NewCurrencyService(rateChain, dataCache, rateStore)
	stockService := services.NewStockService(quoteChain, alphaVantage, dataCache, priceStore)
	alertService := services.NewAlertService(alertStore, stockService, currencyService, sender, delivery)
	budgetService := services.NewBudgetService(budgetStore, currencyService)
	authService := services.NewAuthService(userStore, cfg.JWTSecret)

	svc := &routes.Services{
		Auth:     authService,
		Alerts:   alertService,
		Currency: currencyService,
		Stocks:   stockService,
		Budgets:  budgetService,
	}
	return svc, scheduler.NewScheduler(alertService, currencyService, stockService), delivery
}

// setupHealthEndpoints sets up liveness and readiness probes
func setupHealthEndpoints(router *gin.Engine, db **gorm.DB) {
	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Fintrack Backend API",
			"version": "1.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - checks if service is ready to receive traffic
	router.GET("/ready", func(c *gin.Context) {
		dbInitMutex.RLock()
		isDBReady := dbInitialized
		dbInitMutex.RUnlock()

		if !isDBReady || *db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not connected",
			})
			return
		}

		sqlDB, err := (*db).DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database ping failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server, jobScheduler **scheduler.Scheduler, db **gorm.DB, deliveryLog **services.NotificationLog) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	// Stop scheduler first so no sweep starts mid-shutdown
	if *jobScheduler != nil {
		(*jobScheduler).Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if *deliveryLog != nil {
		if err := (*deliveryLog).Close(); err != nil {
			log.Printf("Failed to close notification log: %v", err)
		}
	}

	if *db != nil {
		sqlDB, err := (*db).DB()
		if err == nil {
			sqlDB.Close()
			log.Println("Database connection closed")
		}
	}

	log.Println("Server shutdown completed")
}
