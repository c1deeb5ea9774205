package main

import (
	"log"
	"net/http"
	"time"

	"github.com/bellapacxx/raffle-backend/config"
	"github.com/bellapacxx/raffle-backend/controllers"
	"github.com/bellapacxx/raffle-backend/keeper"
	"github.com/bellapacxx/raffle-backend/raffle"
	"github.com/bellapacxx/raffle-backend/routes"
	"github.com/bellapacxx/raffle-backend/services"
	"github.com/bellapacxx/raffle-backend/utils/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter initializes Gin routes and middleware
func setupRouter() *gin.Engine {
	r := gin.Default()

	// Middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"}, // your frontend origin
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup REST routes
	routes.SetupRoutes(r)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket event stream
	r.GET("/ws", services.HandleWebSocket)

	return r
}

func main() {
	defer logger.Sync()

	// Load env variables
	cfg := config.Load()

	// Connect to database
	db := config.SetupDatabase(cfg)

	// Pick the oracle: external service if configured, in-process otherwise
	var oracle raffle.Oracle
	var local *services.LocalOracle
	if cfg.OracleURL != "" {
		oracle = services.NewOracleClient(cfg.OracleURL, cfg.OracleAPIKey)
	} else {
		log.Println("[INFO] ORACLE_URL not set, using in-process oracle")
		local = services.NewLocalOracle(3 * time.Second)
		oracle = local
	}

	// Wire the raffle engine
	hub := services.InitHub()
	wallet := services.NewWalletPayout(db)
	engine := raffle.New(raffle.Config{
		EntranceFee:      cfg.EntranceFee,
		Interval:         cfg.DrawInterval,
		KeyHash:          cfg.OracleKeyHash,
		CallbackGasLimit: cfg.CallbackGasLimit,
	}, oracle, wallet, hub, services.NewDBRoundStore(db))
	hub.SetEngine(engine)
	if local != nil {
		local.Bind(engine.Fulfill)
	}
	controllers.Engine = engine
	controllers.Wallet = wallet

	// Start the upkeep poller
	k := keeper.New(engine, cfg.KeeperPoll)
	if err := k.Start(); err != nil {
		log.Fatalf("[FATAL] Failed to start keeper: %v", err)
	}
	defer k.Stop()

	// Setup Gin router
	router := setupRouter()

	// Start server
	log.Printf("🚀 Raffle Backend server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}
