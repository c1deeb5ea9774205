package routes

import (
	"github.com/bellapacxx/raffle-backend/controllers"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// ----------------------
	// User routes
	// ----------------------
	api.POST("/users", controllers.RegisterUser)        // Register user
	api.GET("/users/:telegram_id", controllers.GetUser) // Get user by Telegram ID

	// ----------------------
	// Raffle routes
	// ----------------------
	api.POST("/raffle/enter", controllers.EnterRaffle)           // Enter current round
	api.GET("/raffle", controllers.RaffleStatus)                 // Live round snapshot
	api.GET("/raffle/entrants/:index", controllers.GetEntrant)   // Entrant at index
	api.GET("/raffle/winners", controllers.ListWinners)          // Recent winners
	api.POST("/oracle/fulfill", controllers.FulfillRandomWords)  // Oracle fulfillment webhook

	// ----------------------
	// Transaction routes
	// ----------------------
	api.POST("/deposit", controllers.Deposit)   // Deposit funds
	api.POST("/withdraw", controllers.Withdraw) // Withdraw funds
}
