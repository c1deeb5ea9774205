package main

import (
	"log"

	"github.com/bellapacxx/raffle-backend/config"
)

func main() {
	cfg := config.Load()
	db := config.SetupDatabase(cfg) // connects + migrates
	_ = db
	log.Println("✅ Database migration completed successfully")
}
