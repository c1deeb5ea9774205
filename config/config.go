package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every deploy-time parameter. Loaded once at startup and
// immutable afterwards; the draw parameters never change mid-round.
type Config struct {
	Port        string
	DatabaseURL string

	EntranceFee  float64
	DrawInterval time.Duration
	KeeperPoll   time.Duration

	OracleURL        string
	OracleAPIKey     string
	OracleKeyHash    string
	CallbackGasLimit uint32
}

// Load reads .env and environment variables
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "4000"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		EntranceFee:      getEnvFloat("ENTRANCE_FEE", 0.01),
		DrawInterval:     time.Duration(getEnvInt("DRAW_INTERVAL_SEC", 30)) * time.Second,
		KeeperPoll:       time.Duration(getEnvInt("KEEPER_POLL_SEC", 5)) * time.Second,
		OracleURL:        os.Getenv("ORACLE_URL"),
		OracleAPIKey:     os.Getenv("ORACLE_API_KEY"),
		OracleKeyHash:    getEnv("ORACLE_KEY_HASH", "default"),
		CallbackGasLimit: uint32(getEnvInt("ORACLE_CALLBACK_GAS_LIMIT", 500000)),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("[FATAL] DATABASE_URL is required in .env or environment")
	}
	if cfg.EntranceFee <= 0 {
		log.Fatal("[FATAL] ENTRANCE_FEE must be positive")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("[FATAL] %s must be an integer, got %q", key, v)
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("[FATAL] %s must be a number, got %q", key, v)
	}
	return f
}
