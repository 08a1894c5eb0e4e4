package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	StoreDriver  string
	DBUrl        string
	SQLitePath   string
	AWSRegion    string
	LocationsTbl string
	ReviewsTbl   string
	Campus       string

	SessionSecret string
	SessionTTL    time.Duration
	RelayTimeout  time.Duration
	CORSOrigins   []string
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		SQLitePath:    getEnv("SQLITE_PATH", "studyspots.db"),
		AWSRegion:     os.Getenv("AWS_REGION"),
		LocationsTbl:  getEnv("DYNAMO_LOCATIONS_TABLE", "studyspots-locations"),
		ReviewsTbl:    getEnv("DYNAMO_REVIEWS_TABLE", "studyspots-reviews"),
		Campus:        getEnv("CAMPUS", "Boston College"),
		SessionSecret: mustEnv("SESSION_SECRET"),
		SessionTTL:    minutesEnv("SESSION_TTL_MINUTES", 120),
		RelayTimeout:  secondsEnv("RELAY_TIMEOUT_SECONDS", 5),
		CORSOrigins:   listEnv("CORS_ORIGINS", "*"),
	}
	if cfg.StoreDriver == "postgres" {
		cfg.DBUrl = mustEnv("DATABASE_URL")
	}
	return cfg
}

func getEnv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}

func minutesEnv(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(def) * time.Minute
}

func secondsEnv(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}

func listEnv(k, def string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(k, def), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
