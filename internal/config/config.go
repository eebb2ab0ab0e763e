// apps/go-server/internal/config/config.go
//
// Environment-driven settings for the server.
// Every value has a development default so the server runs with no .env;
// production deployments are expected to set at least JWT_SECRET,
// BAG_SALT and CLIENT_ORIGIN.
//
// Environment variables:
//   PORT                     HTTP port (5175)
//   LOG_LEVEL                zerolog level (info)
//   DB_PATH                  SQLite file (./data/scrabble.db)
//   JWT_SECRET               HS256 signing key
//   JWT_EXPIRES_DAYS         token lifetime in days (14)
//   COOKIE_NAME              auth cookie name (scrabble_token)
//   CLIENT_ORIGIN            allowed CORS / WebSocket origin (http://localhost:5173)
//   NODE_ENV                 "production" enables secure cookies
//   BAG_SALT                 secret mixed into every tile bag seed
//   TURN_DURATION_SECONDS    default seconds per turn (120)
//   WAITING_TIMEOUT_MINUTES  idle WAITING games are terminated after this (10)
//   LONG_POLL_SECONDS        max hold time of a long-poll request (25)
//   WORDS_DIR                directory with <lang>.txt word lists

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	LogLevel       string
	DBPath         string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	Production     bool
	BagSalt        string
	TurnDuration   int
	WaitingTimeout time.Duration
	LongPoll       time.Duration
	WordsDir       string
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:           getEnv("PORT", "5175"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBPath:         getEnv("DB_PATH", "./data/scrabble.db"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: envInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "scrabble_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:     os.Getenv("NODE_ENV") == "production",
		BagSalt:        getEnv("BAG_SALT", "local_dev_salt"),
		TurnDuration:   envInt("TURN_DURATION_SECONDS", 120),
		WaitingTimeout: time.Duration(envInt("WAITING_TIMEOUT_MINUTES", 10)) * time.Minute,
		LongPoll:       time.Duration(envInt("LONG_POLL_SECONDS", 25)) * time.Second,
		WordsDir:       os.Getenv("WORDS_DIR"),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt parses k as an integer, falling back to def when unset or invalid.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
