package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	// Timezone the calendar math runs in.
	Timezone *time.Location

	// Anti-flapping policy for country switches.
	MinSwitchMeters float64
	ConfirmSamples  int
	ConfirmWindow   time.Duration

	// Quiet period before the summary snapshot is recomputed.
	RefreshDebounce time.Duration
}

// Load reads configuration from environment variables with defaults
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/country-days.db"
	}

	loc := time.Local
	if name := os.Getenv("TIMEZONE"); name != "" {
		l, err := time.LoadLocation(name)
		if err != nil {
			log.Printf("Warning: unknown TIMEZONE %q, using local time", name)
		} else {
			loc = l
		}
	}

	return &Config{
		Port:            port,
		DBPath:          dbPath,
		JWTSecret:       os.Getenv("JWT_SECRET"),
		Timezone:        loc,
		MinSwitchMeters: envFloat("MIN_SWITCH_METERS", 0),
		ConfirmSamples:  envInt("CONFIRM_SAMPLES", 1),
		ConfirmWindow:   time.Duration(envInt("CONFIRM_WINDOW_MINUTES", 60)) * time.Minute,
		RefreshDebounce: time.Duration(envInt("REFRESH_DEBOUNCE_MS", 100)) * time.Millisecond,
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s %q, using %d", key, v, def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Warning: invalid %s %q, using %v", key, v, def)
		return def
	}
	return f
}
