// Package config holds the server's immutable tuning parameters.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// GameSettings are the per-room tunables that govern grid generation, turn
// pacing, and pass eligibility. A room snapshots these at creation time.
type GameSettings struct {
	GridSize         int `json:"gridSize"`
	MinesCount       int `json:"minesCount"`
	TurnTimeLimit    int `json:"turnTimeLimit"` // seconds
	MinRevealsToPass int `json:"minRevealsToPass"`
}

// ServerConfig is the full set of environment-derived settings.
type ServerConfig struct {
	Host    string
	Port    int
	DataDir string

	DefaultSettings GameSettings

	RoomCodeLength  int
	RoomIdleTimeout time.Duration

	EnableCORS bool

	AdminUsername  string
	AdminPassword  string
	AdminJWTSecret string
}

// DefaultServerConfig returns the documented defaults from spec.md §6.4.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:    "0.0.0.0",
		Port:    3000,
		DataDir: "data",
		DefaultSettings: GameSettings{
			GridSize:         10,
			MinesCount:       18,
			TurnTimeLimit:    30,
			MinRevealsToPass: 1,
		},
		RoomCodeLength:  6,
		RoomIdleTimeout: 30 * time.Minute,
		EnableCORS:      true,
		AdminUsername:   "admin",
		AdminPassword:   "admin",
		AdminJWTSecret:  "change-me",
	}
}

// Load reads configuration from the environment, falling back to defaults
// for anything unset. A .env file is loaded first on a best-effort basis;
// its absence is not an error.
func Load() *ServerConfig {
	_ = godotenv.Load()

	cfg := DefaultServerConfig()

	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if v := os.Getenv("GRID_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultSettings.GridSize = n
		}
	}
	if v := os.Getenv("DEFAULT_MINES_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultSettings.MinesCount = n
		}
	}
	if v := os.Getenv("TURN_TIME_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultSettings.TurnTimeLimit = n
		}
	}
	if v := os.Getenv("MIN_REVEALS_TO_PASS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultSettings.MinRevealsToPass = n
		}
	}
	if v := os.Getenv("ROOM_CODE_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RoomCodeLength = n
		}
	}
	if v := os.Getenv("ROOM_IDLE_TIMEOUT"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.RoomIdleTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv("ENABLE_CORS"); v == "false" {
		cfg.EnableCORS = false
	}

	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		cfg.AdminUsername = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.AdminJWTSecret = v
	}

	return cfg
}
