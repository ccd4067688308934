package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// リモートサービスの認証情報
	SegaID       string
	SegaPassword string
	CookiePath   string

	// 曲メタデータ
	SongDataPath string

	// Sync
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	FetchMaxSize  int64
	RetryAttempts int

	// メンテナンス時間帯（ローカル時、[Start, End)）
	MaintenanceStartHour int
	MaintenanceEndHour   int

	// Rate Limit
	RateLimitGeneral int

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SegaID = os.Getenv("SEGA_ID")
	if cfg.SegaID == "" {
		missing = append(missing, "SEGA_ID")
	}

	cfg.SegaPassword = os.Getenv("SEGA_PASSWORD")
	if cfg.SegaPassword == "" {
		missing = append(missing, "SEGA_PASSWORD")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.CookiePath = getEnvString("COOKIE_PATH", "data/cookies.json")
	cfg.SongDataPath = getEnvString("SONGDATA_PATH", "data/songdata.json")
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", 10*time.Minute)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 30*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.RetryAttempts = getEnvInt("RETRY_ATTEMPTS", 3)
	cfg.MaintenanceStartHour = getEnvInt("MAINTENANCE_START_HOUR", 4)
	cfg.MaintenanceEndHour = getEnvInt("MAINTENANCE_END_HOUR", 7)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	if cfg.MaintenanceStartHour < 0 || cfg.MaintenanceStartHour > 23 ||
		cfg.MaintenanceEndHour < 0 || cfg.MaintenanceEndHour > 24 {
		return nil, fmt.Errorf("invalid maintenance window: start=%d end=%d",
			cfg.MaintenanceStartHour, cfg.MaintenanceEndHour)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
