package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/mileage-skill/internal/domain"
)

// Session store backends.
const (
	SessionStoreMemory   = "memory"
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Sheets   SheetsConfig
	Callback CallbackConfig
	Session  SessionConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                   string
	Host                   string
	Port                   string
	Version                string
	ShutdownTimeoutSeconds int
}

// SheetsConfig locates the roster and points spreadsheets.
type SheetsConfig struct {
	ServiceAccountKey   string
	RosterSpreadsheetID string
	RosterRange         string
	PointsSpreadsheetID string
	PointsRange         string
	Roster              domain.RosterLayout
	Points              domain.PointsLayout
}

// CallbackConfig controls deferred reply delivery.
type CallbackConfig struct {
	TimeoutSeconds int
}

// SessionConfig selects the session backend.
type SessionConfig struct {
	Store      string
	TTLMinutes int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN           string
	MaxConns      int32
	MinConns      int32
	RunMigrations bool
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	roster, err := loadRosterLayout()
	if err != nil {
		return nil, err
	}
	points, err := loadPointsLayout()
	if err != nil {
		return nil, err
	}

	store := strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory))
	switch store {
	case SessionStoreMemory, SessionStoreRedis, SessionStorePostgres:
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE %q", store)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                   getEnv("APP_NAME", "mileage-skill"),
			Host:                   getEnv("APP_HOST", "0.0.0.0"),
			Port:                   getEnv("PORT", "3000"),
			Version:                getEnv("APP_VERSION", "dev"),
			ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 15),
		},
		Sheets: SheetsConfig{
			ServiceAccountKey:   os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY"),
			RosterSpreadsheetID: getEnv("ROSTER_SPREADSHEET_ID", "1F_pq-dE_oAi_nJRThSjP5-QA-c8mmzJ5hA5mSbJXH60"),
			RosterRange:         getEnv("ROSTER_RANGE", "'시트1'!A4:S200"),
			PointsSpreadsheetID: getEnv("POINTS_SPREADSHEET_ID", "1ujB1ZLjmXZXmkQREINW7YojdoXEYBN7gUlXCVTNUswM"),
			PointsRange:         getEnv("POINTS_RANGE", "'마일링지'!A2:AF200"),
			Roster:              roster,
			Points:              points,
		},
		Callback: CallbackConfig{
			TimeoutSeconds: getEnvAsInt("CALLBACK_TIMEOUT_SECONDS", 10),
		},
		Session: SessionConfig{
			Store:      store,
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 0),
		},
		Postgres: PostgresConfig{
			DSN:           os.Getenv("POSTGRES_DSN"),
			MaxConns:      int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:      int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations: getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Session.Store == SessionStorePostgres && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("SESSION_STORE=postgres requires POSTGRES_DSN")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// ShutdownTimeout bounds how long shutdown waits for in-flight callbacks.
func (a AppConfig) ShutdownTimeout() time.Duration {
	if a.ShutdownTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.ShutdownTimeoutSeconds) * time.Second
}

// Timeout returns the callback POST timeout, 10s when unset.
func (c CallbackConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL returns the session lifetime. Zero means sessions never expire.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

func loadRosterLayout() (domain.RosterLayout, error) {
	var (
		layout domain.RosterLayout
		err    error
	)
	if layout.MemberName, err = getEnvAsColumn("ROSTER_MEMBER_NAME_COLUMN", "L"); err != nil {
		return layout, err
	}
	if layout.MemberPhone, err = getEnvAsColumn("ROSTER_MEMBER_PHONE_COLUMN", "R"); err != nil {
		return layout, err
	}
	if layout.StaffName, err = getEnvAsColumn("ROSTER_STAFF_NAME_COLUMN", "C"); err != nil {
		return layout, err
	}
	if layout.StaffPhone, err = getEnvAsColumn("ROSTER_STAFF_PHONE_COLUMN", "I"); err != nil {
		return layout, err
	}
	return layout, nil
}

func loadPointsLayout() (domain.PointsLayout, error) {
	var (
		layout domain.PointsLayout
		err    error
	)
	if layout.Name, err = getEnvAsColumn("POINTS_NAME_COLUMN", "B"); err != nil {
		return layout, err
	}
	if layout.Total, err = getEnvAsColumn("POINTS_TOTAL_COLUMN", "AF"); err != nil {
		return layout, err
	}
	return layout, nil
}

// ColumnIndex converts a spreadsheet column letter (A, B, ..., Z, AA, ...)
// into a zero-based offset.
func ColumnIndex(letters string) (int, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return 0, fmt.Errorf("empty column")
	}
	idx := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column %q", letters)
		}
		idx = idx*26 + int(r-'A'+1)
	}
	return idx - 1, nil
}

func getEnvAsColumn(key, fallback string) (int, error) {
	idx, err := ColumnIndex(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return idx, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
