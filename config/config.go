package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	// Store connection
	Driver     string
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBPath     string // sqlite only

	// Provider
	GoogleAPIKey  string
	GoogleBaseURL string
	AllowedModels []string
	ModelCacheTTL time.Duration

	// Persistence toggle and journal
	SkipDB      bool
	JournalPath string

	Port  string
	Debug bool
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true"
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads the whole configuration surface from the environment.
func Load() *Config {
	allowed := []string{}
	for _, m := range strings.Split(os.Getenv("GOOGLE_ALLOWED_MODELS"), ",") {
		if m = strings.TrimSpace(m); m != "" {
			allowed = append(allowed, m)
		}
	}

	return &Config{
		Driver:     getEnv("DB_DRIVER", DriverPostgres),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getIntEnv("DB_PORT", 5432),
		DBName:     getEnv("DB_NAME", ""),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBPath:     getEnv("DB_PATH", "data/sessions.db"),

		GoogleAPIKey:  getEnv("GOOGLE_API_KEY", ""),
		GoogleBaseURL: getEnv("GOOGLE_API_BASE_URL", ""),
		AllowedModels: allowed,
		ModelCacheTTL: time.Duration(getIntEnv("MODEL_CACHE_TTL", 600)) * time.Second,

		SkipDB:      getBoolEnv("SKIP_DB", false),
		JournalPath: getEnv("JOURNAL_PATH", "data/sessions/session_journal.jsonl"),

		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),
	}
}

// Validate checks the store credentials. Missing credentials are fatal at
// startup unless persistence is skipped entirely.
func (c *Config) Validate() error {
	if c.SkipDB {
		return nil
	}
	switch c.Driver {
	case DriverPostgres:
		var missing []string
		if c.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
		if c.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
		if c.DBPassword == "" {
			missing = append(missing, "DB_PASSWORD")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
		}
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("missing required environment variable: DB_PATH")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Driver)
	}
	return nil
}

// PostgresDSN builds the connection string for the pgx stdlib driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword)
}
