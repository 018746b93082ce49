package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yukikurage/team-allocation-api/internal/constants"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Team     TeamConfig
	Client   ClientConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	RosterTTL time.Duration
	Enabled   bool
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type TeamConfig struct {
	MaxTeamSize int
	MaxManagers int
}

// ClientConfig configures cmd/allocctl.
type ClientConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			GinMode:        getEnv("GIN_MODE", "debug"),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "allocuser"),
			Password: getEnv("DB_PASSWORD", "allocpassword"),
			Name:     getEnv("DB_NAME", "team_allocation"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			RosterTTL: getEnvDuration("ROSTER_CACHE_TTL", 5*time.Minute),
			Enabled:   getEnvBool("REDIS_ENABLED", false),
		},
		Team: TeamConfig{
			MaxTeamSize: getEnvInt("MAX_TEAM_SIZE", constants.DefaultMaxTeamSize),
			MaxManagers: getEnvInt("MAX_PROJECT_MANAGERS", constants.DefaultMaxManagers),
		},
		Client: ClientConfig{
			APIBaseURL: getEnv("ALLOC_API_URL", "http://localhost:8080/api"),
			Timeout:    getEnvDuration("ALLOC_API_TIMEOUT", 10*time.Second),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.Database.Driver != "sqlite" && c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.Team.MaxTeamSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_TEAM_SIZE must be positive, got %d", c.Team.MaxTeamSize))
	}
	if c.Team.MaxManagers < 0 {
		errs = append(errs, fmt.Errorf("MAX_PROJECT_MANAGERS must not be negative, got %d", c.Team.MaxManagers))
	}
	if c.Redis.RosterTTL <= 0 {
		errs = append(errs, errors.New("ROSTER_CACHE_TTL must be positive"))
	}
	if c.Client.APIBaseURL == "" {
		errs = append(errs, errors.New("ALLOC_API_URL is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
