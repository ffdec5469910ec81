package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration. Values come from an optional YAML
// file, then environment variables (including a .env file) override it.
type Config struct {
	AppEnv              string `yaml:"app_env"`
	HTTPAddr            string `yaml:"http_addr"`
	DBDSN               string `yaml:"db_dsn"`
	TemplatesDir        string `yaml:"templates_dir"`
	StaticDir           string `yaml:"static_dir"`
	SessionTTLHours     int    `yaml:"session_ttl_hours"`
	DBMaxOpenConns      int    `yaml:"db_max_open_conns"`
	DBMaxIdleConns      int    `yaml:"db_max_idle_conns"`
	DBConnMaxLifeMins   int    `yaml:"db_conn_max_lifetime_minutes"`
	CSRFEnforced        bool   `yaml:"csrf_enforced"`
	AuthRateLimitPerMin int    `yaml:"auth_rate_limit_per_minute"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
}

func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:              "development",
		HTTPAddr:            ":8080",
		DBDSN:               "quizhub.db",
		TemplatesDir:        "web/templates",
		StaticDir:           "web/static",
		SessionTTLHours:     24,
		DBMaxOpenConns:      25,
		DBMaxIdleConns:      25,
		DBConnMaxLifeMins:   30,
		CSRFEnforced:        false,
		AuthRateLimitPerMin: 60,
	}

	if path := envOrDefault("CONFIG_FILE", "config.yaml"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &cfg)
		}
	}

	cfg.AppEnv = envOrDefault("APP_ENV", cfg.AppEnv)
	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DBDSN = envOrDefault("DB_DSN", cfg.DBDSN)
	cfg.TemplatesDir = envOrDefault("TEMPLATES_DIR", cfg.TemplatesDir)
	cfg.StaticDir = envOrDefault("STATIC_DIR", cfg.StaticDir)
	cfg.SessionTTLHours = intOrDefault("SESSION_TTL_HOURS", cfg.SessionTTLHours)
	cfg.DBMaxOpenConns = intOrDefault("DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns)
	cfg.DBMaxIdleConns = intOrDefault("DB_MAX_IDLE_CONNS", cfg.DBMaxIdleConns)
	cfg.DBConnMaxLifeMins = intOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", cfg.DBConnMaxLifeMins)
	cfg.CSRFEnforced = boolOrDefault("CSRF_ENFORCED", cfg.CSRFEnforced)
	cfg.AuthRateLimitPerMin = intOrDefault("AUTH_RATE_LIMIT_PER_MINUTE", cfg.AuthRateLimitPerMin)
	cfg.AdminUsername = envOrDefault("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminPassword = envOrDefault("ADMIN_PASSWORD", cfg.AdminPassword)

	return cfg
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsToInt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

func intOrDefault(key string, fallback int) int {
	v := stringsToInt(os.Getenv(key))
	if v <= 0 {
		return fallback
	}
	return v
}

func boolOrDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
