package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.toml"

type Config struct {
	App      AppConfig      `toml:"app" yaml:"app"`
	Database DatabaseConfig `toml:"database" yaml:"database"`
	Session  SessionConfig  `toml:"session" yaml:"session"`
	Redis    RedisConfig    `toml:"redis" yaml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq" yaml:"rabbitmq"`
}

type AppConfig struct {
	Name      string `toml:"name" yaml:"name"`
	Env       string `toml:"env" yaml:"env"`
	Host      string `toml:"host" yaml:"host"`
	Port      int    `toml:"port" yaml:"port"`
	GinMode   string `toml:"gin_mode" yaml:"gin_mode"`
	StaticDir string `toml:"static_dir" yaml:"static_dir"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
}

type DatabaseConfig struct {
	Driver     string      `toml:"driver" yaml:"driver"`
	SQLitePath string      `toml:"sqlite_path" yaml:"sqlite_path"`
	MySQL      MySQLConfig `toml:"mysql" yaml:"mysql"`
}

type MySQLConfig struct {
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
	DB       string `toml:"db" yaml:"db"`
	Params   string `toml:"params" yaml:"params"`
}

type SessionConfig struct {
	Store        string `toml:"store" yaml:"store"`
	CookieName   string `toml:"cookie_name" yaml:"cookie_name"`
	Secret       string `toml:"secret" yaml:"secret"`
	TTLMinutes   int    `toml:"ttl_minutes" yaml:"ttl_minutes"`
	SecureCookie bool   `toml:"secure_cookie" yaml:"secure_cookie"`
	SameSite     string `toml:"same_site" yaml:"same_site"`
}

// RedisConfig is read only when session.store is "redis".
type RedisConfig struct {
	Addr         string `toml:"addr" yaml:"addr"`
	Password     string `toml:"password" yaml:"password"`
	DB           int    `toml:"db" yaml:"db"`
	PoolSize     int    `toml:"pool_size" yaml:"pool_size"`
	MinIdleConns int    `toml:"min_idle_conns" yaml:"min_idle_conns"`
}

// RabbitMQConfig enables the item event feed when URL is set.
type RabbitMQConfig struct {
	URL            string `toml:"url" yaml:"url"`
	ItemEventQueue string `toml:"item_event_queue" yaml:"item_event_queue"`
}

// Load reads path, or CONFIG_FILE, or DefaultPath. A missing file is not an
// error: defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = getEnv("CONFIG_FILE", DefaultPath)
	}
	if _, err := os.Stat(path); err == nil {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file failed: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("decode config file failed: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("decode config file failed: %w", err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("database.driver must be sqlite or mysql, got %q", c.Database.Driver)
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.store must be memory or redis, got %q", c.Session.Store)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret must not be empty")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name must not be empty")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

func (c *Config) MySQLDSN() string {
	m := c.Database.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		m.User,
		m.Password,
		m.Host,
		m.Port,
		m.DB,
		m.Params,
	)
}

func (c *Config) EventsEnabled() bool {
	return c.RabbitMQ.URL != ""
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:      "taskbox",
			Env:       "dev",
			Host:      "0.0.0.0",
			Port:      8080,
			GinMode:   "debug",
			StaticDir: "web/static",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/app.sqlite",
			MySQL: MySQLConfig{
				Host:     "127.0.0.1",
				Port:     3306,
				User:     "root",
				Password: "",
				DB:       "taskbox",
				Params:   "parseTime=true&loc=UTC&charset=utf8mb4",
			},
		},
		Session: SessionConfig{
			Store:        "memory",
			CookieName:   "taskbox_session",
			Secret:       "change-me-in-production",
			TTLMinutes:   24 * 60,
			SecureCookie: false,
			SameSite:     "lax",
		},
		Redis: RedisConfig{
			Addr:         "127.0.0.1:6379",
			Password:     "",
			DB:           0,
			PoolSize:     20,
			MinIdleConns: 2,
		},
		RabbitMQ: RabbitMQConfig{
			URL:            "",
			ItemEventQueue: "taskbox.item.events",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.StaticDir = getEnv("APP_STATIC_DIR", cfg.App.StaticDir)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = getEnv("LOG_FORMAT", cfg.App.LogFormat)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Database.MySQL.Host = getEnv("MYSQL_HOST", cfg.Database.MySQL.Host)
	cfg.Database.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.Database.MySQL.Port)
	cfg.Database.MySQL.User = getEnv("MYSQL_USER", cfg.Database.MySQL.User)
	cfg.Database.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Database.MySQL.Password)
	cfg.Database.MySQL.DB = getEnv("MYSQL_DB", cfg.Database.MySQL.DB)
	cfg.Database.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.Database.MySQL.Params)

	cfg.Session.Store = getEnv("SESSION_STORE", cfg.Session.Store)
	cfg.Session.CookieName = getEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName)
	cfg.Session.Secret = getEnv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.TTLMinutes = getEnvAsInt("SESSION_TTL_MINUTES", cfg.Session.TTLMinutes)
	cfg.Session.SecureCookie = getEnvAsBool("SESSION_SECURE_COOKIE", cfg.Session.SecureCookie)
	cfg.Session.SameSite = getEnv("SESSION_SAME_SITE", cfg.Session.SameSite)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.ItemEventQueue = getEnv("RABBITMQ_ITEM_EVENT_QUEUE", cfg.RabbitMQ.ItemEventQueue)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
