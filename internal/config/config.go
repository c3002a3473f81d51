package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Admin     AdminConfig     `yaml:"admin"`
	App       AppConfig       `yaml:"app"`
	Checklist ChecklistConfig `yaml:"checklist"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Digest    DigestConfig    `yaml:"digest"`
	Redis     RedisConfig     `yaml:"redis"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"` // debug, release, test
	LogLevel string `yaml:"log_level"`

	// CORSOrigins lists the allowed browser origins; empty allows any origin.
	CORSOrigins []string `yaml:"cors_origins"`

	// Per-IP limit on the public intake endpoints.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// AdminConfig seeds the first staff account.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type AppConfig struct {
	Timezone         string `yaml:"timezone"`
	LogRetentionDays int    `yaml:"log_retention_days"`
}

// ChecklistConfig holds the ambulance roster and the markdown sources of the checklist form.
type ChecklistConfig struct {
	Units       []string `yaml:"units"`
	DocsDir     string   `yaml:"docs_dir"`
	FullFile    string   `yaml:"full_file"`
	CompactFile string   `yaml:"compact_file"`
}

// TelegramConfig configures the outbound digest transport.
type TelegramConfig struct {
	Transport string   `yaml:"transport"` // telegram, webhook, slack, discord
	BotToken  string   `yaml:"bot_token"`
	ChatIDs   []string `yaml:"chat_ids"`
	BaseURL   string   `yaml:"base_url"`
}

// DigestConfig drives the optional in-process periodic dispatcher.
// Slots maps a slot name to a cron expression, e.g. morning: "0 8 * * *".
type DigestConfig struct {
	ScheduleEnabled bool              `yaml:"schedule_enabled"`
	Slots           map[string]string `yaml:"slots"`
}

// RedisConfig for optional async task queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DefaultUnits is the ambulance roster used when the config file does not list one.
var DefaultUnits = []string{
	"SM01", "CB02", "PR03", "PM04", "BR05", "CN10",
	"PP20", "IT30", "PM40", "CZ50", "BR60", "CC70",
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           "8080",
			Mode:           "debug",
			LogLevel:       "info",
			RateLimitRPS:   1,
			RateLimitBurst: 5,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "samuq.db",
		},
		JWT: JWTConfig{
			Secret:     "samuq-secret-key-change-in-production",
			ExpireHour: 12,
		},
		Admin: AdminConfig{
			Username: "admin",
		},
		App: AppConfig{
			Timezone:         "America/Sao_Paulo",
			LogRetentionDays: 30,
		},
		Checklist: ChecklistConfig{
			Units:       append([]string(nil), DefaultUnits...),
			DocsDir:     "docs",
			FullFile:    "checklist.md",
			CompactFile: "checklist_compact.md",
		},
		Telegram: TelegramConfig{
			Transport: "telegram",
			BaseURL:   "https://api.telegram.org",
		},
		Digest: DigestConfig{
			ScheduleEnabled: false,
			Slots: map[string]string{
				"morning": "0 8 * * *",
				"midday":  "0 13 * * *",
				"evening": "0 19 * * *",
			},
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
	}
}

func (c *Config) applyDefaults() {
	if len(c.Checklist.Units) == 0 {
		c.Checklist.Units = append([]string(nil), DefaultUnits...)
	}
	if c.Telegram.Transport == "" {
		c.Telegram.Transport = "telegram"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "America/Sao_Paulo"
	}
	if c.Server.RateLimitRPS <= 0 {
		c.Server.RateLimitRPS = 1
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Server.LogLevel = level
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = SplitList(origins)
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		c.Admin.Password = password
	}
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		c.App.Timezone = tz
	}
	if dir := os.Getenv("CHECKLIST_DOCS_DIR"); dir != "" {
		c.Checklist.DocsDir = dir
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	// Accepts TELEGRAM_CHAT_IDS="a,b" or a single TELEGRAM_CHAT_ID.
	if ids := os.Getenv("TELEGRAM_CHAT_IDS"); ids != "" {
		c.Telegram.ChatIDs = SplitList(ids)
	} else if id := os.Getenv("TELEGRAM_CHAT_ID"); id != "" {
		c.Telegram.ChatIDs = SplitList(id)
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// SplitList splits a comma separated value, dropping empty entries.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

// Location resolves the configured time zone, falling back to the process local zone.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// FullPath returns the path of the full checklist markdown.
func (c *ChecklistConfig) FullPath() string {
	return filepath.Join(c.DocsDir, c.FullFile)
}

// CompactPath returns the path of the optional alias checklist markdown.
func (c *ChecklistConfig) CompactPath() string {
	return filepath.Join(c.DocsDir, c.CompactFile)
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
