package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		PublicURL      string   `yaml:"public_url"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		// IdleTTL is how long an unwatched session or unused music player
		// lives before it is reaped.
		IdleTTL string `yaml:"idle_ttl"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"` // memory, redis, sqlite, postgres, supabase
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Supabase struct {
		URL   string `yaml:"url"`
		Key   string `yaml:"key"`
		Table string `yaml:"table"`
	} `yaml:"supabase"`
	Gemini struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`
	Content struct {
		TTL string `yaml:"ttl"`
	} `yaml:"content"`
	Music struct {
		PlayerCommand []string `yaml:"player_command"`
	} `yaml:"music"`
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	Auth struct {
		LoginDelay  string `yaml:"login_delay"`
		LogoutDelay string `yaml:"logout_delay"`
	} `yaml:"auth"`
}

const (
	DefaultModel     = "gemini-2.5-flash"
	DefaultPublicURL = "http://localhost:8080"
)

// Load reads YAML config from path. A missing file is not an error: defaults
// and environment overrides still apply, so the service runs with only a
// .env file present.
func Load(path string) (Config, error) {
	cfg := Config{}
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("API_KEY")); v != "" {
		c.Gemini.APIKey = v
	}
	if v := getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := getenv("SUPABASE_URL"); v != "" {
		c.Supabase.URL = v
	}
	if v := getenv("SUPABASE_KEY"); v != "" {
		c.Supabase.Key = v
	}
	if v := getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Gemini.Model == "" {
		c.Gemini.Model = DefaultModel
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = DefaultPublicURL
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173", "https://localhost:5173"}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = c.inferDriver()
	}
	if c.Supabase.Table == "" {
		c.Supabase.Table = "genna_storage"
	}
	if len(c.Music.PlayerCommand) == 0 {
		c.Music.PlayerCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
	}
}

// inferDriver picks whichever backend is configured when no driver is named.
func (c *Config) inferDriver() string {
	switch {
	case c.Redis.Addr != "":
		return "redis"
	case c.Postgres.URL != "":
		return "postgres"
	case c.SQLite.Path != "":
		return "sqlite"
	case c.Supabase.URL != "" && c.Supabase.Key != "":
		return "supabase"
	default:
		return "memory"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
