package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port               string `yaml:"port"`
		CORSAllowedOrigins string `yaml:"cors_allowed_origins"`
		StaticDir          string `yaml:"static_dir"`
		ReadTimeout        string `yaml:"read_timeout"`
		WriteTimeout       string `yaml:"write_timeout"`
	} `yaml:"server"`
	Session struct {
		DefaultTimeLimit int `yaml:"default_time_limit"`
	} `yaml:"session"`
	Realtime struct {
		SendBuffer   int    `yaml:"send_buffer"`
		PingInterval string `yaml:"ping_interval"`
		PongWait     string `yaml:"pong_wait"`
		WriteWait    string `yaml:"write_wait"`
		ReadLimit    int64  `yaml:"read_limit"`
	} `yaml:"realtime"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Archive struct {
		Buffer   int `yaml:"buffer"`
		Capacity int `yaml:"capacity"`
	} `yaml:"archive"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies .env and environment
// overrides. A missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8001"
	cfg.Server.CORSAllowedOrigins = "http://localhost:3000"
	cfg.Server.ReadTimeout = "15s"
	cfg.Server.WriteTimeout = "15s"
	cfg.Session.DefaultTimeLimit = 60
	cfg.Realtime.SendBuffer = 256
	cfg.Realtime.PingInterval = "30s"
	cfg.Realtime.PongWait = "60s"
	cfg.Realtime.WriteWait = "10s"
	cfg.Realtime.ReadLimit = 65536
	cfg.Redis.Prefix = "livepoll"
	cfg.Redis.TTL = "10m"
	cfg.Archive.Buffer = 64
	cfg.Archive.Capacity = 100
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.CORSAllowedOrigins = getEnv("CLIENT_URL", cfg.Server.CORSAllowedOrigins)
	cfg.Server.StaticDir = getEnv("STATIC_DIR", cfg.Server.StaticDir)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Postgres.URL = getEnv("DATABASE_URL", cfg.Postgres.URL)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// SplitOrigins splits a comma-separated origin list.
func SplitOrigins(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
