package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/mmuslimabdulj/goat-relay/internal/domain"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Chat socket
	Address string `yaml:"address"` // empty listens on all interfaces
	Port    string `yaml:"port"`

	// HTTP status page and WebSocket entry point; empty disables it
	HTTPPort       string   `yaml:"http_port"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Shared log
	LogCapacityBytes      int    `yaml:"log_capacity_bytes"`
	MaxConcurrentSessions int    `yaml:"max_concurrent_sessions"` // 0 = unlimited
	ChunkSize             int    `yaml:"chunk_size"`
	WelcomeMessage        string `yaml:"welcome_message"`

	// Rate Limiting
	AcceptRate  rate.Limit `yaml:"accept_rate"`
	AcceptBurst int        `yaml:"accept_burst"`
	RateLimitWS rate.Limit `yaml:"rate_limit_ws"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:                  "4000",
		HTTPPort:              "8080",
		AllowedOrigins:        []string{"http://localhost:8080", "http://localhost:3000"},
		LogCapacityBytes:      domain.DefaultLogCapacity,
		MaxConcurrentSessions: domain.DefaultMaxSessions,
		ChunkSize:             domain.DefaultChunkSize,
		AcceptRate:            domain.DefaultAcceptRate,
		AcceptBurst:           domain.DefaultAcceptBurst,
		RateLimitWS:           domain.DefaultRateLimitWS,
		LogLevel:              "info", // Options: debug, info, warn, error, silent
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and then environment variables
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// LoadFile overlays the keys present in a YAML file
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. Malformed
// numbers are ignored and keep the previous value.
func (c *Config) ApplyEnv() {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		c.Address = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Port = port
	}
	if port, ok := os.LookupEnv("HTTP_PORT"); ok {
		c.HTTPPort = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = parseOrigins(origins)
	}

	if val, ok := positiveInt("LOG_CAPACITY_BYTES"); ok {
		c.LogCapacityBytes = val
	}
	if raw := os.Getenv("MAX_CONCURRENT_SESSIONS"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val >= 0 {
			c.MaxConcurrentSessions = val
		}
	}
	if val, ok := positiveInt("CHUNK_SIZE"); ok {
		c.ChunkSize = val
	}
	if msg := os.Getenv("WELCOME_MESSAGE"); msg != "" {
		c.WelcomeMessage = msg
	}

	if val, ok := positiveInt("ACCEPT_RATE"); ok {
		c.AcceptRate = rate.Limit(val)
	}
	if val, ok := positiveInt("ACCEPT_BURST"); ok {
		c.AcceptBurst = val
	}
	if val, ok := positiveInt("RATE_LIMIT_WS"); ok {
		c.RateLimitWS = rate.Limit(val)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// Validate reports the first unusable setting
func (c *Config) Validate() error {
	if err := validPort("port", c.Port); err != nil {
		return err
	}
	if c.HTTPPort != "" {
		if err := validPort("http_port", c.HTTPPort); err != nil {
			return err
		}
	}
	switch {
	case c.LogCapacityBytes <= 0:
		return errors.New("config: log_capacity_bytes must be positive")
	case c.ChunkSize <= 0:
		return errors.New("config: chunk_size must be positive")
	case c.MaxConcurrentSessions < 0:
		return errors.New("config: max_concurrent_sessions must not be negative")
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// ListenAddr is the chat socket address
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, c.Port)
}

// HTTPAddr is the status page address
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.Address, c.HTTPPort)
}

// NewLogger builds the process logger; "silent" discards everything
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	if strings.EqualFold(c.LogLevel, "silent") || strings.EqualFold(c.LogLevel, "off") {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "silent", "off":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func validPort(name, port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("config: %s should be between 0 and 65535, got %q", name, port)
	}
	return nil
}

func positiveInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, false
	}
	return val, true
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
