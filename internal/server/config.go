// Package server provides configuration helpers that define runtime defaults,
// validation, and file or environment overrides for the chat service.
package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// LogConfig selects the slog handler and minimum level.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RoomConfig bounds user-supplied names.
type RoomConfig struct {
	MaxNicknameLength int `yaml:"max_nickname_length"`
	MaxRoomNameLength int `yaml:"max_room_name_length"`
}

// NATSConfig enables the lifecycle journal when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxMessageSize  int64         `yaml:"max_message_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Log             LogConfig     `yaml:"log"`
	Rooms           RoomConfig    `yaml:"rooms"`
	NATS            NATSConfig    `yaml:"nats"`
}

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 4096
	defaultShutdownTimeout = 10 * time.Second
	defaultNATSSubject     = "chat.rooms"
)

var (
	configMu     sync.RWMutex
	activeConfig Config
	origins      originPolicy
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize:  defaultMaxMessageSize,
		ShutdownTimeout: defaultShutdownTimeout,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Rooms: RoomConfig{
			MaxNicknameLength: 32,
			MaxRoomNameLength: 64,
		},
		NATS: NATSConfig{
			Subject: defaultNATSSubject,
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = defaultNATSSubject
	}

	policy := newOriginPolicy(cfg.AllowedOrigins)
	cfg.AllowedOrigins = policy.list()

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	origins = policy

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		sanitizeConfig(defaultConfig())
		return
	}

	sanitized := *cfg
	sanitized.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	sanitizeConfig(sanitized)
}

// CurrentConfig returns a copy of the active configuration.
func CurrentConfig() Config {
	return currentConfig()
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// LoadConfig builds the effective configuration: defaults, then the YAML file
// at path when path is non-empty, then environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		if err := loadConfigFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadConfigFile reads a YAML configuration file over the defaults.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := loadConfigFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()
	applyEnv(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if allowed := os.Getenv("ALLOWED_ORIGINS"); allowed != "" {
		cfg.AllowedOrigins = parseOrigins(allowed)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}

	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}

	if subject := os.Getenv("NATS_SUBJECT"); subject != "" {
		cfg.NATS.Subject = subject
	}

	if n := os.Getenv("MAX_NICKNAME_LENGTH"); n != "" {
		cfg.Rooms.MaxNicknameLength = parseIntValue(n, cfg.Rooms.MaxNicknameLength)
	}

	if n := os.Getenv("MAX_ROOM_NAME_LENGTH"); n != "" {
		cfg.Rooms.MaxRoomNameLength = parseIntValue(n, cfg.Rooms.MaxRoomNameLength)
	}
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}
