// Package config loads the watcher configuration from an optional YAML file
// and the environment. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/salapix/go/internal/dbconfig"
	"github.com/mcdev12/salapix/go/internal/models"
	"github.com/mcdev12/salapix/go/internal/room/channel"
	"github.com/mcdev12/salapix/go/internal/room/draw"
)

// Push transport names.
const (
	TransportPusher = "pusher"
	TransportNATS   = "nats"
	TransportNone   = "none"
)

type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	AuthToken  string `yaml:"-"`
	RoomID     string `yaml:"room_id"`
	LogLevel   string `yaml:"log_level"`

	User struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Role    string `yaml:"role"`
		Balance string `yaml:"balance"`
	} `yaml:"user"`

	Transport string `yaml:"transport"`
	Pusher    struct {
		Key      string `yaml:"key"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		TLSPort  int    `yaml:"tls_port"`
		ForceTLS bool   `yaml:"force_tls"`
	} `yaml:"pusher"`
	NATSURL string `yaml:"nats_url"`

	Draw draw.Config `yaml:"draw"`

	MutePrefPath string `yaml:"mute_pref_path"`
	StatusPort   string `yaml:"status_port"`
	ChimeCommand string `yaml:"chime_command"`

	ArchiveEnabled bool            `yaml:"archive_enabled"`
	Database       dbconfig.Config `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		APIBaseURL:   "http://localhost:8000/api/",
		LogLevel:     "info",
		Transport:    TransportPusher,
		NATSURL:      "nats://localhost:4222",
		Draw:         draw.DefaultConfig(),
		MutePrefPath: ".salapix/mute.yaml",
		StatusPort:   "8090",
	}
	cfg.User.Role = "guest"
	pusher := channel.DefaultPusherConfig()
	cfg.Pusher.Host = pusher.Host
	cfg.Pusher.Port = pusher.Port
	cfg.Pusher.TLSPort = pusher.TLSPort
	return cfg
}

// Load reads path (if it exists) over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	c.AuthToken = getEnv("AUTH_TOKEN", c.AuthToken)
	c.RoomID = getEnv("ROOM_ID", c.RoomID)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.User.ID = getEnv("USER_ID", c.User.ID)
	c.User.Name = getEnv("USER_NAME", c.User.Name)
	c.User.Role = getEnv("USER_ROLE", c.User.Role)
	c.User.Balance = getEnv("USER_BALANCE", c.User.Balance)

	c.Transport = strings.ToLower(getEnv("PUSH_TRANSPORT", c.Transport))
	c.Pusher.Key = getEnv("PUSHER_KEY", c.Pusher.Key)
	c.Pusher.Host = getEnv("WS_HOST", c.Pusher.Host)
	c.Pusher.Port = getEnvAsInt("WS_PORT", c.Pusher.Port)
	c.Pusher.TLSPort = getEnvAsInt("WSS_PORT", c.Pusher.TLSPort)
	c.Pusher.ForceTLS = getEnvAsBool("FORCE_TLS", c.Pusher.ForceTLS)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)

	c.Draw.Ticks = getEnvAsInt("DRAW_TICKS", c.Draw.Ticks)
	c.Draw.Interval = getEnvAsDuration("DRAW_TICK_INTERVAL", c.Draw.Interval)

	c.MutePrefPath = getEnv("MUTE_PREF_PATH", c.MutePrefPath)
	c.StatusPort = getEnv("STATUS_PORT", c.StatusPort)
	c.ChimeCommand = getEnv("CHIME_COMMAND", c.ChimeCommand)

	c.ArchiveEnabled = getEnvAsBool("ARCHIVE_ENABLED", c.ArchiveEnabled)
	c.Database = dbconfig.NewConfigFromEnv()
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("API_BASE_URL is required")
	}
	switch c.Transport {
	case TransportPusher:
		if c.Pusher.Key == "" {
			return errors.New("PUSHER_KEY is required for the pusher transport")
		}
	case TransportNATS, TransportNone:
	default:
		return fmt.Errorf("unknown PUSH_TRANSPORT %q", c.Transport)
	}
	if c.Draw.Ticks < 0 {
		return fmt.Errorf("draw ticks must not be negative, got %d", c.Draw.Ticks)
	}
	if c.Draw.Interval <= 0 {
		return fmt.Errorf("draw tick interval must be positive, got %s", c.Draw.Interval)
	}
	if _, err := models.ParseRole(c.User.Role); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// Session builds the local user's session from the configuration.
func (c *Config) Session(instanceID string) (models.Session, error) {
	role, err := models.ParseRole(c.User.Role)
	if err != nil {
		return models.Session{}, err
	}
	s := models.Session{
		InstanceID:  instanceID,
		UserID:      c.User.ID,
		DisplayName: c.User.Name,
		Role:        role,
	}
	if role != models.RoleGuest && s.UserID == "" {
		return models.Session{}, errors.New("USER_ID is required unless USER_ROLE is guest")
	}
	if c.User.Balance != "" {
		balance, err := decimal.NewFromString(c.User.Balance)
		if err != nil {
			return models.Session{}, fmt.Errorf("invalid USER_BALANCE: %w", err)
		}
		s.Balance = decimal.NewNullDecimal(balance)
	}
	return s, nil
}

// PusherConfig returns the websocket transport settings.
func (c *Config) PusherConfig() channel.PusherConfig {
	p := channel.DefaultPusherConfig()
	p.Key = c.Pusher.Key
	p.Host = c.Pusher.Host
	p.Port = c.Pusher.Port
	p.TLSPort = c.Pusher.TLSPort
	p.ForceTLS = c.Pusher.ForceTLS
	return p
}

// NATSConfig returns the NATS transport settings.
func (c *Config) NATSConfig() channel.NATSConfig {
	n := channel.DefaultNATSConfig()
	n.URL = c.NATSURL
	return n
}

// Level returns the configured log level.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("200ms") or plain milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
