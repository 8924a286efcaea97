package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode     string `mapstructure:"mode"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	Secret   string `mapstructure:"secret"`

	BuildPath     string        `mapstructure:"build_path"`
	LibPath       string        `mapstructure:"lib_path"`
	StaticMaxAge  time.Duration `mapstructure:"static_max_age"`
	PreviewMaxAge time.Duration `mapstructure:"preview_max_age"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Origin     string        `mapstructure:"origin"`

	MaxConnections    int     `mapstructure:"max_connections"`
	// EventsPerSecond enables per-connection rate limiting when positive.
	EventsPerSecond   float64 `mapstructure:"events_per_second"`
	EventBurst        int     `mapstructure:"event_burst"`
	KickSlowConsumers bool    `mapstructure:"kick_slow_consumers"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var (
	ErrInvalidPort  = errors.New("port out of range")
	ErrPingTooSlow  = errors.New("ping_period must be shorter than pong_wait")
	ErrInvalidMode  = errors.New("mode must be debug or release")
	ErrInvalidLimit = errors.New("limits must not be negative")
)

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) Release() bool { return c.Mode == "release" }

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.Mode != "debug" && c.Mode != "release" {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if c.PingPeriod >= c.PongWait {
		return fmt.Errorf("%w: %s >= %s", ErrPingTooSlow, c.PingPeriod, c.PongWait)
	}
	if c.MaxConnections < 0 || c.EventsPerSecond < 0 || c.EventBurst < 0 || c.SendBuffer < 0 || c.ReadLimit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "debug")
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "change-me")

	v.SetDefault("build_path", "./build")
	v.SetDefault("lib_path", "./lib")
	v.SetDefault("static_max_age", "1h")
	v.SetDefault("preview_max_age", "10m")

	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("origin", "")

	v.SetDefault("max_connections", 0)
	v.SetDefault("events_per_second", 0)
	v.SetDefault("event_burst", 0)
	v.SetDefault("kick_slow_consumers", false)

	v.SetDefault("shutdown_timeout", "10s")
}

// Load reads config/config.<CONFIG_ENV>.yaml when present, then applies
// RELAY_* environment overrides. PORT is honoured on its own as well.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.BindEnv("port", "RELAY_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Str("addr", cfg.Addr()).Str("build", cfg.BuildPath).Msg("config ready")
	return &cfg, nil
}
