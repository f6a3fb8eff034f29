package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	API      APIConfig
	Actor    ActorConfig
	Observer ObserverConfig
	Schedule ScheduleConfig
	Server   ServerConfig
	Slack    SlackConfig
}

// APIConfig holds remote backend connection settings.
type APIConfig struct {
	BaseURL string
}

// ActorConfig holds the credentials the engine authenticates with.
type ActorConfig struct {
	Username string
	Password string //nolint:gosec // G117: actor credential config
}

// ObserverConfig identifies the account that receives outcome reports.
type ObserverConfig struct {
	Username string
}

// ScheduleConfig holds the action timer settings.
type ScheduleConfig struct {
	ActionInterval time.Duration
}

// ServerConfig holds status HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SlackConfig holds the optional Slack report mirror settings.
// Both fields empty disables the mirror.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// Load reads configuration from environment variables.
// Credentials and the backend base URL have no defaults and must be set.
func Load() (*Config, error) {
	actionInterval, err := getEnvDuration("AMBLER_ACTION_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("AMBLER_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("AMBLER_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("AMBLER_API_BASE_URL", ""),
		},
		Actor: ActorConfig{
			Username: getEnv("AMBLER_ACTOR_USERNAME", ""),
			Password: getEnv("AMBLER_ACTOR_PASSWORD", ""),
		},
		Observer: ObserverConfig{
			Username: getEnv("AMBLER_OBSERVER_USERNAME", "admin"),
		},
		Schedule: ScheduleConfig{
			ActionInterval: actionInterval,
		},
		Server: ServerConfig{
			Addr:         getEnv("AMBLER_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		Slack: SlackConfig{
			BotToken: getEnv("AMBLER_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv("AMBLER_SLACK_CHANNEL", ""),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return errors.New("AMBLER_API_BASE_URL is required")
	}

	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("AMBLER_API_BASE_URL is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("AMBLER_API_BASE_URL must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("AMBLER_API_BASE_URL must include a host")
	}

	if c.Actor.Username == "" {
		return errors.New("AMBLER_ACTOR_USERNAME is required")
	}
	if c.Actor.Password == "" {
		return errors.New("AMBLER_ACTOR_PASSWORD is required")
	}
	if c.Observer.Username == "" {
		return errors.New("AMBLER_OBSERVER_USERNAME must not be empty")
	}

	if c.Schedule.ActionInterval < time.Minute {
		return fmt.Errorf("AMBLER_ACTION_INTERVAL must be at least 1m, got %s", c.Schedule.ActionInterval)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("AMBLER_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("AMBLER_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	// The Slack mirror needs both the token and a destination channel.
	if (c.Slack.BotToken == "") != (c.Slack.Channel == "") {
		return errors.New("AMBLER_SLACK_BOT_TOKEN and AMBLER_SLACK_CHANNEL must be set together")
	}

	return nil
}

// SlackEnabled reports whether the optional Slack report mirror is configured.
func (c *Config) SlackEnabled() bool {
	return c.Slack.BotToken != "" && c.Slack.Channel != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}
