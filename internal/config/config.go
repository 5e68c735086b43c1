package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (PORTFOLIO_LOG_LEVEL, ...).
const EnvPrefix = "PORTFOLIO"

// Config holds application configuration.
type Config struct {
	Port    int    `mapstructure:"port"`
	Bind    string `mapstructure:"bind"`
	GinMode string `mapstructure:"gin_mode"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// DBPath is the sqlite file backing the download collector and visitor analytics.
	DBPath string `mapstructure:"db_path"`

	// ContentDir overrides the embedded content set when non-empty.
	ContentDir string `mapstructure:"content_dir"`

	// ResumeURL is where /resume redirects. Empty means the profile's resume_url.
	ResumeURL string `mapstructure:"resume_url"`

	// CollectorURL receives resume download notifications. Empty means this server's own
	// /api/resume/download endpoint.
	CollectorURL string `mapstructure:"collector_url"`

	// CORSOrigins are the origins allowed to call /api.
	CORSOrigins []string `mapstructure:"cors_origins"`

	// HTMXURL is where pages load htmx from when no copy is embedded under static/js.
	HTMXURL string `mapstructure:"htmx_url"`

	// RevealEnabled turns scroll-triggered reveal on. When false every section renders revealed.
	RevealEnabled bool `mapstructure:"reveal_enabled"`

	Contact  ContactConfig  `mapstructure:"contact"`
	Session  SessionConfig  `mapstructure:"session"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Tracking TrackingConfig `mapstructure:"tracking"`
}

type ContactConfig struct {
	// Recipient overrides the profile email as the mailto recipient.
	Recipient  string        `mapstructure:"recipient"`
	ResetDelay time.Duration `mapstructure:"reset_delay"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TrackingConfig struct {
	RetryMax int           `mapstructure:"retry_max"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:          8080,
		Bind:          "0.0.0.0",
		GinMode:       "release",
		LogLevel:      "info",
		DBPath:        "portfolio.db",
		CORSOrigins:   []string{"*"},
		HTMXURL:       "https://unpkg.com/htmx.org@1.9.12",
		RevealEnabled: true,
		Contact: ContactConfig{
			ResetDelay: 3000 * time.Millisecond,
		},
		Session: SessionConfig{
			TTL:             30 * time.Minute,
			JanitorInterval: time.Minute,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
		},
		Tracking: TrackingConfig{
			RetryMax: 2,
			Timeout:  5 * time.Second,
		},
	}
}

// setDefaults registers every key with viper so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("bind", d.Bind)
	v.SetDefault("gin_mode", d.GinMode)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("content_dir", d.ContentDir)
	v.SetDefault("resume_url", d.ResumeURL)
	v.SetDefault("collector_url", d.CollectorURL)
	v.SetDefault("cors_origins", d.CORSOrigins)
	v.SetDefault("htmx_url", d.HTMXURL)
	v.SetDefault("reveal_enabled", d.RevealEnabled)
	v.SetDefault("contact.recipient", d.Contact.Recipient)
	v.SetDefault("contact.reset_delay", d.Contact.ResetDelay)
	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.janitor_interval", d.Session.JanitorInterval)
	v.SetDefault("admin.username", d.Admin.Username)
	v.SetDefault("admin.password", d.Admin.Password)
	v.SetDefault("tracking.retry_max", d.Tracking.RetryMax)
	v.SetDefault("tracking.timeout", d.Tracking.Timeout)
}

// New returns a viper instance with defaults, the PORTFOLIO_ env prefix, and the plain
// variable names the site has always read (PORT, GIN_MODE, ADMIN_USERNAME, ADMIN_PASSWORD).
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")
	_ = v.BindEnv("gin_mode", EnvPrefix+"_GIN_MODE", "GIN_MODE")
	_ = v.BindEnv("admin.username", EnvPrefix+"_ADMIN_USERNAME", "ADMIN_USERNAME")
	_ = v.BindEnv("admin.password", EnvPrefix+"_ADMIN_PASSWORD", "ADMIN_PASSWORD")
	return v
}

// ReadFile points v at cfgFile, or at $HOME/.portfolio.yaml when cfgFile is empty.
// A missing default file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("locating home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(".portfolio")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

var validGinModes = map[string]bool{
	"debug": true, "release": true, "test": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if !validGinModes[c.GinMode] {
		return fmt.Errorf("invalid gin_mode %q: must be one of debug, release, test", c.GinMode)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.CollectorURL != "" {
		u, err := url.Parse(c.CollectorURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid collector_url %q", c.CollectorURL)
		}
	}
	if !strings.HasPrefix(c.HTMXURL, "/") {
		u, err := url.Parse(c.HTMXURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid htmx_url %q: must be an absolute path or http(s) URL", c.HTMXURL)
		}
	}
	if c.Contact.Recipient != "" {
		if _, err := mail.ParseAddress(c.Contact.Recipient); err != nil {
			return fmt.Errorf("invalid contact.recipient %q: %w", c.Contact.Recipient, err)
		}
	}
	if c.Contact.ResetDelay <= 0 {
		return fmt.Errorf("contact.reset_delay must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Session.JanitorInterval <= 0 {
		return fmt.Errorf("session.janitor_interval must be positive")
	}
	if c.Tracking.RetryMax < 0 {
		return fmt.Errorf("tracking.retry_max must be non-negative")
	}
	if c.Tracking.Timeout <= 0 {
		return fmt.Errorf("tracking.timeout must be positive")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// splitOrigins accepts both list values and a single comma separated string from the environment.
func splitOrigins(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
