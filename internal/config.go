package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// MinRefreshInterval is the floor applied to the configured refresh rate.
// The remote webhook service rate-limits aggressively; pushing more often
// than this gets requests throttled or dropped.
const MinRefreshInterval = 300 * time.Second

// DefaultRefreshSeconds is used when no refresh rate is configured.
const DefaultRefreshSeconds = 600

// Config represents the application configuration.
//
// It is re-read from disk at the start of every scheduled run, so edits
// take effect on the next cycle without a restart.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Store       StoreConfig       `yaml:"store"`
	Auth        AuthConfig        `yaml:"auth"`
	RefreshRate FlexSeconds       `yaml:"refresh_rate"`
	Plugins     []PluginConfig    `yaml:"plugins"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	for i := range c.Plugins {
		if err := c.Plugins[i].Validate(); err != nil {
			return fmt.Errorf("plugin %d: %w", i, err)
		}
	}
	return nil
}

// RefreshInterval returns the effective polling interval: the configured
// refresh rate clamped to MinRefreshInterval. A zero (unset) rate falls
// back to DefaultRefreshSeconds before clamping.
func (c *Config) RefreshInterval() time.Duration {
	secs := int64(c.RefreshRate)
	if secs == 0 {
		secs = DefaultRefreshSeconds
	}
	d := time.Duration(secs) * time.Second
	if d < MinRefreshInterval {
		return MinRefreshInterval
	}
	return d
}

// FlexSeconds is a second count that unmarshals from either a YAML/JSON
// number or a string ("600"), matching the tolerance of the original
// config format.
type FlexSeconds int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FlexSeconds) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("refresh_rate: expected scalar, got %s", value.Tag)
	}
	s := strings.TrimSpace(value.Value)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("refresh_rate: %q is not a number", value.Value)
	}
	if n < 0 {
		return fmt.Errorf("refresh_rate: must not be negative, got %d", n)
	}
	*f = FlexSeconds(n)
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the path to the SQLite note store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// PluginConfig describes one webhook push target: which notes to select,
// which fields to send, and where to send them.
type PluginConfig struct {
	Enabled       bool     `yaml:"enabled"`
	SearchQuery   string   `yaml:"search_query"`
	VisibleFields []string `yaml:"visible_fields"`
	Webhook       string   `yaml:"webhook"`
}

// Validate validates a plugin configuration. Disabled plugins are left
// alone so a half-edited entry can be parked without breaking the run.
func (c *PluginConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Webhook, validation.Required),
		validation.Field(&c.VisibleFields, validation.Required, validation.Length(1, 0)),
	); err != nil {
		return err
	}
	u, err := url.Parse(c.Webhook)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook: %q is not a valid http(s) URL", c.Webhook)
	}
	return nil
}

// AuthConfig holds authentication configuration for the local HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: "./cards.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		RefreshRate: DefaultRefreshSeconds,
	}
}
