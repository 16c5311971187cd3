package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DefaultBaseURL is the production backend reached when no override is
// configured.
const DefaultBaseURL = "https://mannaz-api.onrender.com"

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	API     APIConfig         `yaml:"api"`
	Session SessionConfig     `yaml:"session"`
	Stub    StubConfig        `yaml:"stub"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return c.Stub.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// APIConfig holds the backend endpoint configuration.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}

// SessionConfig holds the durable credential storage configuration.
type SessionConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// StubConfig configures the local stub backend started by `mannaz stub serve`.
//
// Fixtures, when set, points to a YAML seed file that is reloaded on change.
// JWTSecret signs the stub's access tokens; it has no bearing on the real
// backend and must never be reused outside local development.
type StubConfig struct {
	Port       int    `yaml:"port"`
	Fixtures   string `yaml:"fixtures"`
	UploadsDir string `yaml:"uploads_dir"`
	JWTSecret  string `yaml:"jwt_secret"`
}

// Address returns the stub HTTP listen address.
func (c *StubConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the stub configuration.
func (c *StubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.UploadsDir, validation.Required),
		validation.Field(&c.JWTSecret, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		API: APIConfig{
			BaseURL: DefaultBaseURL,
		},
		Session: SessionConfig{
			Path: "./mannaz.db",
		},
		Stub: StubConfig{
			Port:       8080,
			UploadsDir: "./uploads",
			JWTSecret:  "mannaz-dev-secret",
		},
	}
}
