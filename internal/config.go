package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/stash/internal/storage"
	"github.com/starford/stash/internal/tagging"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Stash   StashConfig       `yaml:"stash"`
	Auth    AuthConfig        `yaml:"auth"`
	Tagging TaggingConfig     `yaml:"tagging"`
	SSE     SSEConfig         `yaml:"sse"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sections := []validation.Validatable{&c.App, &c.Storage, &c.Stash, &c.Auth, &c.Tagging, &c.SSE}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
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

// StorageConfig selects the persistence backend. Path is a directory for
// the fs backend and a database file for sqlite.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(storage.BackendFS, storage.BackendSQLite)),
		validation.Field(&c.Path, validation.Required),
	)
}

// StashConfig holds lock behaviour.
//
// With StrictLocks a lock request without a password is rejected; otherwise
// the file is stored unlocked and a warning is logged.
type StashConfig struct {
	StrictLocks bool `yaml:"strict_locks"`
	BcryptCost  int  `yaml:"bcrypt_cost"`
}

// Validate validates the stash configuration.
func (c *StashConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BcryptCost, validation.Required, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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

// TaggingConfig configures tag suggestion.
type TaggingConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	MaxTags  int    `yaml:"max_tags"`
}

// Validate validates the tagging configuration.
func (c *TaggingConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = tagging.ProviderLocal
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(tagging.ProviderLocal, tagging.ProviderGemini)),
		validation.Field(&c.APIKey, validation.When(c.Provider == tagging.ProviderGemini,
			validation.Required.Error("is required for the gemini provider"))),
		validation.Field(&c.MaxTags, validation.Min(0), validation.Max(20)),
	)
}

// Options converts the section into tagging options.
func (c *TaggingConfig) Options() tagging.Options {
	return tagging.Options{
		Provider: c.Provider,
		APIKey:   c.APIKey,
		Model:    c.Model,
		MaxTags:  c.MaxTags,
	}
}

// SSEConfig configures the event stream.
type SSEConfig struct {
	TreeThrottle time.Duration `yaml:"tree_throttle"`
	// Heartbeat is the keep-alive interval; zero disables it.
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Validate validates the SSE configuration.
func (c *SSEConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TreeThrottle, validation.Min(time.Duration(0))),
		validation.Field(&c.Heartbeat, validation.Min(time.Duration(0))),
	)
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
		Storage: StorageConfig{
			Backend: storage.BackendFS,
			Path:    "./data",
		},
		Stash: StashConfig{
			StrictLocks: true,
			BcryptCost:  bcrypt.DefaultCost,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Tagging: TaggingConfig{
			Provider: tagging.ProviderLocal,
			MaxTags:  tagging.DefaultMaxTags,
		},
		SSE: SSEConfig{
			TreeThrottle: 2 * time.Second,
			Heartbeat:    30 * time.Second,
		},
	}
}
