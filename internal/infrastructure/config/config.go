package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Gray Logic Alexa bridge.
// All configuration is loaded from YAML and can be overridden by environment
// variables, which is the only configuration source in Lambda deployments.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Skill    SkillConfig    `yaml:"skill"`
	API      APIConfig      `yaml:"api"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains the automation-server item API connection settings.
type ServerConfig struct {
	// BaseURL is the root of the automation server's REST API.
	// Example: "https://home.example.org/rest"
	BaseURL string `yaml:"base_url"`

	// AuthMode selects how the directive's scope token is presented to the
	// automation server: "bearer" (Authorization: Bearer <token>) or "basic"
	// (token used as basic credentials). Default: "bearer".
	AuthMode string `yaml:"auth_mode"`

	// Username and Password are optional static basic-auth credentials used
	// instead of the directive scope token (self-hosted installs that front
	// the server with their own reverse-proxy auth).
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Timeout is the per-request timeout in seconds for item API calls.
	Timeout int `yaml:"timeout"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Only for development against self-signed servers.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// MetadataNamespace is the item metadata namespace queried during
	// discovery. Default: "alexa".
	MetadataNamespace string `yaml:"metadata_namespace"`
}

// SkillConfig contains skill-facing presentation settings.
type SkillConfig struct {
	// ManufacturerName is reported for every discovered endpoint.
	ManufacturerName string `yaml:"manufacturer_name"`

	// DeadlineMillis bounds one directive invocation. The voice platform
	// gives the skill roughly eight seconds; the bridge must answer first.
	DeadlineMillis int `yaml:"deadline_millis"`
}

// APIConfig contains HTTP server settings for standalone mode.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// SecurityConfig contains authentication settings for standalone mode.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT validation settings.
//
// In Lambda deployments the Alexa cloud authenticates the caller and these
// settings are unused. In standalone mode the inbound bearer token is
// validated against this secret before any directive is dispatched.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ALEXABRIDGE_SECTION_KEY
// For example: ALEXABRIDGE_SERVER_BASE_URL, ALEXABRIDGE_JWT_SECRET
//
// A missing file is not an error: Lambda deployments configure the bridge
// entirely through the environment.
//
// Parameters:
//   - path: Path to the YAML configuration file ("" to skip the file)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be parsed or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Environment-only configuration.
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			AuthMode:          "bearer",
			Timeout:           5,
			MetadataNamespace: "alexa",
		},
		Skill: SkillConfig{
			ManufacturerName: "Gray Logic",
			DeadlineMillis:   7500,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ALEXABRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("ALEXABRIDGE_SERVER_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("ALEXABRIDGE_SERVER_AUTH_MODE"); v != "" {
		cfg.Server.AuthMode = v
	}
	if v := os.Getenv("ALEXABRIDGE_SERVER_USERNAME"); v != "" {
		cfg.Server.Username = v
	}
	if v := os.Getenv("ALEXABRIDGE_SERVER_PASSWORD"); v != "" {
		cfg.Server.Password = v
	}
	if v := os.Getenv("ALEXABRIDGE_SERVER_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Timeout = n
		}
	}

	// Skill
	if v := os.Getenv("ALEXABRIDGE_SKILL_MANUFACTURER"); v != "" {
		cfg.Skill.ManufacturerName = v
	}

	// API
	if v := os.Getenv("ALEXABRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("ALEXABRIDGE_API_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = n
		}
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("ALEXABRIDGE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	// Logging
	if v := os.Getenv("ALEXABRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ALEXABRIDGE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.BaseURL == "" {
		errs = append(errs, "server.base_url is required")
	}
	if m := c.Server.AuthMode; m != "bearer" && m != "basic" {
		errs = append(errs, "server.auth_mode must be \"bearer\" or \"basic\"")
	}
	if c.Server.Timeout < 1 {
		errs = append(errs, "server.timeout must be at least 1 second")
	}

	// Skill validation
	if c.Skill.DeadlineMillis < 1000 {
		errs = append(errs, "skill.deadline_millis must be at least 1000")
	}

	// API validation (standalone mode only)
	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}

		// JWT secrets guard voice control of physical devices; an empty or
		// short secret would let anyone forge tokens against a standalone
		// deployment.
		const minJWTSecretLength = 32
		if c.Security.JWT.Secret != "" && len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RequestTimeout returns the item API request timeout as a Duration.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Deadline returns the per-directive wall-clock budget as a Duration.
func (c *Config) Deadline() time.Duration {
	return time.Duration(c.Skill.DeadlineMillis) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
