package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/escala/pkg/core/policy"
)

const configFileName = "escala_config.yaml"

// CapacityOverride raises or lowers a ministry's member cap on dates matched
// by a recurrence rule, taking precedence over the name-based rules.
type CapacityOverride struct {
	MinistryID string `yaml:"ministryID" validate:"required"`
	RRule      string `yaml:"rrule" validate:"required"`
	MaxMembers int    `yaml:"maxMembers" validate:"min=1"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// Config represents the application configuration. Secrets (DATABASE_URL,
// JWT_SECRET) come from the environment, not the YAML file.
type Config struct {
	Server             ServerConfig       `yaml:"server" validate:"required"`
	CapacityOverrides  []CapacityOverride `yaml:"capacityOverrides,omitempty" validate:"dive"`
	ProfileTimeoutSecs int                `yaml:"profileTimeoutSecs" validate:"min=1"`
	ReminderDays       int                `yaml:"reminderDays" validate:"min=1"`
	GmailSender        string             `yaml:"gmailSender,omitempty"`

	DatabaseURL string `yaml:"-" validate:"required"`
	JWTSecret   string `yaml:"-" validate:"required"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ProfileTimeout returns the bounded duration for the post-sign-in profile fetch
func (c *Config) ProfileTimeout() time.Duration {
	return time.Duration(c.ProfileTimeoutSecs) * time.Second
}

// Load loads the YAML config and environment secrets. It looks for the
// config file in the current directory first, then in the user's home
// directory. A .env file in the current directory is loaded when present.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	// Missing .env is fine; variables may come from the real environment
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	if cfg.ProfileTimeoutSecs == 0 {
		cfg.ProfileTimeoutSecs = 10
	}
	if cfg.ReminderDays == 0 {
		cfg.ReminderDays = 7
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.CapacityOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in capacityOverrides[%d]: %w", i, err)
		}
	}

	return nil
}

// PolicyOverrides converts the configured recurrence overrides into policy
// overrides. Each rule is matched against the whole calendar day of the
// booking date.
func (c *Config) PolicyOverrides() ([]policy.Override, error) {
	overrides := make([]policy.Override, 0, len(c.CapacityOverrides))
	for i, o := range c.CapacityOverrides {
		rule, err := rrule.StrToRRule(o.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule in capacityOverrides[%d]: %w", i, err)
		}

		overrides = append(overrides, policy.Override{
			MinistryID: o.MinistryID,
			MaxMembers: o.MaxMembers,
			AppliesTo: func(dateStr string) bool {
				dayStart, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
				if err != nil {
					return false
				}
				dayEnd := dayStart.Add(24*time.Hour - time.Second)
				return len(rule.Between(dayStart, dayEnd, true)) > 0
			},
		})
	}
	return overrides, nil
}

// findConfigFile searches for escala_config.yaml in current directory and home directory
func findConfigFile() (string, error) {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
