package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
)

// Config represents the application configuration
type Config struct {
	// Backend selects the schedule store: "webhook" (default) or "postgres"
	Backend     string `yaml:"backend,omitempty" validate:"omitempty,oneof=webhook postgres"`
	WebhookURL  string `yaml:"webhookURL,omitempty" validate:"omitempty,url"`
	PostgresURL string `yaml:"postgresURL,omitempty"`

	// ListenAddr is the HTTP API bind address (server mode only)
	ListenAddr string `yaml:"listenAddr,omitempty"`

	// RequestTimeoutSeconds bounds webhook calls; 0 means no timeout
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds,omitempty" validate:"omitempty,min=0"`

	// CampDaysRRule overrides the Monday-Friday week expansion
	CampDaysRRule string `yaml:"campDaysRRule,omitempty"`

	// TimeSlots overrides the fixed daily grid boundaries
	TimeSlots []string `yaml:"timeSlots,omitempty" validate:"omitempty,min=2,dive,datetime=15:04"`

	// OnMissingSwap controls swaps referencing nonexistent records:
	// "ignore" (default, the board stays unchanged silently) or "report"
	OnMissingSwap string `yaml:"onMissingSwap,omitempty" validate:"omitempty,oneof=ignore report"`

	// FallbackDataPath points at a JSON dataset installed when the
	// initial load fails (demo continuity; off when empty)
	FallbackDataPath string `yaml:"fallbackData,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from camp_scheduler_config.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory.
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for a named environment
// (<env>_camp_scheduler_config.yaml); an empty env selects the plain
// file name
func LoadWithEnv(env string) (*Config, error) {
	name := "camp_scheduler_config.yaml"
	if env != "" {
		name = fmt.Sprintf("%s_camp_scheduler_config.yaml", env)
	}

	configPath, err := findConfigFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "webhook"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.OnMissingSwap == "" {
		c.OnMissingSwap = "ignore"
	}
}

// Validate validates the configuration struct, the backend selection
// and the camp-days rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch cfg.Backend {
	case "webhook":
		if cfg.WebhookURL == "" {
			return fmt.Errorf("config validation failed: webhookURL is required for the webhook backend")
		}
	case "postgres":
		if cfg.PostgresURL == "" {
			return fmt.Errorf("config validation failed: postgresURL is required for the postgres backend")
		}
	}

	if cfg.CampDaysRRule != "" {
		if _, err := rrule.StrToRRule(cfg.CampDaysRRule); err != nil {
			return fmt.Errorf("invalid campDaysRRule: %w", err)
		}
	}

	return nil
}

// MissingKeyPolicy maps the configured swap policy onto the board's
func (c *Config) MissingKeyPolicy() schedule.MissingKeyPolicy {
	if c.OnMissingSwap == "report" {
		return schedule.ReportMissing
	}
	return schedule.IgnoreMissing
}

// RequestTimeout returns the webhook call timeout; zero means none
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// WeekRule returns the camp-days recurrence rule to expand week
// windows with
func (c *Config) WeekRule() string {
	if c.CampDaysRRule != "" {
		return c.CampDaysRRule
	}
	return schedule.DefaultCampDaysRule
}

// findConfigFile searches for the config file in the current directory
// and the home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", name)
}
