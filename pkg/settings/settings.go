// Package settings manages persistent user settings for the fleetpush CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences
type Settings struct {
	// DefaultInventory is the inventory file used when -i is not specified
	DefaultInventory string `json:"default_inventory,omitempty"`

	// DefaultModel is the device model assumed for records without one
	DefaultModel string `json:"default_model,omitempty"`

	// Concurrency is the default worker pool size for deployments
	Concurrency int `json:"concurrency,omitempty"`

	// TaskTimeoutSeconds is the default per-device timeout
	TaskTimeoutSeconds int `json:"task_timeout_seconds,omitempty"`

	// RedisAddr, when set, enables publishing run progress to Redis
	RedisAddr string `json:"redis_addr,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "fleetpush_settings.json"
	}
	return filepath.Join(home, ".fleetpush", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConcurrency returns the configured concurrency (with fallback)
func (s *Settings) GetConcurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return 10
}

// GetTaskTimeoutSeconds returns the per-device timeout (with fallback)
func (s *Settings) GetTaskTimeoutSeconds() int {
	if s.TaskTimeoutSeconds > 0 {
		return s.TaskTimeoutSeconds
	}
	return 60
}
