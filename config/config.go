package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// InputConfig is a MIDI source and the roles it is routed to
type InputConfig struct {
	Endpoint string   `json:"endpoint"`
	Roles    []string `json:"roles"` // transport, notes, controls
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette  string `json:"palette,omitempty"` // GIMP .gpl file, built-in palette if empty
	Headless bool   `json:"headless,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Inputs   []InputConfig `json:"inputs,omitempty"`
	Output   string        `json:"output,omitempty"`
	Feedback string        `json:"feedback,omitempty"` // control surface lamps
	Thru     *bool         `json:"thru,omitempty"`     // nil: decided by ThruEnabled
	Debug    bool          `json:"debug,omitempty"`
	UI       UIConfig      `json:"ui,omitempty"`
}

// DefaultConfig returns the classic three-device setup: a control surface,
// a clock host and a synth that is both played and looped.
func DefaultConfig() *Config {
	return &Config{
		Inputs: []InputConfig{
			{Endpoint: "card:Interface", Roles: []string{"controls"}},
			{Endpoint: "card:mio", Roles: []string{"transport"}},
			{Endpoint: "card:Y12", Roles: []string{"notes"}},
		},
		Output: "card:Y12",
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-looper"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, or returns defaults if it does not exist
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindInput finds an input config by endpoint
func (c *Config) FindInput(endpoint string) *InputConfig {
	for i := range c.Inputs {
		if c.Inputs[i].Endpoint == endpoint {
			return &c.Inputs[i]
		}
	}
	return nil
}

// AddInput adds or updates an input config
func (c *Config) AddInput(in InputConfig) {
	for i := range c.Inputs {
		if c.Inputs[i].Endpoint == in.Endpoint {
			c.Inputs[i] = in
			return
		}
	}
	c.Inputs = append(c.Inputs, in)
}

// ThruEnabled reports whether played notes are echoed to the output. Unless
// set explicitly, notes are echoed when the instrument being played is not
// itself the output, since it already sounds its own notes.
func (c *Config) ThruEnabled() bool {
	if c.Thru != nil {
		return *c.Thru
	}
	for _, in := range c.Inputs {
		if in.Endpoint != c.Output {
			continue
		}
		for _, role := range in.Roles {
			if role == "notes" {
				return false
			}
		}
	}
	return true
}
