// Package config reads the slideshow control file and the appliance settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Appliance defaults applied when settings.toml leaves a key unset.
const (
	DefaultLogLevel       = "info"
	DefaultDisplayBackend = "auto"
	DefaultDisplayDevice  = "/dev/fb0"
	DefaultScaler         = "bilinear"
	DefaultPowerMode      = "auto"
)

// FileConfig represents the TOML settings file.
type FileConfig struct {
	LogLevel *string       `toml:"log_level"`
	LogFile  *string       `toml:"log_file"`
	Display  DisplayConfig `toml:"display"`
	Power    PowerConfig   `toml:"power"`
}

// DisplayConfig maps display-related settings.
type DisplayConfig struct {
	Backend *string `toml:"backend"`
	Device  *string `toml:"device"`
	Scaler  *string `toml:"scaler"`
}

// PowerConfig maps display power settings.
type PowerConfig struct {
	Mode *string `toml:"mode"`
}

// Settings is the resolved appliance configuration with defaults filled in.
type Settings struct {
	LogLevel       string
	LogFile        string
	DisplayBackend string
	DisplayDevice  string
	Scaler         string
	PowerMode      string
}

var (
	validBackends  = []string{"auto", "framebuffer", "terminal"}
	validScalers   = []string{"nearest", "bilinear", "catmullrom"}
	validPowerMode = []string{"auto", "xset", "framebuffer", "none"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadSettings reads the settings file and resolves defaults.
func LoadSettings(path string) (Settings, error) {
	fileCfg, err := LoadConfig(path)
	if err != nil {
		return Settings{}, err
	}
	return fileCfg.Resolve()
}

// Resolve applies defaults and validates enumerated values.
func (c FileConfig) Resolve() (Settings, error) {
	s := Settings{
		LogLevel:       pick(c.LogLevel, DefaultLogLevel),
		LogFile:        pick(c.LogFile, ""),
		DisplayBackend: pick(c.Display.Backend, DefaultDisplayBackend),
		DisplayDevice:  pick(c.Display.Device, DefaultDisplayDevice),
		Scaler:         pick(c.Display.Scaler, DefaultScaler),
		PowerMode:      pick(c.Power.Mode, DefaultPowerMode),
	}
	if err := oneOf("log_level", s.LogLevel, validLogLevels); err != nil {
		return Settings{}, err
	}
	if err := oneOf("display.backend", s.DisplayBackend, validBackends); err != nil {
		return Settings{}, err
	}
	if err := oneOf("display.scaler", s.Scaler, validScalers); err != nil {
		return Settings{}, err
	}
	if err := oneOf("power.mode", s.PowerMode, validPowerMode); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// DefaultSettingsTemplate returns the commented settings file written by
// `photoframe config`.
func DefaultSettingsTemplate() string {
	return fmt.Sprintf(`# photoframe appliance settings
# Uncomment a value to enable it. The slideshow itself (delay, wake/sleep
# hours, photo root) is controlled by the control file, not by this file.

# log_level = %q        # debug | info | warn | error
# log_file = ""           # empty logs to stderr

[display]
# backend = %q          # auto | framebuffer | terminal
# device = %q       # framebuffer device
# scaler = %q       # nearest | bilinear | catmullrom

[power]
# mode = %q             # auto | xset | framebuffer | none
`,
		DefaultLogLevel,
		DefaultDisplayBackend,
		DefaultDisplayDevice,
		DefaultScaler,
		DefaultPowerMode,
	)
}

func pick(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return fallback
	}
	return strings.ToLower(v)
}

func oneOf(key, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (allowed: %s)", key, value, strings.Join(allowed, ", "))
}
