package config

import (
	"os"
	"path/filepath"
)

// DefaultControlFile is the control file name looked up in the photo root.
const DefaultControlFile = "photoframe.ini"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultSettingsPath returns the default TOML settings path.
func DefaultSettingsPath() string {
	return filepath.Join(XDGConfigHome(), "photoframe", "settings.toml")
}

// ControlPath resolves the control file used for hourly reloads. Absolute
// names are kept, relative names live in the photo root.
func ControlPath(root, name string) string {
	if name == "" {
		name = DefaultControlFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(root, name)
}
