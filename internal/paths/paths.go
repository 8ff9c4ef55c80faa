// Package paths resolves configuration and data directory locations and the
// project identity derived from the working directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user configuration and data directories.
const AppName = "hook"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "HOOK_CONFIG_DIR"
	EnvDataDir   = "HOOK_DATA_DIR"
)

// platformDir holds the platform lookups; tests replace them.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir is $XDG_CONFIG_HOME/hook or ~/.config/hook on Linux and
// os.UserConfigDir()/hook elsewhere.
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir is $XDG_DATA_HOME/hook or ~/.local/share/hook on Linux and
// os.UserConfigDir()/hook elsewhere. The tracker is shared by every
// directory the user works in, so there is no per-repository default.
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// userDir joins AppName onto the XDG base named by xdgEnv, or onto
// $HOME/homeRel when that variable is unset.
func userDir(xdgEnv string, homeRel ...string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if base := os.Getenv(xdgEnv); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	elems := append([]string{home}, homeRel...)
	return filepath.Join(append(elems, AppName)...), nil
}

// ResolveConfigDir picks --config-dir, then HOOK_CONFIG_DIR, then
// DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir picks --data-dir, then data_dir from config.yaml, then
// HOOK_DATA_DIR, then DefaultDataDir.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	return firstAbs(DefaultDataDir, flag, configYAMLValue, os.Getenv(EnvDataDir))
}

// firstAbs returns the first non-empty candidate made absolute, or the
// fallback when every candidate is empty.
func firstAbs(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}
