package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/muurk/fwfleet/internal/mmapi"
)

const (
	appName    = "fwfleet"
	configFile = "config.yaml"

	// BaseURLEnvVar overrides the configured base URL when no flag is given
	BaseURLEnvVar = "FWFLEET_BASE_URL"
)

// ErrUnsupportedVersion is returned for config files of an unknown version
var ErrUnsupportedVersion = errors.New("unsupported config version")

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/fwfleet or $HOME/.config/fwfleet
//   - macOS: $HOME/.config/fwfleet
//   - Windows: %LOCALAPPDATA%\fwfleet
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the config at path. An empty path means the default location,
// where a missing file yields the defaults. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		defaultPath, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Format names a config file encoding
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSONC Format = "jsonc"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Parse decodes and validates a config document. JSONC input may carry
// comments and trailing commas.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Firmware == nil {
		cfg.Firmware = make(map[int]string)
	}
	return &cfg, nil
}

// ResolveBaseURL picks the management base URL. A flag value wins, then
// FWFLEET_BASE_URL, then the config file, then the built-in default.
func (c *Config) ResolveBaseURL(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(BaseURLEnvVar); env != "" {
		return env
	}
	if c.Endpoint != nil && c.Endpoint.BaseURL != "" {
		return c.Endpoint.BaseURL
	}
	return mmapi.DefaultBaseURL
}

// Save writes the config to path, or the default location when path is empty.
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		defaultPath, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = defaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(formatOf(path))
	if err != nil {
		return err
	}

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	c.path = path
	return nil
}

// Marshal encodes the config. YAML output starts with a comment header.
func (c *Config) Marshal(format Format) ([]byte, error) {
	if format == FormatJSONC {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	buf.WriteString(`# fwfleet configuration
#
# firmware maps device positions to package files. Relative paths are
# resolved against this file's directory. Devices without an entry are
# skipped.

`)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// ConfigExists checks if a config file exists at path or the default location.
func ConfigExists(path string) bool {
	if path == "" {
		defaultPath, err := GetConfigPath()
		if err != nil {
			return false
		}
		path = defaultPath
	}
	_, err := os.Stat(path)
	return err == nil
}

// CreateExampleConfig writes an example config file with placeholder packages.
func CreateExampleConfig(path string) (*Config, error) {
	cfg := NewConfig()
	cfg.Firmware = map[int]string{
		1: "packages/package-node-v5.2.1.zip",
		2: "packages/package-circulo-v5.2.1.zip",
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	return cfg, nil
}
