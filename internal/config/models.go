package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/muurk/fwfleet/internal/firmware"
	"github.com/muurk/fwfleet/internal/mmapi"
)

// CurrentVersion is the only config file version this build reads
const CurrentVersion = 1

// Config represents the run configuration file.
// Command-line flags override every value here.
type Config struct {
	Version      int           `yaml:"version" json:"version"`
	Endpoint     *Endpoint     `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Installation *Installation `yaml:"installation,omitempty" json:"installation,omitempty"`

	// Firmware maps device positions to package paths. Relative paths are
	// resolved against the directory holding the config file.
	Firmware map[int]string `yaml:"firmware,omitempty" json:"firmware,omitempty"`

	// path is the file the config was loaded from, empty for defaults
	path string
}

// Endpoint describes how to reach the management API.
type Endpoint struct {
	BaseURL         string `yaml:"base_url,omitempty" json:"base_url,omitempty"`             // e.g. http://localhost:63526/api
	Discover        bool   `yaml:"discover,omitempty" json:"discover,omitempty"`             // Find the endpoint via mDNS when no base URL is set
	DiscoverTimeout int    `yaml:"discover_timeout,omitempty" json:"discover_timeout,omitempty"` // mDNS browse timeout in seconds
}

// Installation holds the per-upload options. A nil SkipFiles takes the
// defaults; an empty list skips nothing and is kept when saved.
type Installation struct {
	SkipSIIInstallation *bool     `yaml:"skip_sii_installation,omitempty" json:"skip_sii_installation,omitempty"`
	SkipFiles           *[]string `yaml:"skip_files,omitempty" json:"skip_files,omitempty"`
	RequestTimeoutMs    int       `yaml:"request_timeout_ms,omitempty" json:"request_timeout_ms,omitempty"`
	Concurrency         int       `yaml:"concurrency,omitempty" json:"concurrency,omitempty"` // 0 uploads to every device at once
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	skipSII := true
	skipFiles := []string{mmapi.SkipFileESI, mmapi.SkipFileStackImage}
	return &Config{
		Version: CurrentVersion,
		Endpoint: &Endpoint{
			BaseURL:         mmapi.DefaultBaseURL,
			DiscoverTimeout: 5,
		},
		Installation: &Installation{
			SkipSIIInstallation: &skipSII,
			SkipFiles:           &skipFiles,
			RequestTimeoutMs:    int(mmapi.DefaultRequestTimeout / time.Millisecond),
		},
		Firmware: make(map[int]string),
	}
}

// Path returns the file the config was loaded from, empty for defaults.
func (c *Config) Path() string {
	return c.path
}

// Validate checks values that would make a run meaningless.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, c.Version, CurrentVersion)
	}
	if c.Installation != nil {
		if c.Installation.RequestTimeoutMs < 0 {
			return fmt.Errorf("installation.request_timeout_ms must not be negative")
		}
		if c.Installation.Concurrency < 0 {
			return fmt.Errorf("installation.concurrency must not be negative")
		}
	}
	for position, path := range c.Firmware {
		if position < 0 {
			return fmt.Errorf("firmware position %d must not be negative", position)
		}
		if path == "" {
			return fmt.Errorf("firmware position %d has an empty path", position)
		}
	}
	if c.Endpoint != nil && c.Endpoint.DiscoverTimeout < 0 {
		return fmt.Errorf("endpoint.discover_timeout must not be negative")
	}
	return nil
}

// InstallOptions converts the installation section to upload options.
// Missing values take the defaults.
func (c *Config) InstallOptions() mmapi.InstallOptions {
	opts := mmapi.DefaultInstallOptions()
	inst := c.Installation
	if inst == nil {
		return opts
	}
	if inst.SkipSIIInstallation != nil {
		opts.SkipSIIInstallation = *inst.SkipSIIInstallation
	}
	if inst.SkipFiles != nil {
		opts.SkipFiles = append([]string{}, (*inst.SkipFiles)...)
	}
	if inst.RequestTimeoutMs > 0 {
		opts.RequestTimeout = time.Duration(inst.RequestTimeoutMs) * time.Millisecond
	}
	return opts
}

// Concurrency returns the upload limit, 0 for none.
func (c *Config) Concurrency() int {
	if c.Installation == nil {
		return 0
	}
	return c.Installation.Concurrency
}

// Mapping returns a copy of the firmware section.
func (c *Config) Mapping() firmware.Mapping {
	m := make(firmware.Mapping, len(c.Firmware))
	for position, path := range c.Firmware {
		m[position] = path
	}
	return m
}

// Loader reads packages relative to the config file's directory.
func (c *Config) Loader() firmware.FileLoader {
	if c.path == "" {
		return firmware.FileLoader{}
	}
	return firmware.FileLoader{Dir: filepath.Dir(c.path)}
}

// DiscoverTimeout returns the mDNS browse timeout.
func (c *Config) DiscoverTimeout() time.Duration {
	if c.Endpoint == nil || c.Endpoint.DiscoverTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Endpoint.DiscoverTimeout) * time.Second
}
