package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/fwfleet/internal/mmapi"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "fwfleet") {
		t.Errorf("GetConfigDir() = %v, should contain 'fwfleet'", configDir)
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	want := filepath.Join(xdg, "fwfleet", "config.yaml")
	if configPath != want {
		t.Errorf("GetConfigPath() = %v, want %v", configPath, want)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %v, want 1", cfg.Version)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	opts := cfg.InstallOptions()
	want := mmapi.DefaultInstallOptions()
	if opts.Query() != want.Query() {
		t.Errorf("InstallOptions().Query() = %s, want %s", opts.Query(), want.Query())
	}
	if cfg.Endpoint.BaseURL != mmapi.DefaultBaseURL {
		t.Errorf("Endpoint.BaseURL = %s, want %s", cfg.Endpoint.BaseURL, mmapi.DefaultBaseURL)
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`version: 1
endpoint:
  base_url: http://10.0.0.5:63526/api
  discover_timeout: 3
installation:
  skip_sii_installation: false
  skip_files: [stack_image.svg.zip]
  request_timeout_ms: 60000
  concurrency: 2
firmware:
  0: base.zip
  1: node.zip
  2: /opt/firmware/circulo.zip
`)

	cfg, err := Parse(data, FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Endpoint.BaseURL != "http://10.0.0.5:63526/api" {
		t.Errorf("BaseURL = %s", cfg.Endpoint.BaseURL)
	}
	if cfg.DiscoverTimeout() != 3*time.Second {
		t.Errorf("DiscoverTimeout() = %v", cfg.DiscoverTimeout())
	}
	if cfg.Concurrency() != 2 {
		t.Errorf("Concurrency() = %d, want 2", cfg.Concurrency())
	}

	opts := cfg.InstallOptions()
	if opts.SkipSIIInstallation {
		t.Error("SkipSIIInstallation should be false")
	}
	if len(opts.SkipFiles) != 1 || opts.SkipFiles[0] != "stack_image.svg.zip" {
		t.Errorf("SkipFiles = %v", opts.SkipFiles)
	}
	if opts.RequestTimeout != time.Minute {
		t.Errorf("RequestTimeout = %v", opts.RequestTimeout)
	}

	mapping := cfg.Mapping()
	if len(mapping) != 3 || mapping[0] != "base.zip" || mapping[2] != "/opt/firmware/circulo.zip" {
		t.Errorf("Mapping() = %v", mapping)
	}
}

func TestParseJSONC(t *testing.T) {
	data := []byte(`{
  // management endpoint
  "version": 1,
  "endpoint": {"base_url": "http://rig-3.local:63526/api"},
  /* one package per slave */
  "firmware": {
    "1": "node.zip",
    "4": "circulo.zip",
  },
}`)

	cfg, err := Parse(data, FormatJSONC)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Endpoint.BaseURL != "http://rig-3.local:63526/api" {
		t.Errorf("BaseURL = %s", cfg.Endpoint.BaseURL)
	}
	if cfg.Firmware[4] != "circulo.zip" {
		t.Errorf("Firmware = %v", cfg.Firmware)
	}

	// Missing installation section falls back to defaults
	if cfg.InstallOptions().Query() != mmapi.DefaultInstallOptions().Query() {
		t.Error("InstallOptions() should use defaults when the section is absent")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"version 2", "version: 2\n", ErrUnsupportedVersion},
		{"missing version", "firmware:\n  1: a.zip\n", ErrUnsupportedVersion},
		{"negative position", "version: 1\nfirmware:\n  -1: a.zip\n", nil},
		{"empty path", "version: 1\nfirmware:\n  1: \"\"\n", nil},
		{"negative concurrency", "version: 1\ninstallation:\n  concurrency: -1\n", nil},
		{"malformed", "version: [\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatYAML)
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.jsonc"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rig", name)

			cfg := NewConfig()
			cfg.Firmware[1] = "packages/node.zip"
			cfg.Installation.Concurrency = 4

			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Error("temporary file should not remain after Save()")
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if loaded.Path() != path {
				t.Errorf("Path() = %s, want %s", loaded.Path(), path)
			}
			if loaded.Firmware[1] != "packages/node.zip" || loaded.Concurrency() != 4 {
				t.Errorf("loaded config = %+v", loaded)
			}
			if loaded.Loader().Dir != filepath.Dir(path) {
				t.Errorf("Loader().Dir = %s, want %s", loaded.Loader().Dir, filepath.Dir(path))
			}
		})
	}
}

func TestSaveAndLoad_EmptySkipFiles(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.jsonc"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg, err := Parse([]byte("version: 1\ninstallation:\n  skip_files: []\n"), FormatYAML)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := cfg.InstallOptions().SkipFiles; len(got) != 0 {
				t.Fatalf("parsed SkipFiles = %v, want none", got)
			}

			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := loaded.InstallOptions().SkipFiles; len(got) != 0 {
				t.Errorf("SkipFiles after reload = %v, want none", got)
			}
		})
	}

	// Unset still takes the defaults.
	cfg, err := Parse([]byte("version: 1\ninstallation:\n  concurrency: 2\n"), FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := cfg.InstallOptions().SkipFiles; len(got) != 2 {
		t.Errorf("unset SkipFiles = %v, want defaults", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if runtime.GOOS == "linux" {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load(\"\") error = %v", err)
		}
		if cfg.Path() != "" || cfg.Version != 1 {
			t.Errorf("missing default config should yield defaults, got %+v", cfg)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of an explicit missing file should fail")
	}
}

func TestResolveBaseURL(t *testing.T) {
	cfg := NewConfig()
	cfg.Endpoint.BaseURL = "http://from-file:63526/api"

	t.Setenv(BaseURLEnvVar, "")
	if got := cfg.ResolveBaseURL(""); got != "http://from-file:63526/api" {
		t.Errorf("file value: got %s", got)
	}

	t.Setenv(BaseURLEnvVar, "http://from-env:63526/api")
	if got := cfg.ResolveBaseURL(""); got != "http://from-env:63526/api" {
		t.Errorf("env value: got %s", got)
	}
	if got := cfg.ResolveBaseURL("http://from-flag/api"); got != "http://from-flag/api" {
		t.Errorf("flag value: got %s", got)
	}
}

func TestCreateExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if _, err := CreateExampleConfig(path); err != nil {
		t.Fatalf("CreateExampleConfig() error = %v", err)
	}
	if !ConfigExists(path) {
		t.Fatal("ConfigExists() should be true after CreateExampleConfig()")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# fwfleet configuration") {
		t.Error("YAML config should start with the comment header")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Firmware) != 2 {
		t.Errorf("example firmware = %v", cfg.Firmware)
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
