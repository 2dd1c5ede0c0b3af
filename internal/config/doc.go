// Package config loads and saves the fwfleet run configuration.
//
// A config file names the management endpoint, the per-upload options and
// the firmware package for each device position. YAML is the default
// format; files ending in .json or .jsonc are read as JSON with comments.
//
// # Configuration File Location
//
// The default file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/fwfleet/config.yaml or $HOME/.config/fwfleet/config.yaml
//   - macOS: $HOME/.config/fwfleet/config.yaml
//   - Windows: %LOCALAPPDATA%\fwfleet\config.yaml
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := mmapi.NewClient(cfg.ResolveBaseURL(""))
//	resolver := firmware.NewResolver(cfg.Mapping(), cfg.Loader())
//	d := install.NewDispatcher(client, resolver, cfg.InstallOptions())
//
// Saves are atomic: the file is written to a temporary path and renamed.
package config
