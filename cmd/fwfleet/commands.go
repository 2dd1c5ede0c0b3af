package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/fwfleet/internal/config"
	"github.com/muurk/fwfleet/internal/discovery"
	"github.com/muurk/fwfleet/internal/firmware"
	"github.com/muurk/fwfleet/internal/install"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/mmapi"
	"github.com/muurk/fwfleet/internal/ui"
)

// Endpoint flags shared by every command that talks to the management API
var (
	configPath      string
	baseURL         string
	discover        bool
	discoverTimeout time.Duration
	outputFormat    string
)

// install flags
var (
	firmwareFlags  []string
	skipFiles      []string
	noSkipSII      bool
	requestTimeout time.Duration
	concurrency    int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: OS config dir, fwfleet/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Management API base URL (default "+mmapi.DefaultBaseURL+")")
	rootCmd.PersistentFlags().BoolVar(&discover, "discover", false, "Locate the management endpoint via mDNS")
	rootCmd.PersistentFlags().DurationVar(&discoverTimeout, "discover-timeout", 0, "mDNS browse timeout (default from config, 5s)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(configCmd)
}

// installCmd runs firmware installation on all devices
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install firmware on every mapped device",
	Long: `Connect to the management endpoint, enumerate its devices and upload a
firmware package to each device that has one mapped to its position.

Uploads run concurrently. A device without a mapped package is skipped;
a failed upload is reported for that device and does not stop the others.
The command exits non-zero if the run could not start or any device failed.`,
	Example: `  # Map packages on the command line
  fwfleet install --firmware 1=node.zip --firmware 2=circulo.zip

  # Use the mapping from the config file, two uploads at a time
  fwfleet install --config rig3.yaml --concurrency 2

  # Also install SII and upload every file in the package
  fwfleet install --firmware 0=drive.zip --no-skip-sii --skip-file ""

  # Machine-readable report
  fwfleet install --format json > report.json`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringArrayVar(&firmwareFlags, "firmware", nil, "Firmware package for a position as position=path (repeatable)")
	installCmd.Flags().StringArrayVar(&skipFiles, "skip-file", nil, "Package file the device must not install (repeatable; replaces the configured list)")
	installCmd.Flags().BoolVar(&noSkipSII, "no-skip-sii", false, "Install the SII file from the package")
	installCmd.Flags().DurationVar(&requestTimeout, "request-timeout", 0, "Endpoint-side timeout per installation (default 2m)")
	installCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum uploads in flight (0: all devices at once)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := ui.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mapping, err := buildMapping(cfg, firmwareFlags)
	if err != nil {
		return err
	}

	opts, limit, err := buildInstallOptions(cmd, cfg)
	if err != nil {
		return err
	}

	endpoint, err := resolveEndpoint(ctx, cfg)
	if err != nil {
		return err
	}

	client := mmapi.NewClient(endpoint)
	d := install.NewDispatcher(client, firmware.NewResolver(mapping, cfg.Loader()), opts)
	d.Concurrency = limit

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Firmware Installation",
		Command: "fwfleet install",
		Params:  installParams(endpoint, mapping, opts, limit),
		Format:  format,
		Live:    format != ui.FormatJSON && ui.IsTerminal(os.Stdout),
		Output:  cmd.OutOrStdout(),
	})

	report, err := runner.Run(func(hooks install.Hooks) (*install.Report, error) {
		d.Hooks = hooks
		report, err := d.Run(ctx)
		if report != nil {
			report.BaseURL = endpoint
		}
		return report, err
	})
	if err != nil {
		return err
	}

	if c := report.Counts(); c.Error > 0 {
		return fmt.Errorf("%d of %d devices failed", c.Error, c.Total())
	}
	return nil
}

// buildMapping merges the config's firmware section with --firmware flags.
// Flag paths are relative to the working directory, so they are made
// absolute before they meet the config-relative loader.
func buildMapping(cfg *config.Config, flags []string) (firmware.Mapping, error) {
	mapping := cfg.Mapping()

	parsed, err := firmware.ParseMapping(flags)
	if err != nil {
		return nil, err
	}
	for position, path := range parsed {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid firmware path %q: %w", path, err)
		}
		mapping[position] = abs
	}
	return mapping, nil
}

// buildInstallOptions applies install flags over the config values
func buildInstallOptions(cmd *cobra.Command, cfg *config.Config) (mmapi.InstallOptions, int, error) {
	opts := cfg.InstallOptions()
	limit := cfg.Concurrency()

	flags := cmd.Flags()
	if flags.Changed("skip-file") {
		opts.SkipFiles = nonEmpty(skipFiles)
	}
	if noSkipSII {
		opts.SkipSIIInstallation = false
	}
	if flags.Changed("request-timeout") {
		if requestTimeout <= 0 {
			return opts, 0, fmt.Errorf("--request-timeout must be positive")
		}
		opts.RequestTimeout = requestTimeout
	}
	if flags.Changed("concurrency") {
		if concurrency < 0 {
			return opts, 0, fmt.Errorf("--concurrency must not be negative")
		}
		limit = concurrency
	}
	return opts, limit, nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func installParams(endpoint string, mapping firmware.Mapping, opts mmapi.InstallOptions, limit int) []ui.Param {
	positions := mapping.Positions()
	mapped := make([]string, len(positions))
	for i, p := range positions {
		mapped[i] = strconv.Itoa(p)
	}
	if len(mapped) == 0 {
		mapped = []string{"none"}
	}

	skip := strings.Join(opts.SkipFiles, ", ")
	if skip == "" {
		skip = "none"
	}

	limitText := "unlimited"
	if limit > 0 {
		limitText = strconv.Itoa(limit)
	}

	return []ui.Param{
		{Key: "Endpoint", Value: endpoint},
		{Key: "Positions", Value: strings.Join(mapped, ", ")},
		{Key: "Skip SII", Value: strconv.FormatBool(opts.SkipSIIInstallation)},
		{Key: "Skip files", Value: skip},
		{Key: "Timeout", Value: opts.RequestTimeout.String()},
		{Key: "Concurrency", Value: limitText},
	}
}

// resolveEndpoint picks the base URL: --base-url, then mDNS when asked
// for, then FWFLEET_BASE_URL, the config file and the built-in default.
func resolveEndpoint(ctx context.Context, cfg *config.Config) (string, error) {
	if baseURL != "" {
		return baseURL, nil
	}

	useDiscovery := discover || (cfg.Endpoint != nil && cfg.Endpoint.Discover && os.Getenv(config.BaseURLEnvVar) == "")
	if !useDiscovery {
		return cfg.ResolveBaseURL(""), nil
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = cfg.DiscoverTimeout()
	if discoverTimeout > 0 {
		scanner.Timeout = discoverTimeout
	}

	endpoint, err := scanner.FindEndpoint(ctx)
	if err != nil {
		return "", fmt.Errorf("endpoint discovery failed: %w (use --base-url to set it manually)", err)
	}
	logging.Info("Using discovered endpoint", zap.String("endpoint", endpoint.String()))
	return endpoint.BaseURL(), nil
}

// connectCmd opens the session on the endpoint
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open the management session",
	Long: `Ask the endpoint to connect to its devices. Calling this when the session
is already open succeeds.`,
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	endpoint, err := resolveEndpoint(ctx, cfg)
	if err != nil {
		return err
	}

	outcome, err := mmapi.NewClient(endpoint).Connect(ctx)
	if err != nil {
		if outputFormat == string(ui.FormatDetailed) {
			ui.NewPrinter(cmd.OutOrStdout()).PrintError("Connect failed", err, mmapi.TroubleshootingHints(err))
		}
		return err
	}

	switch outputFormat {
	case string(ui.FormatJSON):
		return printJSON(cmd.OutOrStdout(), map[string]string{"base_url": endpoint, "session": outcome.String()})
	case string(ui.FormatCompact):
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", endpoint, outcome)
		return err
	default:
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Session ready", []ui.Param{
			{Key: "Endpoint", Value: endpoint},
			{Key: "Session", Value: outcome.String()},
		})
		return nil
	}
}

// devicesCmd lists devices and the firmware each would receive
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices and their mapped firmware",
	Long: `Connect, enumerate the endpoint's devices and show which firmware
package each one would receive. Nothing is installed.`,
	Example: `  fwfleet devices --firmware 1=node.zip
  fwfleet devices --format json`,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().StringArrayVar(&firmwareFlags, "firmware", nil, "Firmware package for a position as position=path (repeatable)")
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := ui.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	mapping, err := buildMapping(cfg, firmwareFlags)
	if err != nil {
		return err
	}
	endpoint, err := resolveEndpoint(ctx, cfg)
	if err != nil {
		return err
	}

	client := mmapi.NewClient(endpoint)
	if _, err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	devices, err := client.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("device enumeration failed: %w", err)
	}

	resolver := firmware.NewResolver(mapping, nil)
	out := cmd.OutOrStdout()

	if format == ui.FormatJSON {
		type entry struct {
			Device   mmapi.Device `json:"device"`
			Firmware string       `json:"firmware,omitempty"`
		}
		entries := make([]entry, 0, len(devices))
		for _, d := range devices {
			src, _ := resolver.Resolve(d)
			entries = append(entries, entry{Device: d, Firmware: src.Path})
		}
		return printJSON(out, entries)
	}

	if len(devices) == 0 {
		_, err := fmt.Fprintf(out, "No devices reported by %s\n", endpoint)
		return err
	}
	for _, d := range devices {
		line := d.String()
		if src, ok := resolver.Resolve(d); ok {
			line += " -> " + src.Path
		} else if format == ui.FormatDetailed {
			line += " (skipped)"
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// discoverCmd scans for management endpoints
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find management endpoints via mDNS",
	Long: `Browse the local network for motion management endpoints advertised
over mDNS/DNS-SD and print their base URLs.`,
	Example: `  fwfleet discover
  fwfleet discover --discover-timeout 15s`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	if discoverTimeout > 0 {
		scanner.Timeout = discoverTimeout
	}

	out := cmd.OutOrStdout()
	if outputFormat != string(ui.FormatJSON) {
		_, _ = fmt.Fprintf(out, "Scanning for management endpoints (timeout: %s)...\n\n", scanner.Timeout)
	}

	endpoints, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if outputFormat == string(ui.FormatJSON) {
		urls := make([]map[string]string, 0, len(endpoints))
		for _, e := range endpoints {
			urls = append(urls, map[string]string{"instance": e.Instance, "hostname": e.Hostname, "base_url": e.BaseURL()})
		}
		return printJSON(out, urls)
	}

	if len(endpoints) == 0 {
		_, _ = fmt.Fprintln(out, "No endpoints found.")
		_, _ = fmt.Fprintln(out, "\nTroubleshooting:")
		_, _ = fmt.Fprintln(out, "  - Ensure Motion Master is running on the same network segment")
		_, _ = fmt.Fprintln(out, "  - Check that the firewall allows mDNS (UDP 5353)")
		_, _ = fmt.Fprintln(out, "  - Try increasing --discover-timeout")
		_, _ = fmt.Fprintln(out, "  - Use --base-url to set the endpoint manually")
		return nil
	}

	_, _ = fmt.Fprintf(out, "Found %d endpoint(s):\n\n", len(endpoints))
	for i, e := range endpoints {
		_, _ = fmt.Fprintf(out, "%d. %s\n", i+1, e.Instance)
		_, _ = fmt.Fprintf(out, "   Host:     %s\n", e.Hostname)
		_, _ = fmt.Fprintf(out, "   Base URL: %s\n\n", e.BaseURL())
	}
	return nil
}

// configCmd groups config file commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the fwfleet config file",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := targetConfigPath()
		if err != nil {
			return err
		}
		if config.ConfigExists(path) && !configForce {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
		if _, err := config.CreateExampleConfig(path); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		format := config.FormatYAML
		if outputFormat == string(ui.FormatJSON) {
			format = config.FormatJSONC
		}
		data, err := cfg.Marshal(format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := targetConfigPath()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func targetConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
