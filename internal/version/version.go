// Package version reports the build identity of fwfleet.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/fwfleet/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/fwfleet/internal/version.Commit=abc1234"
//
// Unset values are filled from the module's VCS build info, then "dev".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		info, ok := debug.ReadBuildInfo()
		if ok {
			fillFromSettings(info.Main.Version, info.Settings)
		}
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fillFromSettings takes the module version and VCS stamp from build info.
// A tagged module version wins over a date-based dev version.
func fillFromSettings(moduleVersion string, settings []debug.BuildSetting) {
	var revision, modified, vcsTime string
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = revision
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	if Version != "" {
		return
	}
	if moduleVersion != "" && moduleVersion != "(devel)" {
		Version = moduleVersion
		return
	}
	if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
		Version = "dev-" + t.UTC().Format("20060102")
	}
}

// Info is the build identity printed by "fwfleet version"
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build identity
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Full returns the version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent is sent with every management API request
func UserAgent() string {
	return "fwfleet/" + strings.TrimPrefix(Version, "v")
}
