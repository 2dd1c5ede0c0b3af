package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withVars(t *testing.T, v, c string) {
	t.Helper()
	oldV, oldC := Version, Commit
	Version, Commit = v, c
	t.Cleanup(func() { Version, Commit = oldV, oldC })
}

func TestFillFromSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
	}

	tests := []struct {
		name          string
		moduleVersion string
		wantVersion   string
	}{
		{"devel build", "(devel)", "dev-20260301"},
		{"tagged module", "v0.3.0", "v0.3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVars(t, "", "")
			fillFromSettings(tt.moduleVersion, settings)

			if Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", Version, tt.wantVersion)
			}
			if Commit != "0123456-dirty" {
				t.Errorf("Commit = %q, want 0123456-dirty", Commit)
			}
		})
	}
}

func TestFillFromSettings_KeepsLdflags(t *testing.T) {
	withVars(t, "v1.0.0", "feedbee")
	fillFromSettings("v0.9.0", []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789"}})

	if Version != "v1.0.0" || Commit != "feedbee" {
		t.Errorf("ldflags values were overwritten: %s %s", Version, Commit)
	}
}

func TestUserAgent(t *testing.T) {
	withVars(t, "v1.2.3", "abc1234")

	if got := UserAgent(); got != "fwfleet/1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
	if got := Full(); got != "v1.2.3 (commit: abc1234)" {
		t.Errorf("Full() = %q", got)
	}
	if info := Get(); info.Version != "v1.2.3" || !strings.Contains(info.Platform, "/") {
		t.Errorf("Get() = %+v", info)
	}
}
