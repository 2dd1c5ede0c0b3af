package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func serviceEntry(instance, host string, port int, ipv4, ipv6 []net.IP, text ...string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	entry.HostName = host
	entry.Port = port
	entry.AddrIPv4 = ipv4
	entry.AddrIPv6 = ipv6
	entry.Text = text
	return entry
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name        string
		entry       *zeroconf.ServiceEntry
		wantNil     bool
		wantBaseURL string
	}{
		{
			name:        "motion master with IPv4",
			entry:       serviceEntry("Motion Master", "rig3.local.", 63526, []net.IP{net.ParseIP("192.168.4.16")}, nil, "path=/api"),
			wantBaseURL: "http://192.168.4.16:63526/api",
		},
		{
			name:        "hyphenated instance and custom path",
			entry:       serviceEntry("motion-master-rig7", "rig7.local.", 8080, []net.IP{net.ParseIP("10.0.0.5")}, nil, "path=/mm/api/"),
			wantBaseURL: "http://10.0.0.5:8080/mm/api",
		},
		{
			name:        "no port and no path (defaults)",
			entry:       serviceEntry("Motion Master", "rig.local.", 0, []net.IP{net.ParseIP("172.16.0.1")}, nil),
			wantBaseURL: "http://172.16.0.1:63526/api",
		},
		{
			name:        "IPv6 only",
			entry:       serviceEntry("Motion Master", "rig.local.", 63526, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantBaseURL: "http://[fe80::1]:63526/api",
		},
		{
			name:        "both families prefers IPv4",
			entry:       serviceEntry("Motion Master", "rig.local.", 63526, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}),
			wantBaseURL: "http://192.168.1.50:63526/api",
		},
		{
			name:    "unrelated http service",
			entry:   serviceEntry("Office Printer", "printer.local.", 80, []net.IP{net.ParseIP("192.168.1.1")}, nil),
			wantNil: true,
		},
		{
			name:    "no address",
			entry:   serviceEntry("Motion Master", "rig.local.", 63526, nil, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if endpoint != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", endpoint)
				}
				return
			}

			if endpoint == nil {
				t.Fatal("parseServiceEntry() = nil, want endpoint")
			}
			if got := endpoint.BaseURL(); got != tt.wantBaseURL {
				t.Errorf("BaseURL() = %v, want %v", got, tt.wantBaseURL)
			}
			if endpoint.Hostname != tt.entry.HostName {
				t.Errorf("Hostname = %v, want %v", endpoint.Hostname, tt.entry.HostName)
			}
			if time.Since(endpoint.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", endpoint.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := serviceEntry("Motion Master", "rig.local.", 63526, []net.IP{net.ParseIP("192.168.4.16")}, nil,
		"path=/api", "version=5.2.1", "flag")

	endpoint := parseServiceEntry(entry)
	if endpoint == nil {
		t.Fatal("parseServiceEntry() = nil, want endpoint")
	}

	expected := map[string]string{
		"path":    "/api",
		"version": "5.2.1",
		"flag":    "",
	}
	for key, want := range expected {
		if got := endpoint.GetMetadata(key); got != want {
			t.Errorf("GetMetadata(%q) = %q, want %q", key, got, want)
		}
	}
	if got := endpoint.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}
}

func TestInstancePattern(t *testing.T) {
	tests := []struct {
		instance    string
		shouldMatch bool
	}{
		{"Motion Master", true},
		{"motion-master", true},
		{"motion_master-rig3", true},
		{"MotionMaster", true},
		{"Motion Masterful", false},
		{"Remote Motion Master", false},
		{"printer", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.instance, func(t *testing.T) {
			if got := instancePattern.MatchString(tt.instance); got != tt.shouldMatch {
				t.Errorf("instancePattern.MatchString(%q) = %v, want %v", tt.instance, got, tt.shouldMatch)
			}
		})
	}
}

func TestEndpoint_String(t *testing.T) {
	endpoint := &Endpoint{Instance: "Motion Master", Hostname: "rig.local.", IP: "10.0.0.9", Port: 63526}

	want := "Motion Master (rig.local.) at http://10.0.0.9:63526/api"
	if got := endpoint.String(); got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
