package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Endpoint is a management API advertised on the local network
type Endpoint struct {
	// Instance is the mDNS service instance name (e.g., "motion-master-rig3")
	Instance string

	// Hostname is the mDNS hostname (e.g., "rig3.local.")
	Hostname string

	// IP is the advertised address, IPv4 preferred
	IP string

	// Port is the API port (typically 63526)
	Port int

	// Path is the API root path from the TXT record, "/api" by default
	Path string

	// Metadata contains the remaining mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("%s (%s) at %s", e.Instance, e.Hostname, e.BaseURL())
}

// BaseURL returns the management API base URL, usable with mmapi.NewClient
func (e *Endpoint) BaseURL() string {
	host := net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
	path := e.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + host + strings.TrimSuffix(path, "/")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
