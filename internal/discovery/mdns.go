package discovery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/fwfleet/internal/logging"
)

const (
	// ServiceType is the mDNS service type the management API advertises
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for endpoint discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the management API's default port
	DefaultPort = 63526

	// DefaultPath is the API root when the TXT record names none
	DefaultPath = "/api"
)

// ErrNoEndpoint is returned by FindEndpoint when nothing answered in time
var ErrNoEndpoint = errors.New("no management endpoint found")

// instancePattern matches service instances of the motion management service
// (e.g., "Motion Master", "motion-master-rig3")
var instancePattern = regexp.MustCompile(`(?i)^motion[-_ ]?master\b`)

// Scanner handles mDNS endpoint discovery
type Scanner struct {
	// Timeout is the maximum time to wait for endpoint discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for management endpoints until the timeout and returns
// every distinct endpoint seen, ordered by base URL.
func (s *Scanner) Scan(ctx context.Context) ([]*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var mu sync.Mutex
	seen := make(map[string]*Endpoint)

	go func() {
		for entry := range entries {
			endpoint := parseServiceEntry(entry)
			if endpoint == nil {
				continue
			}
			logging.Debug("Endpoint discovered", zap.String("endpoint", endpoint.String()))
			mu.Lock()
			seen[endpoint.BaseURL()] = endpoint
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()

	endpoints := make([]*Endpoint, 0, len(seen))
	for _, endpoint := range seen {
		endpoints = append(endpoints, endpoint)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].BaseURL() < endpoints[j].BaseURL()
	})
	return endpoints, nil
}

// FindEndpoint returns the first management endpoint that answers
func (s *Scanner) FindEndpoint(ctx context.Context) (*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Endpoint, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if endpoint := parseServiceEntry(entry); endpoint != nil {
				select {
				case found <- endpoint:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case endpoint := <-found:
		return endpoint, nil
	case <-ctx.Done():
		select {
		case endpoint := <-found:
			return endpoint, nil
		default:
		}
		return nil, fmt.Errorf("%w within %s", ErrNoEndpoint, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Endpoint.
// Returns nil if the entry is not a management endpoint.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Endpoint {
	if entry == nil || !instancePattern.MatchString(entry.Instance) {
		return nil
	}

	// Prefer IPv4
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	path := metadata["path"]
	if path == "" || path == "/" {
		path = DefaultPath
	}

	return &Endpoint{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Path:         path,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
