// Package discovery locates the motion management API on the local network
// using multicast DNS (mDNS).
//
// The management service advertises itself as an "_http._tcp" service whose
// instance name starts with "Motion Master". A "path" TXT record, when
// present, names the API root; otherwise "/api" is assumed.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	endpoint, err := scanner.FindEndpoint(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := mmapi.NewClient(endpoint.BaseURL())
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The endpoint must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
