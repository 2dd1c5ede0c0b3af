// Package mmapi is an HTTP client for the Motion Master management API.
//
// The management endpoint owns the connection to an EtherCAT chain of
// motion-control devices. This package consumes three of its operations:
//
//   - POST {base}/connect establishes the session. 200 means a fresh
//     connection; 409 means the session is already active and is treated
//     as success.
//   - GET {base}/devices enumerates the devices on the chain.
//   - POST {base}/devices/{position}/start-firmware-installation uploads a
//     firmware package as an octet-stream body.
//
// # Usage Example
//
//	client := mmapi.NewClient("http://localhost:63526/api")
//
//	outcome, err := client.Connect(ctx)
//	if err != nil {
//	    return err
//	}
//
//	devices, err := client.ListDevices(ctx)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := client.UploadFirmware(ctx, 1, payload, mmapi.DefaultInstallOptions())
//	if err != nil {
//	    return err // transport failure, no HTTP response
//	}
//	if !resp.OK() {
//	    fmt.Printf("%d - %s\n", resp.StatusCode, resp.Body)
//	}
//
// # Error Handling
//
// Connect and ListDevices return *APIError for any failure, classified as
// network, timeout, connection refused, DNS, HTTP, or parse errors.
// UploadFirmware is different: an HTTP error status from the endpoint is
// valid data and comes back in UploadResponse, never as an error. Only a
// failure to get any response at all is returned as an error.
//
// # Thread Safety
//
// Client instances are safe for concurrent use once configured.
package mmapi
