package mmapi

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Skip-file names used by the default installation options. These are the
// ESI description and the stack image shipped inside SOMANET packages.
const (
	SkipFileESI        = "SOMANET_CiA_402.xml.zip"
	SkipFileStackImage = "stack_image.svg.zip"
)

// DefaultRequestTimeout is how long the endpoint may spend on one
// installation before it reports a timeout. Flashing a drive over
// EtherCAT routinely takes more than a minute.
const DefaultRequestTimeout = 120 * time.Second

// InstallOptions are the query options sent with every firmware upload
type InstallOptions struct {
	// SkipSIIInstallation tells the endpoint not to rewrite the SII EEPROM
	SkipSIIInstallation bool `json:"skip_sii_installation"`

	// SkipFiles names package files the endpoint must not write to the device
	SkipFiles []string `json:"skip_files"`

	// RequestTimeout is passed to the endpoint in milliseconds
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultInstallOptions returns the options for a standard SOMANET package:
// keep the SII, skip the ESI and stack image files.
func DefaultInstallOptions() InstallOptions {
	return InstallOptions{
		SkipSIIInstallation: true,
		SkipFiles:           []string{SkipFileESI, SkipFileStackImage},
		RequestTimeout:      DefaultRequestTimeout,
	}
}

// RequestTimeoutMillis returns the timeout as the integer the endpoint expects
func (o InstallOptions) RequestTimeoutMillis() int64 {
	return o.RequestTimeout.Milliseconds()
}

// Query encodes the options in the order the endpoint documents them:
// skip-sii-installation, each skip-files entry, then request-timeout.
// url.Values.Encode is not used because it sorts keys.
func (o InstallOptions) Query() string {
	parts := make([]string, 0, len(o.SkipFiles)+2)
	parts = append(parts, "skip-sii-installation="+strconv.FormatBool(o.SkipSIIInstallation))
	for _, name := range o.SkipFiles {
		parts = append(parts, "skip-files="+url.QueryEscape(name))
	}
	parts = append(parts, "request-timeout="+strconv.FormatInt(o.RequestTimeoutMillis(), 10))
	return strings.Join(parts, "&")
}
