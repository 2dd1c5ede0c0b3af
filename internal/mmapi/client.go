package mmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/version"
)

const (
	// DefaultBaseURL is where Motion Master Client serves its HTTP API
	DefaultBaseURL = "http://localhost:63526/api"

	// DefaultTimeout bounds connect and device enumeration requests
	DefaultTimeout = 10 * time.Second

	// DefaultUploadGrace is added to the endpoint-side request timeout to
	// get the client-side deadline for an upload. The endpoint needs time
	// to report its own timeout after it gives up.
	DefaultUploadGrace = 30 * time.Second

	// maxResponseBody limits how much of any response is read
	maxResponseBody = 8 << 20
)

// SessionOutcome is the result of a successful Connect
type SessionOutcome int

const (
	// SessionEstablished means the endpoint opened a new session (200)
	SessionEstablished SessionOutcome = iota
	// SessionAlreadyEstablished means a session was already active (409)
	SessionAlreadyEstablished
)

// String returns a human-readable name for the outcome
func (s SessionOutcome) String() string {
	switch s {
	case SessionEstablished:
		return "established"
	case SessionAlreadyEstablished:
		return "already-established"
	default:
		return fmt.Sprintf("SessionOutcome(%d)", s)
	}
}

// UploadResponse is the endpoint's answer to a firmware upload. Error
// statuses are returned here too; they carry the diagnostic body.
type UploadResponse struct {
	StatusCode int
	Body       string
	Elapsed    time.Duration
}

// OK reports whether the installation succeeded
func (r *UploadResponse) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Client represents an HTTP client for the management endpoint
type Client struct {
	// BaseURL is the API root (e.g., "http://localhost:63526/api")
	BaseURL string

	// HTTPClient is the underlying HTTP client. It has no global timeout;
	// every call sets its own deadline.
	HTTPClient *http.Client

	// Timeout bounds Connect and ListDevices
	Timeout time.Duration

	// UploadGrace is added to InstallOptions.RequestTimeout for uploads
	UploadGrace time.Duration
}

// NewClient creates a new management endpoint client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTPClient:  &http.Client{},
		Timeout:     DefaultTimeout,
		UploadGrace: DefaultUploadGrace,
	}
}

// SetTimeout sets the connect/enumeration timeout. Values <= 0 restore
// DefaultTimeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.Timeout = timeout
}

func (c *Client) requestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Connect establishes the session. A 409 means the session already exists
// and is returned as SessionAlreadyEstablished, not as an error.
func (c *Client) Connect(ctx context.Context) (SessionOutcome, error) {
	const op = "connect"

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	status, body, err := c.do(ctx, op, http.MethodPost, "/connect", nil, "")
	if err != nil {
		return 0, err
	}

	switch status {
	case http.StatusOK:
		return SessionEstablished, nil
	case http.StatusConflict:
		return SessionAlreadyEstablished, nil
	default:
		return 0, NewHTTPError(op, status, body)
	}
}

// ListDevices fetches the devices currently on the chain
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	const op = "list devices"

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	status, body, err := c.do(ctx, op, http.MethodGet, "/devices", nil, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, NewHTTPError(op, status, body)
	}

	var devices []Device
	if err := json.Unmarshal([]byte(body), &devices); err != nil {
		return nil, NewParseError(op, "failed to parse device list", err)
	}
	if devices == nil {
		devices = []Device{}
	}
	return devices, nil
}

// UploadFirmware starts a firmware installation on the device at position.
// The payload is sent unmodified. Any HTTP response is returned with a nil
// error; only transport failures produce an error.
func (c *Client) UploadFirmware(ctx context.Context, position int, payload []byte, opts InstallOptions) (*UploadResponse, error) {
	const op = "upload firmware"

	ctx, cancel := context.WithTimeout(ctx, opts.RequestTimeout+c.UploadGrace)
	defer cancel()

	path := "/devices/" + strconv.Itoa(position) + "/start-firmware-installation?" + opts.Query()

	start := time.Now()
	status, body, err := c.do(ctx, op, http.MethodPost, path, payload, "application/octet-stream")
	if err != nil {
		return nil, err
	}

	return &UploadResponse{
		StatusCode: status,
		Body:       body,
		Elapsed:    time.Since(start),
	}, nil
}

// do performs one request and returns the status and body text.
// Non-2xx statuses are not errors at this level.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte, contentType string) (int, string, error) {
	url := c.BaseURL + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, "", &APIError{Type: ErrTypeNetwork, Op: op, Message: "failed to create request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	logging.LogHTTPRequest(method, url, len(payload))
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, "", ClassifyNetworkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.LogHTTPResponse(method, url, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, "", ClassifyNetworkError(op, fmt.Errorf("failed to read response body: %w", err))
	}

	return resp.StatusCode, string(data), nil
}
