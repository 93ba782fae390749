package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"jvmget/downloader/core"
	"jvmget/logging"
)

// DefaultTimeout bounds metadata requests. Archive downloads are bounded by
// the caller's context only, since a JDK can take minutes on a slow link.
const DefaultTimeout = 30 * time.Second

// UserAgent is sent with every request
const UserAgent = "jvmget"

// PartialSuffix is appended to a destination while it is being written
const PartialSuffix = ".part"

// Client handles network operations
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	username   string
	password   string
	validator  *core.Validator
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides DefaultTimeout for metadata requests
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBasicAuth enables HTTP Basic Authentication
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new Client instance
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		validator:  core.NewValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// GetJSON fetches url and decodes the JSON body into v
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, url)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	logging.LogDebug("📡 GET %s", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned non-OK status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}

// Download streams url to dest and returns the number of bytes written.
// Bytes go to dest+".part" first; on any failure, including cancellation of
// ctx, the partial file is removed and dest is left untouched.
func (c *Client) Download(ctx context.Context, url, dest string) (int64, error) {
	logging.LogDebug("📡 Initiating download from %s", url)

	req, err := c.newRequest(ctx, url)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("network request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("server returned non-OK status: %s", resp.Status)
	}

	if err := c.validator.ValidateSpace(resp.ContentLength, dest); err != nil {
		return 0, err
	}

	partial := dest + PartialSuffix
	out, err := os.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && resp.ContentLength > 0 && written != resp.ContentLength {
		err = fmt.Errorf("transfer interrupted: got %d of %d bytes", written, resp.ContentLength)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		return written, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return written, fmt.Errorf("failed to move download into place: %w", err)
	}

	logging.LogDebug("✅ Download completed. Wrote %d bytes to %s", written, dest)
	return written, nil
}
