// GameShelf Core
// Copyright (c) 2026 The GameShelf Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GameShelf Core.
//
// GameShelf Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GameShelf Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GameShelf Core.  If not, see <http://www.gnu.org/licenses/>.

// Package httpclient wraps a retrying HTTP client shared by every scanner.
// Transient statuses (429, 500, 502, 503, 504) are retried with backoff by
// the underlying adapter; anything else surfaces to the caller.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeoutSeconds is the default timeout for HTTP requests
	DefaultTimeoutSeconds = 30

	defaultRetryMax = 3
)

// DefaultTransport provides a configured transport with connection pooling and reasonable timeouts
var DefaultTransport = &http.Transport{
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ResponseHeaderTimeout: 30 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	// Connection pooling settings
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// retryLogger adapts zerolog to retryablehttp's LeveledLogger.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...any) { log.Error().Fields(kv).Msg(msg) }
func (retryLogger) Warn(msg string, kv ...any)  { log.Warn().Fields(kv).Msg(msg) }
func (retryLogger) Info(msg string, kv ...any)  { log.Debug().Fields(kv).Msg(msg) }
func (retryLogger) Debug(msg string, kv ...any) { log.Debug().Fields(kv).Msg(msg) }

// Client provides an HTTP client with transient-status retries and
// sensible defaults.
type Client struct {
	*http.Client
}

// NewClient creates a new retrying HTTP client with the default timeout.
func NewClient() *Client {
	return NewClientWithTimeout(DefaultTimeoutSeconds * time.Second)
}

// NewClientWithTimeout creates a new retrying HTTP client with a custom timeout.
func NewClientWithTimeout(timeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = defaultRetryMax
	rc.Logger = retryLogger{}
	rc.HTTPClient = &http.Client{
		Transport: DefaultTransport,
		Timeout:   timeout,
	}

	std := rc.StandardClient()
	std.Timeout = timeout
	return &Client{Client: std}
}

// DownloadFileArgs contains arguments for file download operations
type DownloadFileArgs struct {
	URL        string
	OutputPath string
	TempPath   string
}

// DownloadFile downloads a file from the given URL to the output path,
// streaming through a temp file when TempPath is set so a partial download
// never lands at the final path.
func (c *Client) DownloadFile(ctx context.Context, args DownloadFileArgs) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("error getting url: %w", err)
	}
	if resp == nil {
		return errors.New("received nil response")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("invalid status code: %d", resp.StatusCode)
	}

	// Use temp path if provided, otherwise use output path directly
	outputPath := args.OutputPath
	if args.TempPath != "" {
		outputPath = args.TempPath
	}

	file, err := os.Create(outputPath) // #nosec G304 - outputPath is validated by caller
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		closeErr := file.Close()
		if closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing file: %s", outputPath)
		}
		removeErr := os.Remove(outputPath)
		if removeErr != nil {
			log.Warn().Err(removeErr).Msgf("error removing partial download: %s", outputPath)
		}
		return fmt.Errorf("error downloading file: %w", err)
	}

	expected := resp.ContentLength
	if expected > 0 && written != expected {
		closeErr := file.Close()
		if closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing file: %s", outputPath)
		}
		removeErr := os.Remove(outputPath)
		if removeErr != nil {
			log.Warn().Err(removeErr).Msgf("error removing partial download: %s", outputPath)
		}
		return fmt.Errorf("download incomplete: expected %d bytes, got %d", expected, written)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}

	// Move from temp path to final path if using temp file
	if args.TempPath != "" && args.TempPath != args.OutputPath {
		if err := os.Rename(args.TempPath, args.OutputPath); err != nil {
			removeErr := os.Remove(args.TempPath)
			if removeErr != nil {
				log.Warn().Err(removeErr).Msgf("error removing temp file: %s", args.TempPath)
			}
			return fmt.Errorf("error renaming temp file: %w", err)
		}
	}

	return nil
}

// Get performs a GET request and returns the response
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing GET request: %w", err)
	}

	return resp, nil
}

// Post performs a POST request with the given body and returns the response
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing POST request: %w", err)
	}

	return resp, nil
}

// GetJSON performs a GET request with optional headers and decodes the JSON
// response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("error performing GET request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// PostJSON performs a POST request with a JSON body and optional headers,
// decoding the JSON response into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("error performing POST request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// PostForm performs a form-encoded POST with optional headers and decodes
// the JSON response into out. Used by every OAuth token endpoint.
func (c *Client) PostForm(ctx context.Context, endpoint string, headers map[string]string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("error performing POST request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// DefaultClient provides a shared HTTP client instance
var DefaultClient = NewClient()
