package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/standardbeagle/usersoap/internal/soap"
	"github.com/standardbeagle/usersoap/internal/types"
)

// Client talks to a running UserServer
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the server at addr. addr may be a full URL
// or a listen address such as ":8000" or "localhost:8000".
func NewClient(addr string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    BaseURL(addr),
	}
}

// BaseURL turns a listen address into the URL a client dials
func BaseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + strings.TrimRight(addr, "/")
}

// CallRaw posts payload to /soap and returns the response envelope.
// A fault response is returned as an error carrying the fault string.
func (c *Client) CallRaw(ctx context.Context, payload string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/soap", strings.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", soap.ContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	// Client faults arrive with 200, storage faults with 500
	if _, faultErr := soap.ExtractUsers(strings.NewReader(string(body))); errors.Is(faultErr, soap.ErrFault) {
		return "", fmt.Errorf("server error (%d): %w", resp.StatusCode, faultErr)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

// Call renders req as a request envelope and posts it
func (c *Client) Call(ctx context.Context, req soap.Request) (string, error) {
	payload, err := soap.RenderRequest(req)
	if err != nil {
		return "", err
	}
	return c.CallRaw(ctx, payload)
}

// ListUsers runs GetAllUsers and decodes the users in the response
func (c *Client) ListUsers(ctx context.Context) ([]types.User, error) {
	envelope, err := c.Call(ctx, soap.GetAllUsersRequest{})
	if err != nil {
		return nil, err
	}
	return soap.ExtractUsers(strings.NewReader(envelope))
}

// Info fetches the informational payload served at /
func (c *Client) Info(ctx context.Context) (*RootResponse, error) {
	var info RootResponse
	if err := c.getJSON(ctx, "/", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Ping sends a health check to the server
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var ping PingResponse
	if err := c.getJSON(ctx, "/ping", &ping); err != nil {
		return nil, fmt.Errorf("failed to ping server: %w", err)
	}
	return &ping, nil
}

// Status retrieves the store status
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.getJSON(ctx, "/status", &status); err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &status, nil
}

// IsServerRunning checks if the server is accessible
func (c *Client) IsServerRunning(ctx context.Context) bool {
	_, err := c.Ping(ctx)
	return err == nil
}

// WaitForReady waits until the server reports a readable store or timeout
func (c *Client) WaitForReady(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for server to be ready")
		case <-ticker.C:
			status, err := c.Status(ctx)
			if err != nil {
				continue
			}
			if status.Ready {
				return nil
			}
		}
	}
}

// CloseIdleConnections releases pooled connections
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
