package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Metadata is the hint set the provider keeps alongside an identity.
// The directory is authoritative; the worker pushes these back so the
// provider-side hints stay in step with admin changes.
type Metadata struct {
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
}

// Client calls the identity provider's management API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, calls succeed without touching
// the network (dev mode, provider not configured).
func New(baseURL, apiKey string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Health probes the provider management API.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("identity provider unhealthy: %s", resp.Status)
	}
	return nil
}

// UpdateMetadata replaces the role/department/employee-id hints stored
// for an external identity.
func (c *Client) UpdateMetadata(ctx context.Context, externalID string, meta Metadata) error {
	if c.Skip {
		return nil
	}
	if externalID == "" {
		return fmt.Errorf("external id required")
	}

	body, _ := json.Marshal(map[string]any{"public_metadata": meta})
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.BaseURL+"/v1/users/"+externalID+"/metadata", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("identity provider error %s: %s", resp.Status, string(bodyBytes))
	}
	return nil
}
